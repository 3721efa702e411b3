package models

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"
)

type Beer struct {
	ID         int64     `json:"id"`
	RoomID     int64     `json:"room_id"`
	Name       string    `json:"name"`
	Style      *string   `json:"style"`
	PictureURL *string   `json:"picture_url"`
	Published  bool      `json:"published"`
	Average    *float64  `json:"average"`
	Votes      int64     `json:"votes"`
	CreatedAt  time.Time `json:"created_at"`
}

const beerColumns = `beers.id, beers.room_id, beers.name, beers.style, beers.picture_url, beers.published, beers.created_at,
	(SELECT AVG(votes.points) FROM votes WHERE votes.beer_id = beers.id),
	(SELECT count(*) FROM votes WHERE votes.beer_id = beers.id)`

func scanBeer(row interface{ Scan(...any) error }) (*Beer, error) {
	var (
		b   Beer
		avg sql.NullFloat64
	)
	if err := row.Scan(&b.ID, &b.RoomID, &b.Name, &b.Style, &b.PictureURL, &b.Published, &b.CreatedAt, &avg, &b.Votes); err != nil {
		return nil, err
	}
	if avg.Valid {
		b.Average = &avg.Float64
	}
	return &b, nil
}

func validBeerName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= 200
}

func CreateBeer(ctx context.Context, db *sql.DB, roomID int64, name string, style, pictureURL *string) (*Beer, error) {
	name = strings.TrimSpace(name)
	if !validBeerName(name) {
		return nil, ErrInvalidBeerName
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO beers(room_id, name, style, picture_url) VALUES (?, ?, ?, ?)`,
		roomID, name, style, pictureURL,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetBeer(ctx, db, id)
}

func GetBeer(ctx context.Context, db *sql.DB, id int64) (*Beer, error) {
	b, err := scanBeer(db.QueryRowContext(ctx, `SELECT `+beerColumns+` FROM beers WHERE beers.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetBeerInRoom returns ErrBeerNotInRoom when the beer exists but belongs elsewhere.
func GetBeerInRoom(ctx context.Context, db *sql.DB, roomID, beerID int64) (*Beer, error) {
	b, err := GetBeer(ctx, db, beerID)
	if err != nil {
		return nil, err
	}
	if b.RoomID != roomID {
		return nil, ErrBeerNotInRoom
	}
	return b, nil
}

func ListBeersInRoom(ctx context.Context, db *sql.DB, roomID int64) ([]Beer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+beerColumns+` FROM beers WHERE beers.room_id = ? ORDER BY beers.id ASC`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Beer{}
	for rows.Next() {
		b, err := scanBeer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// NextBeer returns the beer following afterID in the room, wrapping to the first.
// An afterID of 0 starts from the beginning.
func NextBeer(ctx context.Context, db *sql.DB, roomID, afterID int64) (*Beer, error) {
	b, err := scanBeer(db.QueryRowContext(ctx,
		`SELECT `+beerColumns+` FROM beers WHERE beers.room_id = ? AND beers.id > ? ORDER BY beers.id ASC LIMIT 1`,
		roomID, afterID,
	))
	if errors.Is(err, sql.ErrNoRows) && afterID > 0 {
		return NextBeer(ctx, db, roomID, 0)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func SetBeerPublished(ctx context.Context, db *sql.DB, roomID, beerID int64, published bool) (*Beer, error) {
	if _, err := GetBeerInRoom(ctx, db, roomID, beerID); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE beers SET published = ? WHERE id = ? AND room_id = ?`, published, beerID, roomID,
	); err != nil {
		return nil, err
	}
	return GetBeer(ctx, db, beerID)
}

// UpdateBeer replaces name, style and picture of a beer in the room.
func UpdateBeer(ctx context.Context, db *sql.DB, roomID, beerID int64, name string, style, pictureURL *string) (*Beer, error) {
	name = strings.TrimSpace(name)
	if !validBeerName(name) {
		return nil, ErrInvalidBeerName
	}
	if _, err := GetBeerInRoom(ctx, db, roomID, beerID); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE beers SET name = ?, style = ?, picture_url = ? WHERE id = ? AND room_id = ?`,
		name, style, pictureURL, beerID, roomID,
	); err != nil {
		return nil, err
	}
	return GetBeer(ctx, db, beerID)
}

// RandomBeer picks one of the room's unpublished beers. ErrNotFound when none is left.
func RandomBeer(ctx context.Context, db *sql.DB, roomID int64) (*Beer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM beers WHERE room_id = ? AND published = ? ORDER BY id ASC`, roomID, false,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return GetBeer(ctx, db, ids[rand.IntN(len(ids))])
}
