package models

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	MinRating = 1
	MaxRating = 10
)

type Vote struct {
	ID        int64     `json:"id"`
	BeerID    int64     `json:"beer_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"name"`
	Rating    int       `json:"rating"`
	Note      *string   `json:"note"`
	UpdatedAt time.Time `json:"updated_at"`
}

const voteColumns = `votes.id, votes.beer_id, votes.user_id, COALESCE(NULLIF(users.name, ''), users.username),
	votes.points, votes.note, votes.updated_at`

func scanVote(row interface{ Scan(...any) error }) (*Vote, error) {
	var v Vote
	if err := row.Scan(&v.ID, &v.BeerID, &v.UserID, &v.UserName, &v.Rating, &v.Note, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertVote records the user's rating, replacing an earlier one for the same beer.
func UpsertVote(ctx context.Context, db *sql.DB, beerID, userID int64, rating int, note *string) (*Vote, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}

	res, err := db.ExecContext(ctx,
		`UPDATE votes SET points = ?, note = ?, updated_at = CURRENT_TIMESTAMP WHERE beer_id = ? AND user_id = ?`,
		rating, note, beerID, userID,
	)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO votes(beer_id, user_id, points, note) VALUES (?, ?, ?, ?)`,
			beerID, userID, rating, note,
		); err != nil && !IsUniqueConstraint(err) {
			return nil, err
		}
	}
	return GetVote(ctx, db, beerID, userID)
}

func GetVote(ctx context.Context, db *sql.DB, beerID, userID int64) (*Vote, error) {
	v, err := scanVote(db.QueryRowContext(ctx,
		`SELECT `+voteColumns+` FROM votes JOIN users ON users.id = votes.user_id
		 WHERE votes.beer_id = ? AND votes.user_id = ?`,
		beerID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func ListVotes(ctx context.Context, db *sql.DB, beerID int64) ([]Vote, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+voteColumns+` FROM votes JOIN users ON users.id = votes.user_id
		 WHERE votes.beer_id = ? ORDER BY votes.points DESC, votes.id ASC`,
		beerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
