package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	PlannedDate string    `json:"planned_date"`
	CreatedAt   time.Time `json:"created_at"`
	Members     int64     `json:"members"`
}

type RoomMember struct {
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

type Membership struct {
	RoomID  int64
	UserID  int64
	IsAdmin bool
}

const roomColumns = `rooms.id, rooms.name, rooms.code, rooms.description, rooms.planned_date, rooms.created_at,
	(SELECT count(*) FROM user_room ur WHERE ur.room_id = rooms.id)`

func scanRoom(row interface{ Scan(...any) error }) (*Room, error) {
	var r Room
	if err := row.Scan(&r.ID, &r.Name, &r.Code, &r.Description, &r.PlannedDate, &r.CreatedAt, &r.Members); err != nil {
		return nil, err
	}
	return &r, nil
}

func validRoomName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 1 && n <= 100
}

// CreateRoom inserts a room with a fresh join code and makes the creator its admin.
func CreateRoom(ctx context.Context, db *sql.DB, creatorID int64, name, description, plannedDate string) (*Room, error) {
	name = strings.TrimSpace(name)
	if !validRoomName(name) {
		return nil, ErrInvalidRoomName
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rooms(name, code, description, planned_date) VALUES (?, ?, ?, ?)`,
		name, uuid.NewString(), description, plannedDate,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_room(room_id, user_id, is_admin) VALUES (?, ?, ?)`,
		id, creatorID, true,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetRoomByID(ctx, db, id)
}

func GetRoomByID(ctx context.Context, db *sql.DB, id int64) (*Room, error) {
	r, err := scanRoom(db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE rooms.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func GetRoomByCode(ctx context.Context, db *sql.DB, code string) (*Room, error) {
	r, err := scanRoom(db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE rooms.code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func ListRoomsForUser(ctx context.Context, db *sql.DB, userID int64) ([]Room, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+roomColumns+`
		 FROM rooms
		 JOIN user_room ON user_room.room_id = rooms.id
		 WHERE user_room.user_id = ?
		 ORDER BY rooms.created_at DESC, rooms.id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func UpdateRoom(ctx context.Context, db *sql.DB, id int64, name, description, plannedDate string) (*Room, error) {
	name = strings.TrimSpace(name)
	if !validRoomName(name) {
		return nil, ErrInvalidRoomName
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, description = ?, planned_date = ? WHERE id = ?`,
		name, description, plannedDate, id,
	); err != nil {
		return nil, err
	}
	return GetRoomByID(ctx, db, id)
}

// GetMembership returns ErrNotRoomMember when the user has not joined the room.
func GetMembership(ctx context.Context, db *sql.DB, roomID, userID int64) (*Membership, error) {
	m := Membership{RoomID: roomID, UserID: userID}
	err := db.QueryRowContext(ctx,
		`SELECT is_admin FROM user_room WHERE room_id = ? AND user_id = ?`,
		roomID, userID,
	).Scan(&m.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotRoomMember
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// JoinRoom adds the user as a regular member. Joining twice is a no-op.
func JoinRoom(ctx context.Context, db *sql.DB, roomID, userID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO user_room(room_id, user_id, is_admin) VALUES (?, ?, ?)`,
		roomID, userID, false,
	)
	if IsUniqueConstraint(err) {
		return nil
	}
	return err
}

func ListRoomMembers(ctx context.Context, db *sql.DB, roomID int64) ([]RoomMember, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT users.id, COALESCE(NULLIF(users.name, ''), users.username), user_room.is_admin
		 FROM user_room
		 JOIN users ON users.id = user_room.user_id
		 WHERE user_room.room_id = ?
		 ORDER BY user_room.is_admin DESC, users.id ASC`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RoomMember{}
	for rows.Next() {
		var m RoomMember
		if err := rows.Scan(&m.UserID, &m.Name, &m.IsAdmin); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LeaveRoom removes the membership. The last admin may only leave when nobody else
// remains; an emptied room is deleted.
func LeaveRoom(ctx context.Context, db *sql.DB, roomID, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var isAdmin bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_admin FROM user_room WHERE room_id = ? AND user_id = ?`, roomID, userID,
	).Scan(&isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotRoomMember
	}
	if err != nil {
		return err
	}

	var others, otherAdmins int64
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*), COALESCE(SUM(CASE WHEN is_admin THEN 1 ELSE 0 END), 0)
		 FROM user_room WHERE room_id = ? AND user_id != ?`,
		roomID, userID,
	).Scan(&others, &otherAdmins); err != nil {
		return err
	}
	if isAdmin && others > 0 && otherAdmins == 0 {
		return ErrLastAdmin
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_room WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		return err
	}
	if others == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RemoveMember takes another user out of the room under the same rules as LeaveRoom.
func RemoveMember(ctx context.Context, db *sql.DB, roomID, userID int64) error {
	return LeaveRoom(ctx, db, roomID, userID)
}

// SetAdmin promotes or demotes a member. Demoting the only admin is refused.
func SetAdmin(ctx context.Context, db *sql.DB, roomID, userID int64, isAdmin bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_admin FROM user_room WHERE room_id = ? AND user_id = ?`, roomID, userID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotRoomMember
	}
	if err != nil {
		return err
	}
	if current == isAdmin {
		return nil
	}
	if !isAdmin {
		var otherAdmins int64
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM user_room WHERE room_id = ? AND user_id != ? AND is_admin`,
			roomID, userID,
		).Scan(&otherAdmins); err != nil {
			return err
		}
		if otherAdmins == 0 {
			return ErrLastAdmin
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE user_room SET is_admin = ? WHERE room_id = ? AND user_id = ?`, isAdmin, roomID, userID,
	); err != nil {
		return err
	}
	return tx.Commit()
}
