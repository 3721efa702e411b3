package models

import (
	"context"
	"database/sql"
	"testing"

	"beer-tasting-go/internal/config"
	"beer-tasting-go/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), config.StorageSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustUser(t *testing.T, db *sql.DB, username string) *User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, username, "hash", "")
	require.NoError(t, err)
	return u
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	u, err := CreateUser(ctx, db, "porter", "hash", "Pat")
	require.NoError(t, err)
	assert.Equal(t, "porter", u.Username)
	assert.Equal(t, "Pat", u.DisplayName())

	_, err = CreateUser(ctx, db, "porter", "hash", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	byName, err := GetUserByUsername(ctx, db, "porter")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	require.NoError(t, UpdateUserName(ctx, db, u.ID, ""))
	byID, err := GetUserByID(ctx, db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "porter", byID.DisplayName())

	_, err = GetUserByID(ctx, db, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, UpdateUserName(ctx, db, 999, "x"), ErrNotFound)
}

func TestRooms_CreateJoinList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := mustUser(t, db, "owner")
	guest := mustUser(t, db, "guest")

	_, err := CreateRoom(ctx, db, owner.ID, "  ", "", "")
	assert.ErrorIs(t, err, ErrInvalidRoomName)

	room, err := CreateRoom(ctx, db, owner.ID, "Friday IPAs", "hoppy", "2026-11-01")
	require.NoError(t, err)
	assert.NotEmpty(t, room.Code)
	assert.EqualValues(t, 1, room.Members)

	m, err := GetMembership(ctx, db, room.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, m.IsAdmin)

	_, err = GetMembership(ctx, db, room.ID, guest.ID)
	assert.ErrorIs(t, err, ErrNotRoomMember)

	byCode, err := GetRoomByCode(ctx, db, room.Code)
	require.NoError(t, err)
	require.NoError(t, JoinRoom(ctx, db, byCode.ID, guest.ID))
	require.NoError(t, JoinRoom(ctx, db, byCode.ID, guest.ID), "joining twice is a no-op")

	m, err = GetMembership(ctx, db, room.ID, guest.ID)
	require.NoError(t, err)
	assert.False(t, m.IsAdmin)

	rooms, err := ListRoomsForUser(ctx, db, guest.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.EqualValues(t, 2, rooms[0].Members)

	members, err := ListRoomMembers(ctx, db, room.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, owner.ID, members[0].UserID)
	assert.True(t, members[0].IsAdmin)

	updated, err := UpdateRoom(ctx, db, room.ID, "Saturday Stouts", "dark", "2026-11-02")
	require.NoError(t, err)
	assert.Equal(t, "Saturday Stouts", updated.Name)

	_, err = GetRoomByCode(ctx, db, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRooms_LeaveAndAdmins(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := mustUser(t, db, "owner")
	guest := mustUser(t, db, "guest")

	room, err := CreateRoom(ctx, db, owner.ID, "Sours", "", "")
	require.NoError(t, err)
	require.NoError(t, JoinRoom(ctx, db, room.ID, guest.ID))

	assert.ErrorIs(t, LeaveRoom(ctx, db, room.ID, owner.ID), ErrLastAdmin)
	assert.ErrorIs(t, SetAdmin(ctx, db, room.ID, owner.ID, false), ErrLastAdmin)

	assert.ErrorIs(t, RemoveMember(ctx, db, room.ID, owner.ID), ErrLastAdmin)

	require.NoError(t, SetAdmin(ctx, db, room.ID, guest.ID, true))
	require.NoError(t, LeaveRoom(ctx, db, room.ID, owner.ID))
	assert.ErrorIs(t, LeaveRoom(ctx, db, room.ID, owner.ID), ErrNotRoomMember)

	require.NoError(t, LeaveRoom(ctx, db, room.ID, guest.ID))
	_, err = GetRoomByID(ctx, db, room.ID)
	assert.ErrorIs(t, err, ErrNotFound, "empty rooms are deleted")
}

func TestBeersAndVotes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := mustUser(t, db, "owner")
	guest := mustUser(t, db, "guest")
	room, err := CreateRoom(ctx, db, owner.ID, "Lagers", "", "")
	require.NoError(t, err)
	other, err := CreateRoom(ctx, db, owner.ID, "Other", "", "")
	require.NoError(t, err)

	_, err = CreateBeer(ctx, db, room.ID, "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidBeerName)

	style := "Pilsner"
	first, err := CreateBeer(ctx, db, room.ID, "Pils", &style, nil)
	require.NoError(t, err)
	second, err := CreateBeer(ctx, db, room.ID, "Helles", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, first.Average)

	_, err = GetBeerInRoom(ctx, db, other.ID, first.ID)
	assert.ErrorIs(t, err, ErrBeerNotInRoom)

	next, err := NextBeer(ctx, db, room.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.ID)
	next, err = NextBeer(ctx, db, room.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.ID)
	next, err = NextBeer(ctx, db, room.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.ID, "wraps around")
	_, err = NextBeer(ctx, db, other.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = UpsertVote(ctx, db, first.ID, owner.ID, 11, nil)
	assert.ErrorIs(t, err, ErrInvalidRating)

	note := "crisp"
	v, err := UpsertVote(ctx, db, first.ID, owner.ID, 6, &note)
	require.NoError(t, err)
	assert.Equal(t, 6, v.Rating)
	assert.Equal(t, "owner", v.UserName)

	v, err = UpsertVote(ctx, db, first.ID, owner.ID, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, v.Rating)
	assert.Nil(t, v.Note)

	_, err = UpsertVote(ctx, db, first.ID, guest.ID, 4, nil)
	require.NoError(t, err)

	votes, err := ListVotes(ctx, db, first.ID)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, owner.ID, votes[0].UserID)

	beers, err := ListBeersInRoom(ctx, db, room.ID)
	require.NoError(t, err)
	require.Len(t, beers, 2)
	require.NotNil(t, beers[0].Average)
	assert.InDelta(t, 6.0, *beers[0].Average, 0.001)
	assert.EqualValues(t, 2, beers[0].Votes)

	pub, err := SetBeerPublished(ctx, db, room.ID, first.ID, true)
	require.NoError(t, err)
	assert.True(t, pub.Published)

	_, err = GetVote(ctx, db, second.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := UpdateBeer(ctx, db, room.ID, second.ID, " Helles Bock ", &style, nil)
	require.NoError(t, err)
	assert.Equal(t, "Helles Bock", renamed.Name)
	require.NotNil(t, renamed.Style)
	assert.Equal(t, "Pilsner", *renamed.Style)
	_, err = UpdateBeer(ctx, db, other.ID, second.ID, "x", nil, nil)
	assert.ErrorIs(t, err, ErrBeerNotInRoom)
	_, err = UpdateBeer(ctx, db, room.ID, second.ID, "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidBeerName)

	for range 5 {
		random, err := RandomBeer(ctx, db, room.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, random.ID, "published beers are skipped")
	}
	_, err = SetBeerPublished(ctx, db, room.ID, second.ID, true)
	require.NoError(t, err)
	_, err = RandomBeer(ctx, db, room.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := mustUser(t, db, "owner")
	guest := mustUser(t, db, "guest")
	room, err := CreateRoom(ctx, db, owner.ID, "Bocks", "", "")
	require.NoError(t, err)
	require.NoError(t, JoinRoom(ctx, db, room.ID, guest.ID))

	require.NoError(t, RemoveMember(ctx, db, room.ID, guest.ID))
	_, err = GetMembership(ctx, db, room.ID, guest.ID)
	assert.ErrorIs(t, err, ErrNotRoomMember)
	assert.ErrorIs(t, RemoveMember(ctx, db, room.ID, guest.ID), ErrNotRoomMember)
}
