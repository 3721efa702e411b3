package models

import "errors"

var (
	ErrInvalidJSON     = errors.New("invalid json")
	ErrNotRoomMember   = errors.New("not a room member")
	ErrNotRoomAdmin    = errors.New("not a room admin")
	ErrLastAdmin       = errors.New("room needs another admin first")
	ErrInvalidRating   = errors.New("invalid rating")
	ErrRatingsHidden   = errors.New("ratings not published")
	ErrBeerNotInRoom   = errors.New("beer not in room")
	ErrInvalidRoomName = errors.New("invalid room name")
	ErrInvalidBeerName = errors.New("invalid beer name")
	ErrUsernameTaken   = errors.New("username already taken")
)
