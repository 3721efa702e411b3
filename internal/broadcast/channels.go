package broadcast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// UserBoundary separates a channel name from the user id it is limited to.
// Centrifugo checks such channels itself, so they need no subscription token.
const UserBoundary = "#"

type ChannelKind int

const (
	KindUnknown ChannelKind = iota
	KindRoomNextBeer
	KindRoomBeers
	KindBeerVotes
	KindPersonal
)

// Channel is a parsed channel name.
type Channel struct {
	Name   string
	Kind   ChannelKind
	RoomID int64
	BeerID int64
	UserID int64
}

var ErrUnknownChannel = errors.New("unknown channel")

func RoomNextBeerChannel(roomID int64) string { return fmt.Sprintf("rooms:%d-next-beer", roomID) }
func RoomBeersChannel(roomID int64) string    { return fmt.Sprintf("beers:room-%d", roomID) }
func BeerVotesChannel(beerID int64) string    { return fmt.Sprintf("beers:beer-%d", beerID) }
func PersonalChannel(userID int64) string     { return fmt.Sprintf("personal:%s%d", UserBoundary, userID) }

// IsUserLimited reports whether the channel is restricted to a user id via the boundary.
func IsUserLimited(name string) bool {
	return strings.Contains(name, UserBoundary)
}

func ParseChannel(name string) (Channel, error) {
	c := Channel{Name: name}
	ns, rest, ok := strings.Cut(name, ":")
	if !ok || rest == "" {
		return c, ErrUnknownChannel
	}

	var err error
	switch ns {
	case "rooms":
		idPart, found := strings.CutSuffix(rest, "-next-beer")
		if !found {
			return c, ErrUnknownChannel
		}
		c.Kind = KindRoomNextBeer
		c.RoomID, err = parseID(idPart)
	case "beers":
		switch {
		case strings.HasPrefix(rest, "room-"):
			c.Kind = KindRoomBeers
			c.RoomID, err = parseID(strings.TrimPrefix(rest, "room-"))
		case strings.HasPrefix(rest, "beer-"):
			c.Kind = KindBeerVotes
			c.BeerID, err = parseID(strings.TrimPrefix(rest, "beer-"))
		default:
			return c, ErrUnknownChannel
		}
	case "personal":
		idPart, found := strings.CutPrefix(rest, UserBoundary)
		if !found {
			return c, ErrUnknownChannel
		}
		c.Kind = KindPersonal
		c.UserID, err = parseID(idPart)
	default:
		return c, ErrUnknownChannel
	}
	if err != nil {
		return Channel{Name: name}, ErrUnknownChannel
	}
	return c, nil
}

func parseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrUnknownChannel
	}
	return n, nil
}
