package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"beer-tasting-go/internal/models"
)

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// RoomDetail is the body of GET /api/rooms/:roomId.
type RoomDetail struct {
	Room    models.Room         `json:"room"`
	Users   []models.RoomMember `json:"users"`
	IsAdmin bool                `json:"is_admin"`
}

// BeerDetail is the body of GET /api/rooms/:roomId/beers/:beerId.
type BeerDetail struct {
	Beer    models.Beer  `json:"beer"`
	IsAdmin bool         `json:"is_admin"`
	MyVote  *models.Vote `json:"my_vote"`
}

type Ratings struct {
	Beer    models.Beer   `json:"beer"`
	Ratings []models.Vote `json:"ratings"`
}

// Login stores the returned bearer token on success.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	if err := c.doOnce(ctx, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password}, &out); err != nil {
		return nil, err
	}
	return &out, c.store.SetToken(ctx, out.Token)
}

// Register creates the account and stores the returned bearer token.
func (c *Client) Register(ctx context.Context, username, password, name string) (*AuthResult, error) {
	var out AuthResult
	in := map[string]string{"username": username, "password": password, "name": name}
	if err := c.doOnce(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, c.store.SetToken(ctx, out.Token)
}

// Logout revokes the token server-side and forgets it locally. The local copy is
// dropped even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doOnce(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.store.Clear(ctx); clearErr != nil {
		return clearErr
	}
	return err
}

// VerifyToken calls GET /api/verifyToken with the stored token.
func (c *Client) VerifyToken(ctx context.Context) error {
	return c.doOnce(ctx, http.MethodGet, "/api/verifyToken", nil, nil)
}

// ConnectionToken is a single attempt; the real-time client owns the retry policy.
func (c *Client) ConnectionToken(ctx context.Context) (string, error) {
	var out tokenResponse
	if err := c.doOnce(ctx, http.MethodGet, "/broadcasting/connect", nil, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// SubscriptionToken is a single attempt, like ConnectionToken.
func (c *Client) SubscriptionToken(ctx context.Context, channel string) (string, error) {
	var out tokenResponse
	if err := c.doOnce(ctx, http.MethodPost, "/broadcasting/auth", map[string]string{"channel": channel}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.doRetry(ctx, http.MethodGet, "/api/user/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name string) (*models.User, error) {
	var out models.User
	if err := c.doOnce(ctx, http.MethodPut, "/api/user/profile", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	var out struct {
		Rooms []models.Room `json:"rooms"`
	}
	if err := c.doRetry(ctx, http.MethodGet, "/api/rooms", nil, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

func (c *Client) CreateRoom(ctx context.Context, name, description, plannedDate string) (*models.Room, error) {
	var out models.Room
	in := map[string]string{"name": name, "description": description, "planned_date": plannedDate}
	if err := c.doOnce(ctx, http.MethodPost, "/api/rooms", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinRoom(ctx context.Context, code string) (*models.Room, error) {
	var out models.Room
	if err := c.doOnce(ctx, http.MethodPost, "/api/rooms/join", map[string]string{"code": code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Room(ctx context.Context, roomID int64) (*RoomDetail, error) {
	var out RoomDetail
	if err := c.doRetry(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d", roomID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Beers(ctx context.Context, roomID int64) ([]models.Beer, error) {
	var out struct {
		Beers []models.Beer `json:"beers"`
	}
	if err := c.doRetry(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/beers", roomID), nil, &out); err != nil {
		return nil, err
	}
	return out.Beers, nil
}

func (c *Client) Beer(ctx context.Context, roomID, beerID int64) (*BeerDetail, error) {
	var out BeerDetail
	if err := c.doRetry(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/beers/%d", roomID, beerID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RandomBeer moves the room to a random unpublished beer. It is not retried: each
// call broadcasts to the room.
func (c *Client) RandomBeer(ctx context.Context, roomID int64) (*models.Beer, error) {
	var out models.Beer
	if err := c.doOnce(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/beers/random", roomID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveMember(ctx context.Context, roomID, userID int64) error {
	return c.doOnce(ctx, http.MethodDelete, fmt.Sprintf("/api/rooms/%d/users/%d", roomID, userID), nil, nil)
}

func (c *Client) Rate(ctx context.Context, roomID, beerID int64, rating int, note string) (*models.Vote, error) {
	var out models.Vote
	in := map[string]any{"rating": rating}
	if note != "" {
		in["note"] = note
	}
	if err := c.doOnce(ctx, http.MethodPost, fmt.Sprintf("/api/rooms/%d/beers/%d/rate", roomID, beerID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ratings(ctx context.Context, roomID, beerID int64) (*Ratings, error) {
	var out Ratings
	if err := c.doRetry(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/beers/%d/ratings", roomID, beerID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
