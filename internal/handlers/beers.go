package handlers

import (
	"errors"
	"net/http"
	"strings"

	"beer-tasting-go/internal/models"
	"beer-tasting-go/internal/tracing"

	"github.com/gin-gonic/gin"
)

// Reasons carried in beer and vote broadcasts.
const (
	reasonBeerAdded       = "beer-added"
	reasonBeerUpdated     = "beer-updated"
	reasonBeerPublished   = "beer-published"
	reasonBeerUnpublished = "beer-unpublished"
	reasonVoteUpdated     = "vote-updated"
)

type createBeerRequest struct {
	Name       string  `json:"name"`
	Style      *string `json:"style"`
	PictureURL *string `json:"picture_url"`
}

type nextBeerRequest struct {
	CurrentBeerID int64 `json:"current_beer_id"`
}

type rateRequest struct {
	Rating int     `json:"rating"`
	Note   *string `json:"note"`
}

// beerFromPath loads :beerId and checks it belongs to the room in the membership.
func beerFromPath(c *gin.Context, env *Env, m *models.Membership) (*models.Beer, bool) {
	beerID, ok := int64Param(c, "beerId")
	if !ok {
		return nil, false
	}
	beer, err := models.GetBeerInRoom(c.Request.Context(), env.DB, m.RoomID, beerID)
	if err != nil {
		writeAPIError(c, err)
		return nil, false
	}
	return beer, true
}

func ListBeersHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		beers, err := models.ListBeersInRoom(c.Request.Context(), env.DB, m.RoomID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"beers": beers})
	}
}

func CreateBeerHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		var req createBeerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		ctx := c.Request.Context()
		beer, err := models.CreateBeer(ctx, env.DB, m.RoomID, req.Name, trimmedOrNil(req.Style), trimmedOrNil(req.PictureURL))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		env.Broadcaster.BeerChanged(ctx, m.RoomID, reasonBeerAdded)
		c.JSON(http.StatusCreated, beer)
	}
}

// GetBeerHandler returns one beer. When an admin opens it, every member is sent to it.
func GetBeerHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		beer, ok := beerFromPath(c, env, m)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if m.IsAdmin {
			env.Broadcaster.NextBeer(ctx, m.RoomID, beer.ID)
		}

		resp := gin.H{"beer": beer, "is_admin": m.IsAdmin}
		vote, err := models.GetVote(ctx, env.DB, beer.ID, m.UserID)
		switch {
		case err == nil:
			resp["my_vote"] = vote
		case !errors.Is(err, models.ErrNotFound):
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// UpdateBeerHandler edits a beer. Any member may correct name, style or picture.
func UpdateBeerHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		beerID, ok := int64Param(c, "beerId")
		if !ok {
			return
		}
		var req createBeerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		ctx := c.Request.Context()
		beer, err := models.UpdateBeer(ctx, env.DB, m.RoomID, beerID, req.Name, trimmedOrNil(req.Style), trimmedOrNil(req.PictureURL))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		env.Broadcaster.BeerChanged(ctx, m.RoomID, reasonBeerUpdated)
		c.JSON(http.StatusOK, beer)
	}
}

// RandomBeerHandler sends the room to an unpublished beer picked at random.
func RandomBeerHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := requireAdmin(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		beer, err := models.RandomBeer(ctx, env.DB, m.RoomID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		env.Broadcaster.NextBeer(ctx, m.RoomID, beer.ID)
		c.JSON(http.StatusOK, beer)
	}
}

// NextBeerHandler moves the room on to the beer after current_beer_id, wrapping around.
func NextBeerHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.NextBeerHandler")
		defer span.End()

		m, ok := requireAdmin(c)
		if !ok {
			return
		}
		var req nextBeerRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				writeAPIError(c, models.ErrInvalidJSON)
				return
			}
		}
		beer, err := models.NextBeer(ctx, env.DB, m.RoomID, req.CurrentBeerID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		env.Broadcaster.NextBeer(ctx, m.RoomID, beer.ID)
		c.JSON(http.StatusOK, beer)
	}
}

func RateBeerHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.RateBeerHandler")
		defer span.End()

		m := membershipFromContext(c)
		beer, ok := beerFromPath(c, env, m)
		if !ok {
			return
		}
		var req rateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}

		vote, err := models.UpsertVote(ctx, env.DB, beer.ID, m.UserID, req.Rating, trimmedOrNil(req.Note))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		note := ""
		if vote.Note != nil {
			note = *vote.Note
		}
		env.Broadcaster.VoteChanged(ctx, beer.ID, m.UserID, vote.Rating, note, vote.UserName, reasonVoteUpdated)
		c.JSON(http.StatusOK, vote)
	}
}

// ListRatingsHandler reveals individual votes once the beer is published; admins see them anytime.
func ListRatingsHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		beer, ok := beerFromPath(c, env, m)
		if !ok {
			return
		}
		if !beer.Published && !m.IsAdmin {
			writeAPIError(c, models.ErrRatingsHidden)
			return
		}
		votes, err := models.ListVotes(c.Request.Context(), env.DB, beer.ID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"beer": beer, "ratings": votes})
	}
}

func PublishBeerHandler(env *Env, published bool) gin.HandlerFunc {
	reason := reasonBeerUnpublished
	if published {
		reason = reasonBeerPublished
	}
	return func(c *gin.Context) {
		m, ok := requireAdmin(c)
		if !ok {
			return
		}
		beerID, ok := int64Param(c, "beerId")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		beer, err := models.SetBeerPublished(ctx, env.DB, m.RoomID, beerID, published)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		env.Broadcaster.BeerChanged(ctx, m.RoomID, reason)
		c.JSON(http.StatusOK, beer)
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
