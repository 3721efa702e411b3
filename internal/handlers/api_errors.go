package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"beer-tasting-go/internal/models"

	"github.com/gin-gonic/gin"
)

func writeAPIError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrBeerNotInRoom) || errors.Is(err, sql.ErrNoRows) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// Typed validation / permission / conflict errors (never echo raw errors).
	switch {
	case errors.Is(err, models.ErrInvalidJSON):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	case errors.Is(err, models.ErrInvalidRating):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 10"})
		return
	case errors.Is(err, models.ErrInvalidRoomName):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "room name must be 1-100 characters"})
		return
	case errors.Is(err, models.ErrInvalidBeerName):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "beer name must be 1-200 characters"})
		return
	case errors.Is(err, models.ErrNotRoomMember):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return
	case errors.Is(err, models.ErrNotRoomAdmin):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "room admin required"})
		return
	case errors.Is(err, models.ErrRatingsHidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "ratings are not published yet"})
		return
	case errors.Is(err, models.ErrLastAdmin):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "promote another admin before leaving"})
		return
	case errors.Is(err, models.ErrUsernameTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}

	// Unknown errors: recorded on the context for the request logger, generic body for the client.
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
