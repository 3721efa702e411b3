package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"beer-tasting-go/internal/models"
	"beer-tasting-go/internal/tracing"

	"github.com/gin-gonic/gin"
)

type updateProfileRequest struct {
	Name *string `json:"name"`
}

// GetProfileHandler retrieves the authenticated user's profile
func GetProfileHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.GetProfileHandler")
		defer span.End()

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := models.GetUserByID(ctx, env.DB, userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfileHandler changes the display name; an empty name falls back to the username.
func UpdateProfileHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.UpdateProfileHandler")
		defer span.End()

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		name := strings.TrimSpace(*req.Name)
		if utf8.RuneCountInString(name) > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 100 characters or less"})
			return
		}

		if err := models.UpdateUserName(ctx, env.DB, userID, name); err != nil {
			writeAPIError(c, err)
			return
		}
		user, err := models.GetUserByID(ctx, env.DB, userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
