package handlers

import (
	"net/http"
	"strconv"

	"beer-tasting-go/internal/middleware"
	"beer-tasting-go/internal/models"

	"github.com/gin-gonic/gin"
)

const contextMembership = "membership"

func userIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok || v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

func membershipFromContext(c *gin.Context) *models.Membership {
	v, ok := c.Get(contextMembership)
	if !ok {
		return nil
	}
	m, _ := v.(*models.Membership)
	return m
}

// int64Param parses a positive numeric path parameter, writing a 400 on failure.
func int64Param(c *gin.Context, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

// requireRoomMember loads the caller's membership of :roomId into the context.
func requireRoomMember(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		roomID, ok := int64Param(c, "roomId")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := models.GetRoomByID(ctx, env.DB, roomID); err != nil {
			writeAPIError(c, err)
			return
		}
		m, err := models.GetMembership(ctx, env.DB, roomID, userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.Set(contextMembership, m)
		c.Next()
	}
}

func requireAdmin(c *gin.Context) (*models.Membership, bool) {
	m := membershipFromContext(c)
	if m == nil || !m.IsAdmin {
		writeAPIError(c, models.ErrNotRoomAdmin)
		return nil, false
	}
	return m, true
}
