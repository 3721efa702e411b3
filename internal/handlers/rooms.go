package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"beer-tasting-go/internal/models"

	"github.com/gin-gonic/gin"
)

type roomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PlannedDate string `json:"planned_date"`
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

type setAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

func ListRoomsHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		rooms, err := models.ListRoomsForUser(c.Request.Context(), env.DB, userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	}
}

func CreateRoomHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req roomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		room, err := models.CreateRoom(c.Request.Context(), env.DB, userID, req.Name, req.Description, req.PlannedDate)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, room)
	}
}

// JoinRoomHandler adds the caller to the room owning the invitation code.
func JoinRoomHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req joinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
			return
		}

		ctx := c.Request.Context()
		room, err := models.GetRoomByCode(ctx, env.DB, strings.TrimSpace(req.Code))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		if err := models.JoinRoom(ctx, env.DB, room.ID, userID); err != nil {
			writeAPIError(c, err)
			return
		}
		// Re-read so the member count includes the caller.
		room, err = models.GetRoomByID(ctx, env.DB, room.ID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, room)
	}
}

func GetRoomHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		ctx := c.Request.Context()
		room, err := models.GetRoomByID(ctx, env.DB, m.RoomID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		members, err := models.ListRoomMembers(ctx, env.DB, m.RoomID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": room, "users": members, "is_admin": m.IsAdmin})
	}
}

func UpdateRoomHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := requireAdmin(c)
		if !ok {
			return
		}
		var req roomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		room, err := models.UpdateRoom(c.Request.Context(), env.DB, m.RoomID, req.Name, req.Description, req.PlannedDate)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, room)
	}
}

func LeaveRoomHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		if err := models.LeaveRoom(c.Request.Context(), env.DB, m.RoomID, m.UserID); err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func ListRoomUsersHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := membershipFromContext(c)
		members, err := models.ListRoomMembers(c.Request.Context(), env.DB, m.RoomID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": members})
	}
}

// SetAdminHandler promotes or demotes a member and tells them on their personal channel.
func SetAdminHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := requireAdmin(c)
		if !ok {
			return
		}
		targetID, ok := int64Param(c, "userId")
		if !ok {
			return
		}
		var req setAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}

		ctx := c.Request.Context()
		if err := models.SetAdmin(ctx, env.DB, m.RoomID, targetID, req.IsAdmin); err != nil {
			writeAPIError(c, err)
			return
		}
		env.Broadcaster.Notify(ctx, targetID, map[string]string{
			"type":    "admin-changed",
			"roomId":  strconv.FormatInt(m.RoomID, 10),
			"isAdmin": strconv.FormatBool(req.IsAdmin),
		})
		c.JSON(http.StatusOK, gin.H{"user_id": targetID, "is_admin": req.IsAdmin})
	}
}

// RemoveMemberHandler lets an admin take a member out of the room. The member is
// told on their personal channel.
func RemoveMemberHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := requireAdmin(c)
		if !ok {
			return
		}
		targetID, ok := int64Param(c, "userId")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if err := models.RemoveMember(ctx, env.DB, m.RoomID, targetID); err != nil {
			writeAPIError(c, err)
			return
		}
		env.Broadcaster.Notify(ctx, targetID, map[string]string{
			"type":   "removed",
			"roomId": strconv.FormatInt(m.RoomID, 10),
		})
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
