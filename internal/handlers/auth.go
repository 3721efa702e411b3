package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"beer-tasting-go/internal/auth"
	"beer-tasting-go/internal/metrics"
	"beer-tasting-go/internal/middleware"
	"beer-tasting-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func RegisterHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		uLen := utf8.RuneCountInString(req.Username)
		if uLen < 3 || uLen > 32 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-32 characters"})
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if utf8.RuneCountInString(req.Name) > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 100 characters or less"})
			return
		}

		// Passwords are not trimmed: leading/trailing spaces are valid characters.
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			if auth.IsPasswordValidationError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			writeAPIError(c, err)
			return
		}

		u, err := models.CreateUser(c.Request.Context(), env.DB, req.Username, hash, req.Name)
		if err != nil {
			writeAPIError(c, err)
			return
		}

		token, err := issueBearer(c, env, u)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, authResponse{Token: token, User: u})
	}
}

func LoginHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		u, err := models.GetUserByUsername(c.Request.Context(), env.DB, req.Username)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			writeAPIError(c, err)
			return
		}
		if u == nil || auth.ComparePasswordHash(u.PasswordHash, req.Password) != nil {
			env.Metrics.TokensDenied.WithLabelValues(metrics.TokenBearer, "bad_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := issueBearer(c, env, u)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, authResponse{Token: token, User: u})
	}
}

// issueBearer signs a bearer token and mirrors it into the httpOnly login cookie.
func issueBearer(c *gin.Context, env *Env, u *models.User) (string, error) {
	token, err := auth.GenerateToken(u.ID, u.Username, env.Config)
	if err != nil {
		return "", err
	}
	env.Metrics.TokensIssued.WithLabelValues(metrics.TokenBearer).Inc()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.AuthCookieName, token, int(env.Config.JWTTTL/time.Second), "/", "", !env.Config.IsDevelopment(), true)
	return token, nil
}

// LogoutHandler revokes the presented token until it would have expired anyway.
func LogoutHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenID := c.GetString(middleware.ContextTokenID)
		until := c.GetTime(middleware.ContextTokenExpiry)
		if until.IsZero() {
			until = time.Now().Add(env.Config.JWTTTL)
		}
		if tokenID != "" && env.Revoked != nil {
			if err := env.Revoked.Revoke(c.Request.Context(), tokenID, until); err != nil {
				env.Logger.Error("revoke token failed", zap.String("jti", tokenID), zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth backend unavailable"})
				return
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(auth.AuthCookieName, "", -1, "/", "", !env.Config.IsDevelopment(), true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// VerifyTokenHandler answers 200 for a live bearer token; RequireAuth has already
// rejected anything else with 401.
func VerifyTokenHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, err := models.GetUserByID(c.Request.Context(), env.DB, userID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			}
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	}
}
