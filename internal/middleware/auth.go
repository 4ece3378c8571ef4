package middleware

import (
	"errors"
	"net/http"
	"strings"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
	"zugzwang/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey   = "user"
	ViewerKey      = "viewer"
	SessionUserKey = "user_id"
)

// LoadViewer resolves the caller from a Bearer token, falling back to the session
// cookie. A present but invalid token is rejected; no credentials means anonymous.
func LoadViewer(verifier JWTVerifier, users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bearerUser(c, verifier)
		if !ok {
			return
		}
		fromToken := id != 0
		if !fromToken {
			id = sessionUser(c)
		}
		if id == 0 {
			c.Next()
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(CheckUserKey, user)
			c.Set(ViewerKey, models.ViewerOf(user))
		case !errors.Is(err, store.ErrNotFound):
			_ = c.Error(err)
			AbortWithError(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
			return
		case fromToken:
			AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
			return
		default:
			// 会话里的用户已不存在，清掉
			session := sessions.Default(c)
			session.Delete(SessionUserKey)
			_ = session.Save()
		}
		c.Next()
	}
}

// bearerUser returns the token's user id, 0 when there is no Authorization header.
// ok is false when the request has been aborted.
func bearerUser(c *gin.Context, verifier JWTVerifier) (uint, bool) {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return 0, true
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "expected a bearer token")
		return 0, false
	}
	claims, err := verifier.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
		return 0, false
	}
	id, valid := utils.ParseID(claims.Subject)
	if !valid {
		AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token subject")
		return 0, false
	}
	return id, true
}

func sessionUser(c *gin.Context) uint {
	switch v := sessions.Default(c).Get(SessionUserKey).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

// ViewerFrom returns the request's viewer, anonymous when nobody is signed in.
func ViewerFrom(c *gin.Context) models.Viewer {
	if v, ok := c.Get(ViewerKey); ok {
		if viewer, ok := v.(models.Viewer); ok {
			return viewer
		}
	}
	return models.Viewer{}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ViewerFrom(c).IsAnonymous() {
			AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := ViewerFrom(c)
		if v.IsAnonymous() {
			AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		if !v.IsAdmin() {
			AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "admin only")
			return
		}
		c.Next()
	}
}
