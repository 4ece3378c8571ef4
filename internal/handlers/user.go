package handlers

import (
	"net/http"

	"zugzwang/internal/middleware"
	"zugzwang/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	users *services.Users
	log   *zap.Logger
}

func NewUserHandler(users *services.Users, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Profile GET /api/users/:id
func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), middleware.ViewerFrom(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
