package handlers

import (
	"net/http"

	"zugzwang/internal/middleware"
	"zugzwang/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BlockHandler struct {
	blocks *services.Blocks
	log    *zap.Logger
}

func NewBlockHandler(blocks *services.Blocks, log *zap.Logger) *BlockHandler {
	return &BlockHandler{blocks: blocks, log: log}
}

// Block POST /api/users/:id/block
func (h *BlockHandler) Block(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	v := middleware.ViewerFrom(c)
	if err := h.blocks.Block(c.Request.Context(), v, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondStatus(c, id)
}

// Unblock DELETE /api/users/:id/block
func (h *BlockHandler) Unblock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.blocks.Unblock(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondStatus(c, id)
}

// Status GET /api/users/:id/block
func (h *BlockHandler) Status(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.respondStatus(c, id)
}

func (h *BlockHandler) respondStatus(c *gin.Context, id uint) {
	st, err := h.blocks.Status(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Blocked GET /api/blocks
func (h *BlockHandler) Blocked(c *gin.Context) {
	users, err := h.blocks.Blocked(c.Request.Context(), middleware.ViewerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Blockers GET /api/blocks/blocked-by
func (h *BlockHandler) Blockers(c *gin.Context) {
	users, err := h.blocks.Blockers(c.Request.Context(), middleware.ViewerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
