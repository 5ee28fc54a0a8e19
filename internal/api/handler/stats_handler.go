package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lawvault/lawvault/internal/api/dto"
)

// GetStats handles GET /api/v1/stats and combines queue depth with archived
// document counts.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get queue stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get queue stats"})
		return
	}

	counts, err := h.archive.Counts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get archive counts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get archive counts"})
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		Queue:   stats,
		Archive: counts,
	})
}
