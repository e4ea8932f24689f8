package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carwash-backend/internal/store"
)

const maxListLimit = 500

// ListWashes handles GET /api/washes?limit=N.
func (h *Handler) ListWashes(c *gin.Context) {
	limit := store.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	washes, err := h.store.ListWashes(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve washes"})
		return
	}
	c.JSON(http.StatusOK, washes)
}

// GetRevenue handles GET /api/revenue with the total booked in the store.
func (h *Handler) GetRevenue(c *gin.Context) {
	total, err := h.store.TotalRevenue(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revenue": total.StringFixed(2)})
}
