package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"carwash-backend/internal/parse"
	"carwash-backend/internal/washbay"
)

type startWashRequest struct {
	PreWashByHand bool `json:"pre_wash_by_hand"`
	HandDry       bool `json:"hand_dry"`
	Waxing        bool `json:"waxing"`
}

// GetBay handles GET /api/bay.
func (h *Handler) GetBay(c *gin.Context) {
	c.JSON(http.StatusOK, h.bay.Status())
}

// StartWash handles POST /api/bay/wash. Extras come either from the JSON body
// or from an ?extras= list such as "prewash,dry,wax". An empty body, chunked or
// not, starts a plain wash.
func (h *Handler) StartWash(c *gin.Context) {
	var extras washbay.Extras
	if raw, ok := c.GetQuery("extras"); ok {
		parsed, err := parse.ParseExtras(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		extras = parsed
	} else if c.Request.Body != nil && c.Request.Body != http.NoBody {
		var req startWashRequest
		err := c.ShouldBindJSON(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		extras = washbay.Extras{PreWashByHand: req.PreWashByHand, HandDry: req.HandDry, Waxing: req.Waxing}
	}

	status, err := h.bay.Start(c.Request.Context(), extras)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, status)
	case errors.Is(err, washbay.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": washbay.ErrConflict.Error()})
	case errors.Is(err, washbay.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": washbay.ErrInvalidRequest.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// AdvanceWash handles POST /api/bay/advance. On an idle bay it answers with the unchanged status.
func (h *Handler) AdvanceWash(c *gin.Context) {
	status, err := h.bay.Advance(c.Request.Context())
	if err != nil {
		// the bay already moved on; report the booking problem without failing the step
		log.Printf("Advance completed with booking error: %v", err)
		c.Header("X-Booking-Error", "true")
	}
	c.JSON(http.StatusOK, status)
}

// ResetBay handles POST /api/bay/reset.
func (h *Handler) ResetBay(c *gin.Context) {
	c.JSON(http.StatusOK, h.bay.Reset(c.Request.Context()))
}
