package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/model"
)

// GetStatus handles GET /api/status: the full live simulation snapshot.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

// GetMenu handles GET /api/menu.
func (h *Handler) GetMenu(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Menu())
}

// stayResponse is the flattened structure for one archived stay.
type stayResponse struct {
	GuestID        int64     `json:"guest_id"`
	RoomID         int       `json:"room_id"`
	Class          string    `json:"class"`
	CheckIn        time.Time `json:"check_in"`
	CheckOut       time.Time `json:"check_out"`
	Payout         int64     `json:"payout"`
	Angry          bool      `json:"angry"`
	RequestsServed int       `json:"requests_served"`
	RequestsMissed int       `json:"requests_missed"`
}

// GetHistory handles GET /api/history, newest stays first.
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	stays, err := h.store.RecentStays(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	response := make([]stayResponse, 0, len(stays))
	for _, rec := range stays {
		response = append(response, stayFromModel(rec))
	}
	c.JSON(http.StatusOK, response)
}

func stayFromModel(rec model.StayRecord) stayResponse {
	return stayResponse{
		GuestID:        rec.GuestID,
		RoomID:         rec.RoomID,
		Class:          rec.Class,
		CheckIn:        rec.CheckIn,
		CheckOut:       rec.CheckOut,
		Payout:         rec.Payout,
		Angry:          rec.Angry,
		RequestsServed: rec.RequestsServed,
		RequestsMissed: rec.RequestsMissed,
	}
}
