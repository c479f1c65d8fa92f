package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/sim"
)

type spawnGuestRequest struct {
	Class string `json:"class"`
}

// PostGuest handles POST /api/guests. An empty class lets the simulation
// roll one.
func (h *Handler) PostGuest(c *gin.Context) {
	var req spawnGuestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	guest, err := h.engine.SpawnGuest(sim.GuestClass(req.Class))
	if err != nil {
		abortSimError(c, err)
		return
	}
	c.JSON(http.StatusCreated, guest)
}

// PostRoom handles POST /api/rooms. It buys one more room.
func (h *Handler) PostRoom(c *gin.Context) {
	room, err := h.engine.AddRoom()
	if err != nil {
		abortSimError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// PostBellboy handles POST /api/staff/bellboy.
func (h *Handler) PostBellboy(c *gin.Context) {
	if err := h.engine.HireBellboy(); err != nil {
		abortSimError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// PostCleaner handles POST /api/staff/cleaners.
func (h *Handler) PostCleaner(c *gin.Context) {
	count, err := h.engine.HireCleaner()
	if err != nil {
		abortSimError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cleaners": count})
}

// PostClean handles POST /api/rooms/{room_id}/clean.
func (h *Handler) PostClean(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	if err := h.engine.RequestClean(roomID); err != nil {
		abortSimError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type selectItemRequest struct {
	Item string `json:"item" binding:"required"`
}

// PostSelectItem handles POST /api/menu/select.
func (h *Handler) PostSelectItem(c *gin.Context) {
	var req selectItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.SelectMenuItem(sim.ItemKind(req.Item)); err != nil {
		abortSimError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostDeliver handles POST /api/rooms/{room_id}/deliver.
func (h *Handler) PostDeliver(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	if err := h.engine.AttemptDelivery(roomID); err != nil {
		abortSimError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type earnRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// PostEarn handles POST /api/ledger/earn, the mini-game deposit.
func (h *Handler) PostEarn(c *gin.Context) {
	var req earnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.engine.Deposit(req.Amount)
	if err != nil {
		abortSimError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// PostReset handles POST /api/reset. It wipes both the live simulation and
// the persisted state; push subscriptions survive.
func (h *Handler) PostReset(c *gin.Context) {
	h.engine.ResetAll()
	if err := h.store.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
