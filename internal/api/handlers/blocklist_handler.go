package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vigilops/ipsentry/internal/reputation"
	"github.com/vigilops/ipsentry/internal/services"
)

// BlocklistHandler manages the durable block list and the decision audit log.
type BlocklistHandler struct {
	gate  *reputation.Gate
	store *services.TierStoreService
}

func NewBlocklistHandler(gate *reputation.Gate, store *services.TierStoreService) *BlocklistHandler {
	return &BlocklistHandler{gate: gate, store: store}
}

// BlockRequest is the optional body for a block request.
type BlockRequest struct {
	Reason string `json:"reason"`
}

// Block runs check-and-block for the address in the path. The response is
// the enforcement decision; blocked=false with a reason is a normal outcome,
// not an error.
func (h *BlocklistHandler) Block(c *gin.Context) {
	var req BlockRequest
	_ = c.ShouldBindJSON(&req)

	decision := h.gate.CheckAndBlock(c.Request.Context(), c.Param("ip"), req.Reason)
	c.JSON(http.StatusOK, decision)
}

// List returns block list entries, newest first.
func (h *BlocklistHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.store.ListBlocked(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Unblock removes an address from the block list.
func (h *BlocklistHandler) Unblock(c *gin.Context) {
	address := reputation.Normalize(c.Param("ip"))
	if err := h.store.UnblockIP(c.Request.Context(), address, "manual unblock via API"); err != nil {
		if errors.Is(err, services.ErrNotBlocked) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address is not blocked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked", "ip": address})
}

// Decisions returns recent block/unblock decisions.
func (h *BlocklistHandler) Decisions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	decisions, err := h.store.ListDecisions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decisions)
}
