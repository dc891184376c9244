package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vigilops/ipsentry/internal/reputation"
)

// ReputationHandler exposes read-only reputation checks.
type ReputationHandler struct {
	gate *reputation.Gate
}

func NewReputationHandler(gate *reputation.Gate) *ReputationHandler {
	return &ReputationHandler{gate: gate}
}

// Check resolves the reputation of the address in the path. Query params:
// maxAgeDays bounds the oracle's report window, fresh=true bypasses the
// persistent tiers and the local cache.
func (h *ReputationHandler) Check(c *gin.Context) {
	address := c.Param("ip")

	maxAgeDays := 0
	if raw := c.Query("maxAgeDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxAgeDays must be a positive integer"})
			return
		}
		maxAgeDays = parsed
	}
	fresh := c.Query("fresh") == "true"

	result := h.gate.CheckReputation(c.Request.Context(), address, maxAgeDays, fresh)
	c.JSON(http.StatusOK, result)
}
