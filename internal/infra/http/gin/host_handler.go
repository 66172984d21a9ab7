package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"driveshare/internal/app/commands"
	availabilityapp "driveshare/internal/app/handlers/availability"
)

// HostHandler covers manual calendar management by vehicle owners.
type HostHandler struct {
	Commands commands.Bus
}

type blockWindowRequest struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Reference string    `json:"reference"`
}

func (h HostHandler) Block(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req blockWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := availabilityapp.BlockWindowCommand{
		VehicleID:       c.Param("id"),
		HostID:          user,
		Start:           req.Start,
		End:             req.End,
		Reference:       req.Reference,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[availabilityapp.BlockWindowCommand, *availabilityapp.BlockWindowResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HostHandler) Unblock(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := availabilityapp.UnblockWindowCommand{
		VehicleID:       c.Param("id"),
		HostID:          user,
		Reference:       c.Param("ref"),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[availabilityapp.UnblockWindowCommand, *availabilityapp.UnblockWindowResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostHTTP = HostHandler{}
