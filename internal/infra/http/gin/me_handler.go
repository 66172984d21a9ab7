package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"driveshare/internal/app/dto"
	bookingapp "driveshare/internal/app/handlers/booking"
	"driveshare/internal/app/queries"
)

type MeHandler struct {
	Queries queries.Bus
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListRenterBookingsQuery{RenterID: user}
	result, err := queries.Ask[bookingapp.ListRenterBookingsQuery, dto.RenterBookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
