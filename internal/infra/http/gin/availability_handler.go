package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"driveshare/internal/app/dto"
	availabilityapp "driveshare/internal/app/handlers/availability"
	"driveshare/internal/app/queries"
)

// AvailabilityHandler exposes the advisory availability read and the raw
// calendar. Neither response is a reservation guarantee.
type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	vehicleID := c.Param("id")
	start, ok := parseFlexibleTime(c.Query("start"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start query parameter is required"})
		return
	}
	end, ok := parseFlexibleTime(c.Query("end"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end query parameter is required"})
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityReport](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	query := availabilityapp.GetCalendarQuery{VehicleID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
