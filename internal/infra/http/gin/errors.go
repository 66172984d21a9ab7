package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"driveshare/internal/app/dto"
	availabilityapp "driveshare/internal/app/handlers/availability"
	bookingapp "driveshare/internal/app/handlers/booking"
	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	domainpricing "driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

// writeError maps domain rejections onto HTTP statuses. Conflicts are 409
// so clients can distinguish "someone else got the window" from their own
// bad input; transport failures surface as 502 because the commit outcome
// is unknown and the client must reconcile before retrying.
func writeError(c *gin.Context, err error) {
	var conflict *domainavailability.ConflictError
	if errors.As(err, &conflict) {
		status := http.StatusConflict
		if conflict.Kind == domainavailability.ConflictInvalidDates {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error":     conflict.Error(),
			"kind":      string(conflict.Kind),
			"conflicts": dto.MapConflicts(conflict.Conflicts),
		})
		return
	}
	var transport *domainavailability.TransportError
	if errors.As(err, &transport) {
		c.JSON(http.StatusBadGateway, gin.H{"error": transport.Error(), "outcome": "unknown"})
		return
	}
	switch {
	case errors.Is(err, domainvehicles.ErrVehicleNotFound),
		errors.Is(err, domainbooking.ErrReservationNotFound),
		errors.Is(err, domainavailability.ErrRangeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bookingapp.ErrNotReservationOwner),
		errors.Is(err, availabilityapp.ErrNotVehicleHost):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, bookingapp.ErrVehicleUnavailable),
		errors.Is(err, domainavailability.ErrOverlappingRange),
		errors.Is(err, domainbooking.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainpricing.ErrInvalidFormat),
		errors.Is(err, timewindow.ErrZeroBound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainpricing.ErrEndBeforeStart),
		errors.Is(err, domainpricing.ErrInvalidRange),
		errors.Is(err, timewindow.ErrEndNotAfterStart),
		errors.Is(err, domainavailability.ErrMinimumDuration),
		errors.Is(err, domainbooking.ErrTripStartsInPast):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// requireUser resolves the calling identity. Authentication proper is
// delegated to the edge proxy; the service trusts the forwarded header.
func requireUser(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user identity required"})
		return "", false
	}
	return id, true
}
