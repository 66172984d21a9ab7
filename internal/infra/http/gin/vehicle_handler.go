package ginserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"driveshare/internal/app/dto"
	pricingapp "driveshare/internal/app/handlers/pricing"
	vehiclesapp "driveshare/internal/app/handlers/vehicles"
	"driveshare/internal/app/queries"
	domainvehicles "driveshare/internal/domain/vehicles"
)

// VehicleHandler wires vehicle catalog queries to HTTP.
type VehicleHandler struct {
	Queries queries.Bus
}

// Catalog responds with a filtered collection of active vehicles.
func (h VehicleHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vehicle handler unavailable"})
		return
	}
	from, _ := parseFlexibleTime(c.Query("available_from"))
	query := vehiclesapp.SearchCatalogQuery{
		Params: domainvehicles.SearchParams{
			City:          c.Query("city"),
			Country:       c.Query("country"),
			Classes:       splitCSV(c.Query("classes")),
			Tags:          splitCSV(c.Query("tags")),
			MinSeats:      parseInt(c.Query("min_seats")),
			PriceMinCents: parseInt64(c.Query("price_min_cents")),
			PriceMaxCents: parseInt64(c.Query("price_max_cents")),
			AvailableFrom: from,
			Sort:          domainvehicles.CatalogSort(c.Query("sort")),
			Limit:         parseIntWithDefault(c.Query("limit"), 24),
			Offset:        parseInt(c.Query("offset")),
		},
	}
	result, err := queries.Ask[vehiclesapp.SearchCatalogQuery, dto.VehicleCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h VehicleHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vehicle handler unavailable"})
		return
	}
	query := vehiclesapp.GetVehicleQuery{VehicleID: c.Param("id")}
	result, err := queries.Ask[vehiclesapp.GetVehicleQuery, dto.VehicleSummary](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote prices a prospective trip without touching the calendar.
func (h VehicleHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vehicle handler unavailable"})
		return
	}
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
	query := pricingapp.GetQuoteQuery{
		VehicleID: c.Param("id"),
		Start:     start,
		End:       end,
		Insurance: c.Query("insurance"),
	}
	result, err := queries.Ask[pricingapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ VehicleHTTP = VehicleHandler{}

func parseFlexibleTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

func parseInt64(raw string) int64 {
	value, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if value < 0 {
		return 0
	}
	return value
}
