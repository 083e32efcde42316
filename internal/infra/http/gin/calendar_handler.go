package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	"staybook/internal/app/queries"
	domainavailability "staybook/internal/domain/availability"
	"staybook/internal/domain/shared/daterange"
)

// CalendarHandler exposes the unavailability ledger over HTTP.
type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h CalendarHandler) Unavailable(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	query := calendarapp.UnavailabilityQuery{ListingID: c.Param("id"), Window: window}
	result, err := queries.Ask[calendarapp.UnavailabilityQuery, *dto.UnavailableDates](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockRequest struct {
	Date     string `json:"date"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Reason   string `json:"reason"`
}

// Block marks a single day (date) or a half-open range (check_in/check_out)
// as unavailable.
func (h CalendarHandler) Block(c *gin.Context) {
	if _, ok := requireRole(c, "host"); !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listingID := c.Param("id")

	if req.Date != "" {
		date, err := daterange.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		cmd := calendarapp.BlockDateCommand{ListingID: listingID, Date: date, Reason: req.Reason}
		result, err := commands.Dispatch[calendarapp.BlockDateCommand, *calendarapp.BlockDateResult](c.Request.Context(), h.Commands, cmd)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
		return
	}

	checkIn, err := daterange.ParseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in date"})
		return
	}
	checkOut, err := daterange.ParseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out date"})
		return
	}
	cmd := calendarapp.BlockRangeCommand{ListingID: listingID, CheckIn: checkIn, CheckOut: checkOut, Reason: req.Reason}
	result, err := commands.Dispatch[calendarapp.BlockRangeCommand, *calendarapp.BlockRangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h CalendarHandler) Unblock(c *gin.Context) {
	if _, ok := requireRole(c, "host"); !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	date, err := daterange.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	cmd := calendarapp.UnblockDateCommand{ListingID: c.Param("id"), Date: date}
	result, err := commands.Dispatch[calendarapp.UnblockDateCommand, *calendarapp.UnblockDateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type bulkRequest struct {
	ListingIDs []string `json:"listing_ids"`
	From       string   `json:"from"`
	To         string   `json:"to"`
}

func (h CalendarHandler) Bulk(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	window, ok := windowFromStrings(c, req.From, req.To)
	if !ok {
		return
	}
	query := calendarapp.BulkUnavailabilityQuery{ListingIDs: req.ListingIDs, Window: window}
	result, err := queries.Ask[calendarapp.BulkUnavailabilityQuery, *dto.BulkUnavailability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	checkIn, err := daterange.ParseDate(c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in date"})
		return
	}
	checkOut, err := daterange.ParseDate(c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out date"})
		return
	}
	query := calendarapp.CheckAvailabilityQuery{ListingID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[calendarapp.CheckAvailabilityQuery, *calendarapp.CheckAvailabilityResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Rebuild(c *gin.Context) {
	if _, ok := requireRole(c, "host"); !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := bookingapp.RebuildLedgerCommand{ListingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.RebuildLedgerCommand, *bookingapp.RebuildLedgerResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseWindow(c *gin.Context) (domainavailability.Window, bool) {
	return windowFromStrings(c, c.Query("from"), c.Query("to"))
}

func windowFromStrings(c *gin.Context, fromRaw, toRaw string) (domainavailability.Window, bool) {
	var window domainavailability.Window
	if fromRaw != "" {
		from, err := daterange.ParseDate(fromRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return window, false
		}
		window.From = from
	}
	if toRaw != "" {
		to, err := daterange.ParseDate(toRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return window, false
		}
		window.To = to
	}
	return window, true
}

var _ CalendarHTTP = CalendarHandler{}
