package ginserver

import (
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	listingapp "staybook/internal/app/handlers/listings"
	"staybook/internal/app/queries"
	"staybook/internal/domain/shared/daterange"
)

// ListingHandler wires the listing catalog to HTTP.
type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type listingRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	MaxGuests        int      `json:"max_guests"`
	Bedrooms         int      `json:"bedrooms"`
	Bathrooms        int      `json:"bathrooms"`
	Amenities        []string `json:"amenities"`
	Images           []string `json:"images"`
	Lat              float64  `json:"latitude"`
	Lon              float64  `json:"longitude"`
	NightlyRateCents int64    `json:"nightly_rate_cents"`
}

func (r listingRequest) input() listingapp.ListingInput {
	return listingapp.ListingInput{
		Title:            r.Title,
		Description:      r.Description,
		Location:         r.Location,
		GuestsLimit:      r.MaxGuests,
		Bedrooms:         r.Bedrooms,
		Bathrooms:        r.Bathrooms,
		Amenities:        r.Amenities,
		Images:           r.Images,
		Lat:              r.Lat,
		Lon:              r.Lon,
		NightlyRateCents: r.NightlyRateCents,
	}
}

// Catalog lists listings. When both check_in and check_out are present the
// result is narrowed to listings free for that whole range.
func (h ListingHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	checkInRaw := c.Query("check_in")
	checkOutRaw := c.Query("check_out")
	if checkInRaw != "" || checkOutRaw != "" {
		checkIn, err := daterange.ParseDate(checkInRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in date"})
			return
		}
		checkOut, err := daterange.ParseDate(checkOutRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out date"})
			return
		}
		query := listingapp.SearchAvailableQuery{
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			MinGuests:     parseInt(c.Query("min_guests")),
			LocationQuery: c.Query("location"),
		}
		result, err := queries.Ask[listingapp.SearchAvailableQuery, *dto.AvailableListingCollection](c.Request.Context(), h.Queries, query)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	query := listingapp.ListListingsQuery{
		MinGuests:     parseInt(c.Query("min_guests")),
		LocationQuery: c.Query("location"),
		Limit:         parseIntWithDefault(c.Query("limit"), 24),
		Offset:        parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[listingapp.ListListingsQuery, *dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	result, err := queries.Ask[listingapp.GetListingQuery, *dto.ListingSummary](c.Request.Context(), h.Queries, listingapp.GetListingQuery{ListingID: listingID})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.CreateListingCommand{HostID: user.ID, Input: req.input()}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *listingapp.CreateListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Update(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.UpdateListingCommand{ListingID: c.Param("id"), HostID: user.ID, Input: req.input()}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, *listingapp.UpdateListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Delete(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := listingapp.DeleteListingCommand{ListingID: c.Param("id"), HostID: user.ID}
	if _, err := commands.Dispatch[listingapp.DeleteListingCommand, *listingapp.DeleteListingResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) HostListings(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	result, err := queries.Ask[listingapp.HostListingsQuery, *dto.ListingCollection](c.Request.Context(), h.Queries, listingapp.HostListingsQuery{HostID: user.ID})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}

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
