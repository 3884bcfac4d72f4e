package app

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"holiday-booking/internal/booking"
	"holiday-booking/internal/calendar"
	"holiday-booking/internal/model"
	"holiday-booking/internal/pricing"
)

// POST /api/requests
// Guest request gated by an access code.
func (a *App) CreateRequestHandler(c *gin.Context) {
	var payload guestRequestReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, v, err := a.Bookings.Request(c.Request.Context(), req)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if !v.Valid {
		respondValidation(c, v)
		return
	}
	c.JSON(http.StatusCreated, bookingResp{Booking: b, Validation: &v})
}

// GET /api/quote?start=YYYY-MM-DD&end=YYYY-MM-DD&family=true
func (a *App) QuoteHandler(c *gin.Context) {
	start, end, err := parseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	family, _ := strconv.ParseBool(c.DefaultQuery("family", "false"))
	ctx := c.Request.Context()

	v, err := a.Pricing.ValidateBookingDates(ctx, start, end, "")
	if err != nil {
		a.respondError(c, err)
		return
	}
	if v.Code == pricing.CodeInvalidRange {
		c.JSON(http.StatusBadRequest, quoteResp{Validation: v})
		return
	}
	q, err := a.Pricing.CalculatePrice(ctx, start, end, family)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResp{Quote: &q, Validation: v})
}

// GET /api/availability.ics
// Occupied ranges only, without guest data.
func (a *App) AvailabilityFeedHandler(c *gin.Context) {
	ctx := c.Request.Context()
	all, err := a.Bookings.List(ctx)
	if err != nil {
		a.respondError(c, err)
		return
	}
	var active []model.Booking
	for _, b := range all {
		if b.Status.Active() {
			active = append(active, b)
		}
	}
	active = booking.FilterContained(active)

	entries := make([]calendar.FeedEntry, 0, len(active))
	for _, b := range active {
		summary := "Booked"
		if b.Status == model.StatusPending {
			summary = "Reserved"
		}
		entries = append(entries, calendar.FeedEntry{
			UID:     b.ID + "@holiday-booking",
			Summary: summary,
			Start:   b.StartDate,
			End:     b.EndDate,
		})
	}

	var buf bytes.Buffer
	if err := calendar.WriteFeed(&buf, a.FeedName, entries, time.Now()); err != nil {
		a.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// GET /api/bookings?status=PENDING
func (a *App) ListBookingsHandler(c *gin.Context) {
	bookings, err := a.Bookings.List(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	if status := c.Query("status"); status != "" {
		filtered := bookings[:0]
		for _, b := range bookings {
			if string(b.Status) == status {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// GET /api/bookings/:id
func (a *App) GetBookingHandler(c *gin.Context) {
	b, err := a.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings
// Admin direct entry.
func (a *App) CreateBookingHandler(c *gin.Context) {
	var payload adminEntryReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := payload.toEntry()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, v, err := a.Bookings.CreateDirect(c.Request.Context(), Actor(c), entry)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if !v.Valid {
		respondValidation(c, v)
		return
	}
	c.JSON(http.StatusCreated, bookingResp{Booking: b, Validation: &v})
}

// PATCH /api/bookings/:id
func (a *App) EditBookingHandler(c *gin.Context) {
	var payload editBookingReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changes, err := payload.toChanges()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, v, err := a.Bookings.Edit(c.Request.Context(), Actor(c), c.Param("id"), changes)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if !v.Valid {
		respondValidation(c, v)
		return
	}
	c.JSON(http.StatusOK, bookingResp{Booking: b, Validation: &v})
}

// DELETE /api/bookings/:id
func (a *App) DeleteBookingHandler(c *gin.Context) {
	if err := a.Bookings.Delete(c.Request.Context(), Actor(c), c.Param("id")); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /api/bookings/:id/approve
func (a *App) ApproveBookingHandler(c *gin.Context) {
	a.transition(c, a.Bookings.Approve)
}

// POST /api/bookings/:id/reject
func (a *App) RejectBookingHandler(c *gin.Context) {
	a.transition(c, a.Bookings.Reject)
}

// POST /api/bookings/:id/cancel
func (a *App) CancelBookingHandler(c *gin.Context) {
	a.transition(c, a.Bookings.Cancel)
}

type transitionFunc func(ctx context.Context, actor, id string) (*model.Booking, error)

func (a *App) transition(c *gin.Context, fn transitionFunc) {
	b, err := fn(c.Request.Context(), Actor(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
