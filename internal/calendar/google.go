package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"holiday-booking/internal/model"
)

// ErrEventNotFound is returned by GetEvent for unknown or cancelled events.
var ErrEventNotFound = errors.New("calendar: event not found")

const defaultTimeout = 10 * time.Second

// OAuthConfig returns the OAuth2 configuration for the property calendar, or
// nil when any of the credentials is missing.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gcal.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}

// Client is the full calendar surface used by the service.
type Client interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error)
	GetEvent(ctx context.Context, id string) (model.CalendarEvent, error)
	InsertEvent(ctx context.Context, d model.EventDetails) (string, error)
	UpdateEventColor(ctx context.Context, id string, color int) error
	UpdateEventDetails(ctx context.Context, id string, d model.EventDetails) error
	DeleteEvent(ctx context.Context, id string) error
}

var (
	_ Client = (*Google)(nil)
	_ Client = (*Memory)(nil)
)

// Google reads and writes events of one Google calendar. Every call is bounded
// by the client timeout.
type Google struct {
	srv        *gcal.Service
	calendarID string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewGoogle builds a client that authenticates with a stored refresh token.
func NewGoogle(ctx context.Context, cfg *oauth2.Config, refreshToken, calendarID string, timeout time.Duration, logger *slog.Logger) (*Google, error) {
	if cfg == nil || refreshToken == "" {
		return nil, errors.New("calendar: oauth credentials missing")
	}
	client := cfg.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return NewGoogleWithOptions(ctx, calendarID, timeout, logger, option.WithHTTPClient(client))
}

// NewGoogleWithOptions builds a client from raw API options.
func NewGoogleWithOptions(ctx context.Context, calendarID string, timeout time.Duration, logger *slog.Logger, opts ...option.ClientOption) (*Google, error) {
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Google{
		srv:        srv,
		calendarID: calendarID,
		timeout:    timeout,
		logger:     logger.With("component", "google_calendar"),
	}, nil
}

// ListEvents returns every non-cancelled event intersecting [from, to).
// Recurring events are expanded into single instances.
func (g *Google) ListEvents(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	call := g.srv.Events.List(g.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false).
		MaxResults(250).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339))

	var out []model.CalendarEvent
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			e, ok := g.toEvent(item)
			if ok {
				out = append(out, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (g *Google) GetEvent(ctx context.Context, id string) (model.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	item, err := g.srv.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return model.CalendarEvent{}, ErrEventNotFound
		}
		return model.CalendarEvent{}, fmt.Errorf("get event %s: %w", id, err)
	}
	e, ok := g.toEvent(item)
	if !ok {
		return model.CalendarEvent{}, ErrEventNotFound
	}
	return e, nil
}

// InsertEvent creates an all-day event and returns its id.
func (g *Google) InsertEvent(ctx context.Context, d model.EventDetails) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	created, err := g.srv.Events.Insert(g.calendarID, toGoogle(d)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

func (g *Google) UpdateEventColor(ctx context.Context, id string, color int) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	patch := &gcal.Event{ColorId: strconv.Itoa(color)}
	if _, err := g.srv.Events.Patch(g.calendarID, id, patch).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update color of event %s: %w", id, err)
	}
	return nil
}

func (g *Google) UpdateEventDetails(ctx context.Context, id string, d model.EventDetails) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if _, err := g.srv.Events.Patch(g.calendarID, id, toGoogle(d)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update event %s: %w", id, err)
	}
	return nil
}

// DeleteEvent removes an event. Deleting an event that is already gone succeeds.
func (g *Google) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := g.srv.Events.Delete(g.calendarID, id).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}

func (g *Google) toEvent(item *gcal.Event) (model.CalendarEvent, bool) {
	if item == nil || item.Status == "cancelled" || item.Start == nil || item.End == nil {
		return model.CalendarEvent{}, false
	}
	e := model.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		AllDay:      item.Start.DateTime == "",
	}
	var err error
	if e.Start, err = parseEventTime(item.Start); err != nil {
		g.logger.Warn("skipping event with unreadable start", "event_id", item.Id, "error", err)
		return model.CalendarEvent{}, false
	}
	if e.End, err = parseEventTime(item.End); err != nil {
		g.logger.Warn("skipping event with unreadable end", "event_id", item.Id, "error", err)
		return model.CalendarEvent{}, false
	}
	if item.ColorId != "" {
		if c, err := strconv.Atoi(item.ColorId); err == nil {
			e.Color = c
		}
	}
	return e, true
}

func parseEventTime(t *gcal.EventDateTime) (time.Time, error) {
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	return time.Parse(time.DateOnly, t.Date)
}

func toGoogle(d model.EventDetails) *gcal.Event {
	ev := &gcal.Event{
		Summary:     d.Summary,
		Description: d.Description,
	}
	if !d.Start.IsZero() {
		ev.Start = &gcal.EventDateTime{Date: d.Start.Format(time.DateOnly)}
	}
	if !d.End.IsZero() {
		ev.End = &gcal.EventDateTime{Date: d.End.Format(time.DateOnly)}
	}
	if d.Color != 0 {
		ev.ColorId = strconv.Itoa(d.Color)
	}
	return ev
}
