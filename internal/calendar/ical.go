package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/emersion/go-ical"
)

const feedProductID = "-//holiday-booking//availability//EN"

// FeedEntry is one occupied range in the public availability feed. It carries
// no guest data.
type FeedEntry struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// WriteFeed encodes entries as an iCalendar document of all-day events.
func WriteFeed(w io.Writer, name string, entries []FeedEntry, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, feedProductID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	for _, e := range entries {
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, e.UID)
		ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		ev.Props.SetDate(ical.PropDateTimeStart, e.Start)
		ev.Props.SetDate(ical.PropDateTimeEnd, e.End)
		ev.Props.SetText(ical.PropSummary, e.Summary)
		ev.Props.SetText(ical.PropTransparency, "OPAQUE")
		cal.Children = append(cal.Children, ev.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode availability feed: %w", err)
	}
	return nil
}
