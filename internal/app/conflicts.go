package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"holiday-booking/internal/model"
)

// GET /api/conflicts
func (a *App) ListConflictsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	conflicts, err := a.Conflicts.FindAllConflicts(ctx)
	if err != nil {
		a.respondError(c, err)
		return
	}
	ignored, err := a.Conflicts.ListIgnored(ctx)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if ignored == nil {
		ignored = []model.IgnoredConflict{}
	}
	c.JSON(http.StatusOK, conflictsResp{
		Conflicts: views(conflicts),
		Ignored:   ignored,
		Count:     len(conflicts),
	})
}

// POST /api/conflicts/ignore
func (a *App) IgnoreConflictHandler(c *gin.Context) {
	var payload ignoreReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.Conflicts.Ignore(c.Request.Context(), Actor(c), payload.Key, payload.Reason); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "key": payload.Key})
}

// DELETE /api/conflicts/ignore/:key
func (a *App) UnignoreConflictHandler(c *gin.Context) {
	key := c.Param("key")
	if err := a.Conflicts.Unignore(c.Request.Context(), Actor(c), key); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "key": key})
}

// POST /api/events/group
func (a *App) GroupEventsHandler(c *gin.Context) {
	var payload eventIDsReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	color, err := a.Grouper.Group(c.Request.Context(), Actor(c), payload.EventIDs)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"color": color})
}

// POST /api/events/ungroup
func (a *App) UngroupEventsHandler(c *gin.Context) {
	var payload eventIDsReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	colors, err := a.Grouper.Ungroup(c.Request.Context(), Actor(c), payload.EventIDs)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"colors": colors})
}

// POST /api/events/:id/check
// Re-checks one calendar event, e.g. after it was edited in the calendar.
func (a *App) CheckEventHandler(c *gin.Context) {
	conflicts, err := a.Conflicts.CheckAndNotifyConflictsForCalendarEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": views(conflicts), "count": len(conflicts)})
}
