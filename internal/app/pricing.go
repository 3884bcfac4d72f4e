package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"holiday-booking/internal/model"
)

// GET /api/pricing/phases
func (a *App) ListPhasesHandler(c *gin.Context) {
	phases, err := a.Phases.ListPhases(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	if phases == nil {
		phases = []model.PricingPhase{}
	}
	c.JSON(http.StatusOK, phases)
}

// POST /api/pricing/phases
func (a *App) CreatePhaseHandler(c *gin.Context) {
	var payload phaseReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := payload.toPhase("")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := a.Phases.CreatePhase(c.Request.Context(), Actor(c), p)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /api/pricing/phases/:id
func (a *App) UpdatePhaseHandler(c *gin.Context) {
	var payload phaseReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := payload.toPhase(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := a.Phases.UpdatePhase(c.Request.Context(), Actor(c), p)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/pricing/phases/:id
func (a *App) DeletePhaseHandler(c *gin.Context) {
	if err := a.Phases.DeletePhase(c.Request.Context(), Actor(c), c.Param("id")); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/pricing/settings
func (a *App) GetSettingsHandler(c *gin.Context) {
	s, err := a.Phases.Settings(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// PUT /api/pricing/settings
func (a *App) UpdateSettingsHandler(c *gin.Context) {
	var payload model.PricingSettings
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.Phases.UpdateSettings(c.Request.Context(), Actor(c), payload); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// POST /api/access-codes
// The plain code is only ever seen here; the store keeps its hash.
func (a *App) CreateAccessCodeHandler(c *gin.Context) {
	var payload accessCodeReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	code, err := a.Bookings.CreateAccessCode(c.Request.Context(), Actor(c), payload.Label, payload.Code, payload.FamilyRate)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}
