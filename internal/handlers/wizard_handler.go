package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/assistenteze/agro/internal/geo"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/services"
	"github.com/assistenteze/agro/internal/wizard"
)

// WizardHandler handles the property creation wizard endpoints.
type WizardHandler struct {
	service services.WizardService
}

// NewWizardHandler creates a new WizardHandler instance.
func NewWizardHandler(service services.WizardService) *WizardHandler {
	return &WizardHandler{service: service}
}

// NameRequest is the step 1 body.
type NameRequest struct {
	Name string `json:"name"`
}

// LocationRequest is the step 2 body. One of CEP or City is required.
type LocationRequest struct {
	CEP  string `json:"cep"`
	City string `json:"city"`
}

// DescriptionRequest is the step 3 body.
type DescriptionRequest struct {
	Description string `json:"description"`
}

// GeometryRequest is the step 4 body: a GeoJSON polygon, or useSample to
// draw the sample area.
type GeometryRequest struct {
	Geometry  *models.Polygon `json:"geometry"`
	UseSample bool            `json:"useSample"`
}

// WizardData is the client view of a wizard.
type WizardData struct {
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Draft       wizard.Draft `json:"draft"`
	ID          string       `json:"id"`
	State       wizard.State `json:"state"`
	Progress    string       `json:"progress"`
	AreaDisplay string       `json:"areaDisplay,omitempty"`
	Step        int          `json:"step"`
	TotalSteps  int          `json:"totalSteps"`
}

// WizardResponse wraps a wizard, plus the saved property after confirm.
type WizardResponse struct {
	Property *PropertyData `json:"property,omitempty"`
	Wizard   WizardData    `json:"wizard"`
}

func toWizardData(w *wizard.Wizard) WizardData {
	data := WizardData{
		ID:         w.ID,
		State:      w.State,
		Step:       w.State.Step(),
		TotalSteps: wizard.TotalSteps,
		Progress:   w.State.Progress(),
		Draft:      w.Draft,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
	if w.Draft.AreaSquareMeters != nil {
		data.AreaDisplay = geo.FormatArea(*w.Draft.AreaSquareMeters)
	}
	return data
}

func (h *WizardHandler) respond(c *gin.Context, status int, w *wizard.Wizard, err error) {
	if err != nil {
		respondError(c, err, "Failed to update wizard")
		return
	}
	c.JSON(status, WizardResponse{Wizard: toWizardData(w)})
}

// Start handles POST /api/v1/wizards.
func (h *WizardHandler) Start(c *gin.Context) {
	w, err := h.service.Start(c.Request.Context(), ownerID(c))
	h.respond(c, http.StatusCreated, w, err)
}

// Get handles GET /api/v1/wizards/:id.
func (h *WizardHandler) Get(c *gin.Context) {
	w, err := h.service.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	h.respond(c, http.StatusOK, w, err)
}

// SubmitName handles PUT /api/v1/wizards/:id/name.
func (h *WizardHandler) SubmitName(c *gin.Context) {
	var req NameRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.service.SubmitName(c.Request.Context(), ownerID(c), c.Param("id"), req.Name)
	h.respond(c, http.StatusOK, w, err)
}

// SubmitLocation handles PUT /api/v1/wizards/:id/location.
func (h *WizardHandler) SubmitLocation(c *gin.Context) {
	var req LocationRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.service.SubmitLocation(c.Request.Context(), ownerID(c), c.Param("id"), req.CEP, req.City)
	h.respond(c, http.StatusOK, w, err)
}

// SubmitDescription handles PUT /api/v1/wizards/:id/description.
func (h *WizardHandler) SubmitDescription(c *gin.Context) {
	var req DescriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.service.SubmitDescription(c.Request.Context(), ownerID(c), c.Param("id"), req.Description)
	h.respond(c, http.StatusOK, w, err)
}

// SubmitGeometry handles PUT /api/v1/wizards/:id/geometry.
func (h *WizardHandler) SubmitGeometry(c *gin.Context) {
	var req GeometryRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.GeometryInput{UseSample: req.UseSample}
	if req.Geometry != nil {
		input.Ring = req.Geometry.Ring()
	}
	w, err := h.service.SubmitGeometry(c.Request.Context(), ownerID(c), c.Param("id"), input)
	h.respond(c, http.StatusOK, w, err)
}

// Back handles POST /api/v1/wizards/:id/back.
func (h *WizardHandler) Back(c *gin.Context) {
	w, err := h.service.Back(c.Request.Context(), ownerID(c), c.Param("id"))
	h.respond(c, http.StatusOK, w, err)
}

// Confirm handles POST /api/v1/wizards/:id/confirm.
func (h *WizardHandler) Confirm(c *gin.Context) {
	w, property, err := h.service.Confirm(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Não foi possível salvar a propriedade")
		return
	}

	data := toPropertyData(*property)
	c.JSON(http.StatusCreated, WizardResponse{
		Wizard:   toWizardData(w),
		Property: &data,
	})
}

// Discard handles DELETE /api/v1/wizards/:id.
func (h *WizardHandler) Discard(c *gin.Context) {
	if err := h.service.Discard(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to discard wizard")
		return
	}
	c.Status(http.StatusNoContent)
}
