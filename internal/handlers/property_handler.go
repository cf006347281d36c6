package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/assistenteze/agro/internal/geo"
	"github.com/assistenteze/agro/internal/middleware"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/services"
)

// Dates are displayed in Brasília time, which has no daylight saving.
var brasilia = time.FixedZone("BRT", -3*60*60)

// PropertyHandler handles saved property endpoints.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// PropertyData is a property plus its display fields.
type PropertyData struct {
	CreatedAt        time.Time       `json:"createdAt"`
	Geometry         *models.Polygon `json:"geometry"`
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	CEP              string          `json:"cep,omitempty"`
	City             string          `json:"city"`
	Description      string          `json:"description,omitempty"`
	AreaDisplay      string          `json:"areaDisplay"`
	CreatedAtDisplay string          `json:"createdAtDisplay"`
	AreaSquareMeters float64         `json:"areaSquareMeters"`
	VertexCount      int             `json:"vertexCount"`
}

// PropertyListResponse represents the response for the list endpoint.
type PropertyListResponse struct {
	Properties []PropertyData `json:"properties"`
	Count      int            `json:"count"`
}

// PropertyResponse represents the response for single-property endpoints.
type PropertyResponse struct {
	Property PropertyData `json:"property"`
}

func toPropertyData(p models.Property) PropertyData {
	data := PropertyData{
		ID:               p.ID,
		Name:             p.Name,
		CEP:              p.CEP,
		City:             p.City,
		Description:      p.Description,
		Geometry:         p.Geometry,
		AreaSquareMeters: p.Area(),
		AreaDisplay:      geo.FormatArea(p.Area()),
		CreatedAt:        p.CreatedAt,
		CreatedAtDisplay: p.CreatedAt.In(brasilia).Format("02/01/2006"),
	}
	if p.Geometry != nil {
		data.VertexCount = geo.VertexCount(p.Geometry.Ring())
	}
	return data
}

// List handles GET /api/v1/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.service.ListForOwner(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err, "Failed to list properties")
		return
	}

	data := make([]PropertyData, 0, len(properties))
	for _, p := range properties {
		data = append(data, toPropertyData(p))
	}

	c.JSON(http.StatusOK, PropertyListResponse{
		Properties: data,
		Count:      len(data),
	})
}

// Get handles GET /api/v1/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	property, err := h.service.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load property")
		return
	}
	c.JSON(http.StatusOK, PropertyResponse{Property: toPropertyData(*property)})
}

// Delete handles DELETE /api/v1/properties/:id.
func (h *PropertyHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), ownerID(c), id); err != nil {
		respondError(c, err, "Failed to delete property")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Property removed", map[string]interface{}{"property_id": id})
	}
	c.Status(http.StatusNoContent)
}
