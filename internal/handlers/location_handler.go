package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assistenteze/agro/internal/services"
	"github.com/assistenteze/agro/internal/validation"
)

// LocationHandler resolves postal codes.
type LocationHandler struct {
	geocoder services.Geocoder
}

// NewLocationHandler creates a new LocationHandler instance.
func NewLocationHandler(geocoder services.Geocoder) *LocationHandler {
	return &LocationHandler{geocoder: geocoder}
}

// LocationResponse is the result of a CEP lookup.
type LocationResponse struct {
	CEP  string `json:"cep"`
	City string `json:"city"`
}

// LookupCEP handles GET /api/v1/locations/cep/:cep.
func (h *LocationHandler) LookupCEP(c *gin.Context) {
	cep := c.Param("cep")
	if !validation.ValidCEP(cep) {
		respondError(c, services.ErrInvalidCEP, "")
		return
	}

	formatted := validation.FormatCEP(cep)
	city, err := h.geocoder.CityForCEP(c.Request.Context(), formatted)
	if err != nil {
		respondError(c, err, "Failed to look up CEP")
		return
	}

	c.JSON(http.StatusOK, LocationResponse{CEP: formatted, City: city})
}
