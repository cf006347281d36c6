package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/assistenteze/agro/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// HealthCheckTimeout bounds the storage ping in readiness checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	storage   Pinger
	startTime time.Time
	env       string
	driver    string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(storage Pinger, env, driver string) *HealthHandler {
	return &HealthHandler{
		storage:   storage,
		startTime: time.Now(),
		env:       env,
		driver:    driver,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Driver  string `json:"driver"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	StorageDriver string `json:"storageDriver"`
	Uptime        string `json:"uptime"`
}

// Health handles GET /health. It never checks dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready.
// Returns 503 when the storage backend does not answer a ping in time.
func (h *HealthHandler) Ready(c *gin.Context) {
	// Create context with timeout for the storage check
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	// Ping storage
	if err := h.storage.Ping(ctx); err != nil {
		// Log error with request context
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Storage health check failed", err, map[string]interface{}{
				"driver":  h.driver,
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:  "not_ready",
			Storage: "unavailable",
			Driver:  h.driver,
		})
		return
	}

	// Storage is healthy
	c.JSON(http.StatusOK, ReadyResponse{
		Status:  "ready",
		Storage: "available",
		Driver:  h.driver,
	})
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:       APIVersion,
		Environment:   h.env,
		StorageDriver: h.driver,
		Uptime:        formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
