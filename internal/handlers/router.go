package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/middleware"
	"github.com/assistenteze/agro/internal/services"
	"github.com/assistenteze/agro/internal/validation"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Log         *logger.Logger
	Storage     Pinger
	Auth        services.AuthService
	Properties  services.PropertyService
	Wizards     services.WizardService
	Geocoder    services.Geocoder
	Env         string
	Driver      string
	CORSOrigins []string
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	router := gin.New()

	// Order matters: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	healthHandler := NewHealthHandler(cfg.Storage, cfg.Env, cfg.Driver)
	authHandler := NewAuthHandler(cfg.Auth)
	locationHandler := NewLocationHandler(cfg.Geocoder)
	propertyHandler := NewPropertyHandler(cfg.Properties)
	wizardHandler := NewWizardHandler(cfg.Wizards)

	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", healthHandler.Info)
		v1.POST("/auth/otp", authHandler.RequestCode)
		v1.POST("/auth/verify", authHandler.VerifyCode)

		authed := v1.Group("")
		authed.Use(middleware.RequireSession(cfg.Auth))
		{
			authed.GET("/auth/session", authHandler.Session)
			authed.POST("/auth/logout", authHandler.Logout)
			authed.GET("/profile", authHandler.Profile)
			authed.GET("/locations/cep/:cep", locationHandler.LookupCEP)

			properties := authed.Group("/properties")
			{
				properties.GET("", propertyHandler.List)
				properties.GET("/:id", propertyHandler.Get)
				properties.DELETE("/:id", propertyHandler.Delete)
			}

			wizards := authed.Group("/wizards")
			{
				wizards.POST("", wizardHandler.Start)
				wizards.GET("/:id", wizardHandler.Get)
				wizards.PUT("/:id/name", wizardHandler.SubmitName)
				wizards.PUT("/:id/location", wizardHandler.SubmitLocation)
				wizards.PUT("/:id/description", wizardHandler.SubmitDescription)
				wizards.PUT("/:id/geometry", wizardHandler.SubmitGeometry)
				wizards.POST("/:id/back", wizardHandler.Back)
				wizards.POST("/:id/confirm", wizardHandler.Confirm)
				wizards.DELETE("/:id", wizardHandler.Discard)
			}
		}
	}

	return router, nil
}
