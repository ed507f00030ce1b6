package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/ikusi/acta-ui/internal/api/http"
	"github.com/ikusi/acta-ui/internal/api/http/middleware"
	"github.com/ikusi/acta-ui/internal/api/http/routes"
	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/auth"
	"github.com/ikusi/acta-ui/internal/mockapi"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	Fixtures    *mockapi.Fixtures
	Routes      *apiclient.Routes
	Verifier    auth.Verifier
	SkipAuth    bool
}

func SetGinMode(env string) {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// BuildRouter assembles the offline backend.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if len(dep.CORSOrigins) > 0 {
		r.Use(corsMiddleware(dep.CORSOrigins))
	}

	health := r.Group("/", middleware.RequestIDMiddleware())
	httpapi.NewHealthHandler(dep.ServiceName, dep.Version).RegisterRoutes(health)

	routes.RegisterMock(r, routes.MockDeps{
		Fixtures: dep.Fixtures,
		Routes:   dep.Routes,
		Verifier: dep.Verifier,
		SkipAuth: dep.SkipAuth,
	})

	return r
}

// corsMiddleware must not be given an empty list: cors.New panics on it.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id",
			"X-Amz-Date", "X-Amz-Security-Token", "X-Amz-Content-Sha256",
		},
		ExposeHeaders:    []string{"X-Request-Id", "Location", "Last-Modified"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
