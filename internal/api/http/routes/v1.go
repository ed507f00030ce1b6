package routes

import (
	"github.com/gin-gonic/gin"

	httpapi "github.com/ikusi/acta-ui/internal/api/http"
	"github.com/ikusi/acta-ui/internal/api/http/middleware"
	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/auth"
	authmw "github.com/ikusi/acta-ui/internal/auth/middleware"
	"github.com/ikusi/acta-ui/internal/mockapi"
)

type MockDeps struct {
	Fixtures *mockapi.Fixtures
	Routes   *apiclient.Routes
	Verifier auth.Verifier
	SkipAuth bool
}

// RegisterMock serves every fixture route behind the gateway auth rules.
// Fixture paths carry {param} templates and overlapping exact paths, so
// they are matched by the fixture set rather than by the gin tree.
func RegisterMock(r *gin.Engine, dep MockDeps) {
	handlers := []gin.HandlerFunc{middleware.RequestIDMiddleware()}
	if !dep.SkipAuth {
		handlers = append(handlers, authmw.GatewayAuth(dep.Routes, dep.Verifier))
	}
	handlers = append(handlers, httpapi.NewFixtureHandler(dep.Fixtures).Serve)
	r.NoRoute(handlers...)
}
