package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikusi/acta-ui/internal/logging"
	"github.com/ikusi/acta-ui/internal/mockapi"
)

// FixtureHandler answers any request from a fixture set, rendering the
// same bodies the in-process mock returns.
type FixtureHandler struct {
	fixtures *mockapi.Fixtures
	now      func() time.Time
}

func NewFixtureHandler(fixtures *mockapi.Fixtures) *FixtureHandler {
	return &FixtureHandler{fixtures: fixtures, now: time.Now}
}

func (h *FixtureHandler) Serve(c *gin.Context) {
	method, path := c.Request.Method, c.Request.URL.Path
	fx, params, ok := h.fixtures.Match(method, path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("%s for %s %s", mockapi.ErrNoMock, method, path)})
		return
	}

	values := make(map[string]string, len(params))
	for k := range c.Request.URL.Query() {
		values[k] = c.Query(k)
	}
	for k, v := range params {
		values[k] = v
	}

	rendered, err := fx.Render(values, h.now())
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("serve_fixture", err, zap.String("path", path))
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	for k, vs := range rendered.Header {
		for _, v := range vs {
			c.Writer.Header().Add(k, v)
		}
	}
	c.Status(rendered.Status)
	if len(rendered.Body) > 0 {
		_, _ = c.Writer.Write(rendered.Body)
	}
}
