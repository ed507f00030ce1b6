package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxSubject = "auth_subject"
	CtxEmail   = "auth_email"
)

// UserSubject returns the sub claim set by the bearer middleware.
func UserSubject(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxSubject))
}

func UserEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxEmail))
}
