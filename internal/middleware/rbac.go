package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequireRole lets the request through when the token role set by JWT is one
// of roles. Denials are logged with the caller's subject.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextKeyUserRole).(string)
			if role == "" {
				return reject(c, http.StatusForbidden, "missing role")
			}
			if !slices.Contains(roles, role) {
				LoggerFromContext(c).WithFields(logrus.Fields{
					"subject": c.Get(ContextKeyUserEmail),
					"role":    role,
				}).Warn("role not allowed")
				return reject(c, http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
