package middleware

// identity.go holds helpers shared across middleware files.

import "github.com/labstack/echo/v4"

// subject returns the token subject stored by JWTAuth, or "anon" when the
// request is not authenticated.
func subject(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
