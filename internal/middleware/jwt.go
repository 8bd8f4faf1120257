package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/admission-portal/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by utils.NewAccessToken and stores the user id and username in the
// context under "user_id" (int64) and "username".  Failures answer 401 with
// a {"detail": ...} body, the shape the admissions API uses.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Authentication credentials were not provided."})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "detail": "Given token not valid for any token type",
                    "code":   "token_not_valid",
                })
            }
            c.Set("user_id", claims.UserID)
            c.Set("username", claims.Username)
            return next(c)
        }
    }
}
