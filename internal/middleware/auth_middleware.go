package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"fleetops/internal/driver"
	"fleetops/internal/shared/contextutil"
	"fleetops/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware verifies the token issued by the external identity
// service and places the driver identity on the context. Token issuance
// (OTP/MPIN exchange) is not handled here.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			code, msg := "INVALID_TOKEN", "Invalid token"
			if err != nil && strings.Contains(err.Error(), "expired") {
				code, msg = "TOKEN_EXPIRED", "Token has expired"
			}
			response.Error(c, http.StatusUnauthorized, code, msg, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token claims", nil)
			c.Abort()
			return
		}

		driverID, ok := claims["driver_id"].(string)
		if !ok || driverID == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Driver ID not found in token", nil)
			c.Abort()
			return
		}

		displayName, _ := claims["display_name"].(string)
		regNo, _ := claims["reg_no"].(string)

		driver.Set(c, driver.Identity{
			ID:          driverID,
			DisplayName: displayName,
			RegNo:       regNo,
		})
		c.Set("driver_id", driverID)

		ctx := contextutil.WithDriverID(c.Request.Context(), driverID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
