package driver

import "github.com/gin-gonic/gin"

// Identity is the authenticated driver as supplied by the auth middleware.
// Issuance (OTP/MPIN login) lives outside this service; by the time a
// request reaches a handler the identity has already been verified.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	RegNo       string `json:"reg_no"`
}

const ginKey = "driver_identity"

// Set stores the identity on the Gin context. Called by the auth middleware.
func Set(c *gin.Context, d Identity) {
	c.Set(ginKey, d)
}

// FromGin returns the identity placed by the auth middleware, if any.
func FromGin(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ginKey)
	if !ok {
		return Identity{}, false
	}
	d, ok := v.(Identity)
	return d, ok
}
