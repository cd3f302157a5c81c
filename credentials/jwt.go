package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromJWT reads the exp claim of a JWT without verifying its signature.
// The console never trusts the claim for authorization; it only uses it to
// drop credentials locally before the backend would reject them.
func ExpiryFromJWT(raw string) (time.Time, bool) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, &jwt.RegisteredClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
