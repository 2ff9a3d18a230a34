package delivery

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateCode returns a 4-digit verification code ("0000".."9999").
func GenerateCode() string {
	return fmt.Sprintf("%04d", rand.Intn(10_000))
}

// EndOfDay is the expiry used for delivery codes: local midnight after now.
func EndOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, now.Location())
}
