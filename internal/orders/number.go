package orders

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// NewOrderNumber builds "ORD-<unix millis>-<4 digits>". Not globally unique
// by construction; the unique index on order_no turns the rare collision
// into a Conflict the client retries.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), rand.Intn(10_000))
}

var orderNoRe = regexp.MustCompile(`^ORD-\d{13}-\d{4}$`)

func ValidOrderNumber(no string) bool { return orderNoRe.MatchString(no) }
