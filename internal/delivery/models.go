package delivery

import (
	"time"

	"github.com/kimiashop/orderflow/internal/errs"
)

type Code struct {
	ID         string
	OrderID    string
	Phone      string
	Code       string
	Active     bool
	Used       bool
	ExpiresAt  time.Time
	Courier    string
	Notes      string
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

// Check validates a submitted code against the stored record. Each failure
// mode is a distinct error kind/message so couriers get an actionable
// outcome instead of a generic rejection.
func (c Code) Check(submitted string, now time.Time) error {
	if !c.Active {
		return errs.New(errs.KindConflict, "delivery code inactive")
	}
	if c.Used {
		return errs.New(errs.KindConflict, "delivery code already used")
	}
	if now.After(c.ExpiresAt) {
		return errs.New(errs.KindExpired, "delivery code expired")
	}
	if c.Code != submitted {
		return errs.New(errs.KindValidation, "delivery code mismatch")
	}
	return nil
}
