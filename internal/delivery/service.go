package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	Insert(ctx context.Context, c Code) error
	GetActiveByOrder(ctx context.Context, orderID string) (Code, error)
	MarkUsed(ctx context.Context, id, courier, notes string) error
	Deactivate(ctx context.Context, orderID string) error
}

type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

type Service struct {
	Store  Store
	Sender Sender
	Log    zerolog.Logger

	now func() time.Time
}

func NewService(store Store, sender Sender, log zerolog.Logger) *Service {
	return &Service{Store: store, Sender: sender, Log: log, now: time.Now}
}

// Issue creates a fresh code for a dispatched order, retires earlier codes
// and texts the code to the recipient. The SMS failing does not void the
// code; the courier can still read it out of the back office.
func (s *Service) Issue(ctx context.Context, orderID, orderNo, phone string) (Code, error) {
	if err := s.Store.Deactivate(ctx, orderID); err != nil {
		return Code{}, err
	}
	c := Code{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Phone:     phone,
		Code:      GenerateCode(),
		Active:    true,
		ExpiresAt: EndOfDay(s.now()),
	}
	if err := s.Store.Insert(ctx, c); err != nil {
		return Code{}, err
	}

	text := fmt.Sprintf("Delivery code for order %s: %s", orderNo, c.Code)
	if err := s.Sender.Send(ctx, phone, text); err != nil {
		s.Log.Error().Err(err).Str("order_id", orderID).Msg("delivery code SMS failed")
	}
	return c, nil
}

// Verify consumes the order's active code. Outcomes are distinguishable by
// error kind: NotFound, Validation (mismatch), Conflict (used/inactive),
// Expired.
func (s *Service) Verify(ctx context.Context, orderID, submitted, courier, notes string) error {
	c, err := s.Store.GetActiveByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := c.Check(submitted, s.now()); err != nil {
		return err
	}
	return s.Store.MarkUsed(ctx, c.ID, courier, notes)
}
