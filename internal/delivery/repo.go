package delivery

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kimiashop/orderflow/internal/errs"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Insert(ctx context.Context, c Code) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO delivery_codes(id, order_id, phone, code, active, used, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.OrderID, c.Phone, c.Code, c.Active, c.Used, c.ExpiresAt)
	return err
}

// GetActiveByOrder returns the newest active code for an order.
func (r *Repo) GetActiveByOrder(ctx context.Context, orderID string) (Code, error) {
	var c Code
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, phone, code, active, used, expires_at, courier, notes, verified_at, created_at
		FROM delivery_codes
		WHERE order_id=$1 AND active
		ORDER BY created_at DESC LIMIT 1`, orderID).Scan(
		&c.ID, &c.OrderID, &c.Phone, &c.Code, &c.Active, &c.Used, &c.ExpiresAt,
		&c.Courier, &c.Notes, &c.VerifiedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Code{}, errs.New(errs.KindNotFound, "no delivery code for order")
	}
	if err != nil {
		return Code{}, err
	}
	return c, nil
}

// MarkUsed consumes the code exactly once: the conditional update loses the
// race for any second caller.
func (r *Repo) MarkUsed(ctx context.Context, id, courier, notes string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE delivery_codes
		SET used=TRUE, courier=$2, notes=$3, verified_at=now()
		WHERE id=$1 AND active AND NOT used`, id, courier, notes)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.New(errs.KindConflict, "delivery code already used")
	}
	return nil
}

// Deactivate retires earlier codes when a fresh one is issued.
func (r *Repo) Deactivate(ctx context.Context, orderID string) error {
	_, err := r.DB.Exec(ctx, `UPDATE delivery_codes SET active=FALSE WHERE order_id=$1 AND active`, orderID)
	return err
}
