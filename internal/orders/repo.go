package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kimiashop/orderflow/internal/checkout"
	"github.com/kimiashop/orderflow/internal/errs"
)

type Repo struct{ DB *pgxpool.Pool }

// ConfirmCheckout turns a cached cart calculation into an order. One
// transaction covers the order row, its items and the showcase stock
// decrement, so a mid-loop failure rolls everything back.
//
// Idempotent on order_no: a replayed confirm returns the existing order.
func (r *Repo) ConfirmCheckout(ctx context.Context, calc checkout.Calculation) (o Order, existed bool, err error) {
	if existing, err := r.GetOrderByNo(ctx, calc.OrderNo); err == nil {
		return existing, true, nil
	} else if !errs.Is(err, errs.KindNotFound) {
		return Order{}, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock showcase rows in a stable order to avoid deadlock between
	// concurrent confirms touching the same products
	ids := make([]string, 0, len(calc.Items))
	for pid := range calc.Items {
		ids = append(ids, pid)
	}
	sort.Strings(ids)

	o = Order{
		ID:            uuid.NewString(),
		OrderNo:       calc.OrderNo,
		CustomerID:    calc.CustomerID,
		GuestName:     calc.GuestName,
		GuestPhone:    calc.GuestPhone,
		Status:        StatusConfirmed,
		SubtotalCents: calc.SubtotalCents,
		ShippingCents: calc.ShippingCents,
		VATCents:      calc.VATCents,
		DutiesCents:   calc.DutiesCents,
		TotalCents:    calc.TotalCents,
		PaymentMethod: calc.PaymentMethod,
		Address:       calc.Address,
		Notes:         calc.Notes,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_no, customer_id, guest_name, guest_phone, status,
		                   subtotal_cents, shipping_cents, vat_cents, duties_cents, total_cents,
		                   payment_method, ship_country, ship_city, ship_street, ship_postcode, notes)
		VALUES ($1,$2,NULLIF($3,'')::uuid,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		o.ID, o.OrderNo, o.CustomerID, o.GuestName, o.GuestPhone, string(o.Status),
		o.SubtotalCents, o.ShippingCents, o.VATCents, o.DutiesCents, o.TotalCents,
		o.PaymentMethod, o.Address.Country, o.Address.City, o.Address.Street, o.Address.Postcode, o.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Order{}, false, errs.Wrap(errs.KindConflict, "order number already taken", err)
		}
		return Order{}, false, err
	}

	note := fmt.Sprintf("order %s", o.OrderNo)
	for _, pid := range ids {
		qty := calc.Items[pid]

		var name, sku string
		var price int64
		var stock int
		err := tx.QueryRow(ctx, `
			SELECT name, sku, price_cents, stock FROM showcase_products
			WHERE id=$1 FOR UPDATE`, pid).Scan(&name, &sku, &price, &stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, false, errs.Newf(errs.KindNotFound, "product not found: %s", pid)
		}
		if err != nil {
			return Order{}, false, err
		}

		// clamp at zero; oversell is recorded in the audit note, the
		// checkout itself still goes through
		newStock := stock - qty
		if newStock < 0 {
			newStock = 0
		}
		if _, err := tx.Exec(ctx, `
			UPDATE showcase_products
			SET stock=$2, audit_note=$3, updated_at=now()
			WHERE id=$1`, pid, newStock, note); err != nil {
			return Order{}, false, err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, product_name, sku, qty, unit_price_cents, total_price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, pid, name, sku, qty, price, price*int64(qty)); err != nil {
			return Order{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, false, err
	}
	return o, false, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (Order, error) {
	return r.getOrder(ctx, `id=$1`, id)
}

func (r *Repo) GetOrderByNo(ctx context.Context, orderNo string) (Order, error) {
	return r.getOrder(ctx, `order_no=$1`, orderNo)
}

func (r *Repo) getOrder(ctx context.Context, where string, arg any) (Order, error) {
	var o Order
	var customerID *string
	var status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_no, customer_id, guest_name, guest_phone, status,
		       subtotal_cents, shipping_cents, vat_cents, duties_cents, total_cents,
		       payment_method, ship_country, ship_city, ship_street, ship_postcode,
		       notes, carrier, created_at, updated_at
		FROM orders WHERE `+where, arg).Scan(
		&o.ID, &o.OrderNo, &customerID, &o.GuestName, &o.GuestPhone, &status,
		&o.SubtotalCents, &o.ShippingCents, &o.VATCents, &o.DutiesCents, &o.TotalCents,
		&o.PaymentMethod, &o.Address.Country, &o.Address.City, &o.Address.Street, &o.Address.Postcode,
		&o.Notes, &o.Carrier, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, errs.New(errs.KindNotFound, "order not found")
	}
	if err != nil {
		return Order{}, err
	}
	if customerID != nil {
		o.CustomerID = *customerID
	}
	o.Status = Status(status)
	return o, nil
}

func (r *Repo) ListItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, sku, qty, unit_price_cents, total_price_cents
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.SKU,
			&it.Qty, &it.UnitPriceCents, &it.TotalPriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Transition moves an order to the next status, enforcing the transition
// table under a row lock. Carrier is only written for DISPATCHED.
func (r *Repo) Transition(ctx context.Context, orderID string, to Status, carrier string) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, errs.New(errs.KindNotFound, "order not found")
	}
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(Status(cur), to) {
		return Order{}, errs.Newf(errs.KindConflict, "cannot transition %s -> %s", cur, to)
	}

	if to == StatusDispatched && carrier != "" {
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, carrier=$3, updated_at=now() WHERE id=$1`,
			orderID, string(to), carrier)
	} else {
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
			orderID, string(to))
	}
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return r.GetOrder(ctx, orderID)
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
