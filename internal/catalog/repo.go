package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kimiashop/orderflow/internal/barcode"
	"github.com/kimiashop/orderflow/internal/errs"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ListShowcase(ctx context.Context) ([]ShowcaseProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, sku, name, COALESCE(barcode,''), stock, price_cents, visible, audit_note, created_at, updated_at
		FROM showcase_products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShowcaseProduct
	for rows.Next() {
		var p ShowcaseProduct
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Barcode, &p.Stock, &p.PriceCents,
			&p.Visible, &p.AuditNote, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListShop(ctx context.Context) ([]ShopProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT sp.product_id, p.name, sp.stock, sp.price_cents, sp.updated_at
		FROM shop_products sp
		JOIN showcase_products p ON p.id = sp.product_id
		WHERE p.visible
		ORDER BY p.sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShopProduct
	for rows.Next() {
		var p ShopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Stock, &p.PriceCents, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Prices returns price_cents for each requested product id. Missing ids are
// simply absent from the result; callers decide whether that is an error.
func (r *Repo) Prices(ctx context.Context, ids []string) (map[string]int64, error) {
	if len(ids) == 0 {
		return map[string]int64{}, nil
	}
	args := make([]any, 0, len(ids))
	params := ""
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `SELECT id, price_cents FROM showcase_products WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var id string
		var price int64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		out[id] = price
	}
	return out, rows.Err()
}

// ProjectStock copies the showcase stock and price for one product into its
// shop row, creating the row if missing. It returns the projected stock and
// the shop value seen before the overwrite so callers can log divergence.
func (r *Repo) ProjectStock(ctx context.Context, productID string) (stock, prevStock int, existed bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var price int64
	err = tx.QueryRow(ctx, `SELECT stock, price_cents FROM showcase_products WHERE id=$1`, productID).
		Scan(&stock, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, false, errs.Newf(errs.KindNotFound, "showcase product not found: %s", productID)
	}
	if err != nil {
		return 0, 0, false, err
	}

	err = tx.QueryRow(ctx, `SELECT stock FROM shop_products WHERE product_id=$1 FOR UPDATE`, productID).
		Scan(&prevStock)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		existed = false
	case err != nil:
		return 0, 0, false, err
	default:
		existed = true
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO shop_products(product_id, stock, price_cents, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (product_id) DO UPDATE SET stock=$2, price_cents=$3, updated_at=now()`,
		productID, stock, price); err != nil {
		return 0, 0, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, false, err
	}
	return stock, prevStock, existed, nil
}

// AssignBarcode gives a showcase product its EAN-13 code.
func (r *Repo) AssignBarcode(ctx context.Context, productID string, article int) (string, error) {
	code, err := barcode.EAN13(article)
	if err != nil {
		return "", err
	}
	ct, err := r.DB.Exec(ctx, `UPDATE showcase_products SET barcode=$2, updated_at=now() WHERE id=$1`,
		productID, code)
	if err != nil {
		return "", err
	}
	if ct.RowsAffected() == 0 {
		return "", errs.Newf(errs.KindNotFound, "showcase product not found: %s", productID)
	}
	return code, nil
}
