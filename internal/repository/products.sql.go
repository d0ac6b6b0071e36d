package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, payments_product_id, name, description, slug, brand, active, images,
	default_price_id, price_ids, pending_payments_price_id, deleted_at, last_writer, revision,
	created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.PaymentsProductID,
		&i.Name,
		&i.Description,
		&i.Slug,
		&i.Brand,
		&i.Active,
		&i.Images,
		&i.DefaultPriceID,
		&i.PriceIds,
		&i.PendingPaymentsPriceID,
		&i.DeletedAt,
		&i.LastWriter,
		&i.Revision,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		i, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findProductById = `-- name: FindProductById :one
SELECT ` + productColumns + ` FROM products WHERE id = $1`

func (q *Queries) FindProductById(ctx context.Context, id string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, findProductById, id))
}

const findProductByPaymentsId = `-- name: FindProductByPaymentsId :one
SELECT ` + productColumns + ` FROM products WHERE payments_product_id = $1`

func (q *Queries) FindProductByPaymentsId(ctx context.Context, paymentsProductID string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, findProductByPaymentsId, paymentsProductID))
}

const findProductsByPendingPrice = `-- name: FindProductsByPendingPrice :many
SELECT ` + productColumns + ` FROM products WHERE pending_payments_price_id = $1 ORDER BY id`

func (q *Queries) FindProductsByPendingPrice(ctx context.Context, paymentsPriceID string) ([]Product, error) {
	rows, err := q.db.Query(ctx, findProductsByPendingPrice, paymentsPriceID)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

const upsertProduct = `-- name: UpsertProduct :one
INSERT INTO products (
	id, payments_product_id, name, description, slug, brand, active, images,
	default_price_id, price_ids, pending_payments_price_id, deleted_at, last_writer
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
	payments_product_id = EXCLUDED.payments_product_id,
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	slug = EXCLUDED.slug,
	brand = EXCLUDED.brand,
	active = EXCLUDED.active,
	images = EXCLUDED.images,
	default_price_id = EXCLUDED.default_price_id,
	price_ids = EXCLUDED.price_ids,
	pending_payments_price_id = EXCLUDED.pending_payments_price_id,
	deleted_at = EXCLUDED.deleted_at,
	last_writer = EXCLUDED.last_writer,
	revision = products.revision + 1,
	updated_at = now()
RETURNING ` + productColumns

type UpsertProductParams struct {
	ID                     string
	PaymentsProductID      pgtype.Text
	Name                   string
	Description            string
	Slug                   string
	Brand                  string
	Active                 bool
	Images                 []byte
	DefaultPriceID         pgtype.Text
	PriceIds               []string
	PendingPaymentsPriceID pgtype.Text
	DeletedAt              pgtype.Timestamptz
	LastWriter             string
}

func (q *Queries) UpsertProduct(ctx context.Context, arg UpsertProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, upsertProduct,
		arg.ID,
		arg.PaymentsProductID,
		arg.Name,
		arg.Description,
		arg.Slug,
		arg.Brand,
		arg.Active,
		arg.Images,
		arg.DefaultPriceID,
		arg.PriceIds,
		arg.PendingPaymentsPriceID,
		arg.DeletedAt,
		arg.LastWriter,
	)
	return scanProduct(row)
}

const updateProductPaymentsId = `-- name: UpdateProductPaymentsId :one
UPDATE products
SET payments_product_id = $2, last_writer = $3, revision = revision + 1, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

type UpdateProductPaymentsIdParams struct {
	ID                string
	PaymentsProductID pgtype.Text
	LastWriter        string
}

func (q *Queries) UpdateProductPaymentsId(ctx context.Context, arg UpdateProductPaymentsIdParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProductPaymentsId, arg.ID, arg.PaymentsProductID, arg.LastWriter))
}

const updateProductPrices = `-- name: UpdateProductPrices :one
UPDATE products
SET default_price_id = $2,
	price_ids = $3,
	pending_payments_price_id = $4,
	last_writer = $5,
	revision = revision + 1,
	updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

type UpdateProductPricesParams struct {
	ID                     string
	DefaultPriceID         pgtype.Text
	PriceIds               []string
	PendingPaymentsPriceID pgtype.Text
	LastWriter             string
}

func (q *Queries) UpdateProductPrices(ctx context.Context, arg UpdateProductPricesParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProductPrices,
		arg.ID,
		arg.DefaultPriceID,
		arg.PriceIds,
		arg.PendingPaymentsPriceID,
		arg.LastWriter,
	)
	return scanProduct(row)
}

const softDeleteProduct = `-- name: SoftDeleteProduct :one
UPDATE products
SET active = FALSE,
	deleted_at = now(),
	last_writer = $2,
	revision = revision + 1,
	updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

func (q *Queries) SoftDeleteProduct(ctx context.Context, id string, lastWriter string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, softDeleteProduct, id, lastWriter))
}

const productViewColumns = `p.id, p.payments_product_id, p.name, p.description, p.slug, p.brand,
	pr.unit_amount, pr.currency, pr.payments_price_id, ia.url`

const productViewJoins = `
LEFT JOIN prices pr ON pr.id = p.default_price_id AND pr.deleted_at IS NULL
LEFT JOIN image_assets ia ON ia.id = p.images -> 0 ->> 'assetId'`

func scanProductView(row pgx.Row) (ProductViewRow, error) {
	var i ProductViewRow
	err := row.Scan(
		&i.ID,
		&i.PaymentsProductID,
		&i.Name,
		&i.Description,
		&i.Slug,
		&i.Brand,
		&i.UnitAmount,
		&i.Currency,
		&i.PaymentsPriceID,
		&i.ImageUrl,
	)
	return i, err
}

const findActiveProducts = `-- name: FindActiveProducts :many
SELECT ` + productViewColumns + `
FROM products p` + productViewJoins + `
WHERE p.active AND p.deleted_at IS NULL AND p.default_price_id IS NOT NULL
ORDER BY p.created_at DESC, p.id`

func (q *Queries) FindActiveProducts(ctx context.Context) ([]ProductViewRow, error) {
	rows, err := q.db.Query(ctx, findActiveProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProductViewRow{}
	for rows.Next() {
		i, err := scanProductView(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findProductViewBySlug = `-- name: FindProductViewBySlug :one
SELECT ` + productViewColumns + `
FROM products p` + productViewJoins + `
WHERE p.slug = $1 AND p.active AND p.deleted_at IS NULL
ORDER BY p.updated_at DESC
LIMIT 1`

func (q *Queries) FindProductViewBySlug(ctx context.Context, slug string) (ProductViewRow, error) {
	return scanProductView(q.db.QueryRow(ctx, findProductViewBySlug, slug))
}

const findProductViewById = `-- name: FindProductViewById :one
SELECT ` + productViewColumns + `
FROM products p` + productViewJoins + `
WHERE p.id = $1`

func (q *Queries) FindProductViewById(ctx context.Context, id string) (ProductViewRow, error) {
	return scanProductView(q.db.QueryRow(ctx, findProductViewById, id))
}
