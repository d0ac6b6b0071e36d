package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const priceColumns = `id, payments_price_id, unit_amount, currency, product_id, active, deleted_at,
	last_writer, revision, created_at, updated_at`

func scanPrice(row pgx.Row) (Price, error) {
	var i Price
	err := row.Scan(
		&i.ID,
		&i.PaymentsPriceID,
		&i.UnitAmount,
		&i.Currency,
		&i.ProductID,
		&i.Active,
		&i.DeletedAt,
		&i.LastWriter,
		&i.Revision,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findPriceById = `-- name: FindPriceById :one
SELECT ` + priceColumns + ` FROM prices WHERE id = $1`

func (q *Queries) FindPriceById(ctx context.Context, id string) (Price, error) {
	return scanPrice(q.db.QueryRow(ctx, findPriceById, id))
}

const findPriceByPaymentsId = `-- name: FindPriceByPaymentsId :one
SELECT ` + priceColumns + ` FROM prices WHERE payments_price_id = $1`

func (q *Queries) FindPriceByPaymentsId(ctx context.Context, paymentsPriceID string) (Price, error) {
	return scanPrice(q.db.QueryRow(ctx, findPriceByPaymentsId, paymentsPriceID))
}

const upsertPrice = `-- name: UpsertPrice :one
INSERT INTO prices (
	id, payments_price_id, unit_amount, currency, product_id, active, deleted_at, last_writer
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	payments_price_id = EXCLUDED.payments_price_id,
	unit_amount = EXCLUDED.unit_amount,
	currency = EXCLUDED.currency,
	product_id = EXCLUDED.product_id,
	active = EXCLUDED.active,
	deleted_at = EXCLUDED.deleted_at,
	last_writer = EXCLUDED.last_writer,
	revision = prices.revision + 1,
	updated_at = now()
RETURNING ` + priceColumns

type UpsertPriceParams struct {
	ID              string
	PaymentsPriceID pgtype.Text
	UnitAmount      int64
	Currency        string
	ProductID       string
	Active          bool
	DeletedAt       pgtype.Timestamptz
	LastWriter      string
}

func (q *Queries) UpsertPrice(ctx context.Context, arg UpsertPriceParams) (Price, error) {
	row := q.db.QueryRow(ctx, upsertPrice,
		arg.ID,
		arg.PaymentsPriceID,
		arg.UnitAmount,
		arg.Currency,
		arg.ProductID,
		arg.Active,
		arg.DeletedAt,
		arg.LastWriter,
	)
	return scanPrice(row)
}

const updatePricePaymentsId = `-- name: UpdatePricePaymentsId :one
UPDATE prices
SET payments_price_id = $2, last_writer = $3, revision = revision + 1, updated_at = now()
WHERE id = $1
RETURNING ` + priceColumns

type UpdatePricePaymentsIdParams struct {
	ID              string
	PaymentsPriceID pgtype.Text
	LastWriter      string
}

func (q *Queries) UpdatePricePaymentsId(ctx context.Context, arg UpdatePricePaymentsIdParams) (Price, error) {
	return scanPrice(q.db.QueryRow(ctx, updatePricePaymentsId, arg.ID, arg.PaymentsPriceID, arg.LastWriter))
}

const softDeletePrice = `-- name: SoftDeletePrice :one
UPDATE prices
SET active = FALSE,
	deleted_at = now(),
	last_writer = $2,
	revision = revision + 1,
	updated_at = now()
WHERE id = $1
RETURNING ` + priceColumns

func (q *Queries) SoftDeletePrice(ctx context.Context, id string, lastWriter string) (Price, error) {
	return scanPrice(q.db.QueryRow(ctx, softDeletePrice, id, lastWriter))
}
