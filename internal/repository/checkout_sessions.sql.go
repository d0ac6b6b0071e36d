package repository

import (
	"context"

	"github.com/google/uuid"
)

const insertCheckoutSession = `-- name: InsertCheckoutSession :one
INSERT INTO checkout_sessions (id, cart_id, status, url) VALUES ($1, $2, $3, $4)
RETURNING id, cart_id, status, url, created_at, updated_at`

type InsertCheckoutSessionParams struct {
	ID     string
	CartID *uuid.UUID
	Status string
	Url    string
}

func (q *Queries) InsertCheckoutSession(ctx context.Context, arg InsertCheckoutSessionParams) (CheckoutSession, error) {
	row := q.db.QueryRow(ctx, insertCheckoutSession, arg.ID, arg.CartID, arg.Status, arg.Url)
	var i CheckoutSession
	err := row.Scan(&i.ID, &i.CartID, &i.Status, &i.Url, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const findCheckoutSessionById = `-- name: FindCheckoutSessionById :one
SELECT id, cart_id, status, url, created_at, updated_at FROM checkout_sessions WHERE id = $1`

func (q *Queries) FindCheckoutSessionById(ctx context.Context, id string) (CheckoutSession, error) {
	row := q.db.QueryRow(ctx, findCheckoutSessionById, id)
	var i CheckoutSession
	err := row.Scan(&i.ID, &i.CartID, &i.Status, &i.Url, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateCheckoutSessionStatus = `-- name: UpdateCheckoutSessionStatus :execrows
UPDATE checkout_sessions SET status = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateCheckoutSessionStatus(ctx context.Context, id string, status string) (int64, error) {
	result, err := q.db.Exec(ctx, updateCheckoutSessionStatus, id, status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
