package repository

import (
	"context"

	"github.com/google/uuid"
)

const findCartByUserId = `-- name: FindCartByUserId :one
SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

func (q *Queries) FindCartByUserId(ctx context.Context, userID string) (Cart, error) {
	row := q.db.QueryRow(ctx, findCartByUserId, userID)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const findCartById = `-- name: FindCartById :one
SELECT id, user_id, created_at, updated_at FROM carts WHERE id = $1`

func (q *Queries) FindCartById(ctx context.Context, id uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, findCartById, id)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const upsertCart = `-- name: UpsertCart :one
INSERT INTO carts (user_id) VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
RETURNING id, user_id, created_at, updated_at`

func (q *Queries) UpsertCart(ctx context.Context, userID string) (Cart, error) {
	row := q.db.QueryRow(ctx, upsertCart, userID)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const findCartItems = `-- name: FindCartItems :many
SELECT cart_id, key, product_id, quantity, position
FROM cart_items WHERE cart_id = $1 ORDER BY position`

func (q *Queries) FindCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, findCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartItem{}
	for rows.Next() {
		var i CartItem
		if err := rows.Scan(&i.CartID, &i.Key, &i.ProductID, &i.Quantity, &i.Position); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const incrementCartItem = `-- name: IncrementCartItem :one
INSERT INTO cart_items (cart_id, key, product_id, quantity) VALUES ($1, $2, $3, 1)
ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1
RETURNING cart_id, key, product_id, quantity, position`

type IncrementCartItemParams struct {
	CartID    uuid.UUID
	Key       string
	ProductID string
}

// IncrementCartItem inserts a line at quantity 1 or adds one to the line
// already holding the product. The key is only used for new lines.
func (q *Queries) IncrementCartItem(ctx context.Context, arg IncrementCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, incrementCartItem, arg.CartID, arg.Key, arg.ProductID)
	var i CartItem
	err := row.Scan(&i.CartID, &i.Key, &i.ProductID, &i.Quantity, &i.Position)
	return i, err
}

const setCartItemQuantity = `-- name: SetCartItemQuantity :execrows
UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND key = $2`

type SetCartItemQuantityParams struct {
	CartID   uuid.UUID
	Key      string
	Quantity int32
}

func (q *Queries) SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) (int64, error) {
	result, err := q.db.Exec(ctx, setCartItemQuantity, arg.CartID, arg.Key, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCartItem = `-- name: DeleteCartItem :execrows
DELETE FROM cart_items WHERE cart_id = $1 AND key = $2`

func (q *Queries) DeleteCartItem(ctx context.Context, cartID uuid.UUID, key string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCartItem, cartID, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const touchCart = `-- name: TouchCart :exec
UPDATE carts SET updated_at = now() WHERE id = $1`

func (q *Queries) TouchCart(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, touchCart, id)
	return err
}

const findCartLines = `-- name: FindCartLines :many
SELECT ci.key, ci.product_id, ci.quantity, p.id IS NOT NULL AS product_found,
	p.payments_product_id, p.name, p.description, p.slug, p.brand,
	pr.unit_amount, pr.currency, pr.payments_price_id, ia.url
FROM cart_items ci
LEFT JOIN products p ON p.id = ci.product_id AND p.active AND p.deleted_at IS NULL
LEFT JOIN prices pr ON pr.id = p.default_price_id AND pr.active AND pr.deleted_at IS NULL
LEFT JOIN image_assets ia ON ia.id = p.images -> 0 ->> 'assetId'
WHERE ci.cart_id = $1
ORDER BY ci.position`

func (q *Queries) FindCartLines(ctx context.Context, cartID uuid.UUID) ([]FindCartLinesRow, error) {
	rows, err := q.db.Query(ctx, findCartLines, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindCartLinesRow{}
	for rows.Next() {
		var i FindCartLinesRow
		if err := rows.Scan(
			&i.Key,
			&i.ProductID,
			&i.Quantity,
			&i.ProductFound,
			&i.PaymentsProductID,
			&i.Name,
			&i.Description,
			&i.Slug,
			&i.Brand,
			&i.UnitAmount,
			&i.Currency,
			&i.PaymentsPriceID,
			&i.ImageUrl,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
