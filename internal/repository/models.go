package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ImageAsset struct {
	ID        string
	AssetID   string
	Url       string
	CreatedAt pgtype.Timestamptz
}

type Product struct {
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
	Revision               int64
	CreatedAt              pgtype.Timestamptz
	UpdatedAt              pgtype.Timestamptz
}

type Price struct {
	ID              string
	PaymentsPriceID pgtype.Text
	UnitAmount      int64
	Currency        string
	ProductID       string
	Active          bool
	DeletedAt       pgtype.Timestamptz
	LastWriter      string
	Revision        int64
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type Cart struct {
	ID        uuid.UUID
	UserID    string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type CartItem struct {
	CartID    uuid.UUID
	Key       string
	ProductID string
	Quantity  int32
	Position  int64
}

type CheckoutSession struct {
	ID        string
	CartID    *uuid.UUID
	Status    string
	Url       string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// ProductViewRow is a product joined with its default price and the url of
// its first image.
type ProductViewRow struct {
	ID                string
	PaymentsProductID pgtype.Text
	Name              string
	Description       string
	Slug              string
	Brand             string
	UnitAmount        pgtype.Int8
	Currency          pgtype.Text
	PaymentsPriceID   pgtype.Text
	ImageUrl          pgtype.Text
}

type FindCartLinesRow struct {
	Key               string
	ProductID         string
	Quantity          int32
	ProductFound      bool
	PaymentsProductID pgtype.Text
	Name              pgtype.Text
	Description       pgtype.Text
	Slug              pgtype.Text
	Brand             pgtype.Text
	UnitAmount        pgtype.Int8
	Currency          pgtype.Text
	PaymentsPriceID   pgtype.Text
	ImageUrl          pgtype.Text
}
