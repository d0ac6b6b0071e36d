package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alturino/commercesync/internal/common/validate"
	inErrors "github.com/Alturino/commercesync/internal/errors"
)

// ExpandableID is a reference the payments provider sends either as a bare
// id or as the expanded object.
type ExpandableID string

func (e *ExpandableID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*e = ExpandableID(id)
		return nil
	}
	var object struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}
	*e = ExpandableID(object.ID)
	return nil
}

type PaymentsProduct struct {
	ID           string            `json:"id"            validate:"required,notblank"`
	Name         string            `json:"name"          validate:"required,notblank"`
	Description  string            `json:"description"`
	Images       []string          `json:"images"        validate:"dive,required"`
	Active       bool              `json:"active"`
	DefaultPrice ExpandableID      `json:"default_price"`
	Metadata     map[string]string `json:"metadata"`
}

type PaymentsPrice struct {
	ID         string            `json:"id"          validate:"required,notblank"`
	Product    ExpandableID      `json:"product"     validate:"required,notblank"`
	UnitAmount *int64            `json:"unit_amount" validate:"required,gte=0"`
	Currency   string            `json:"currency"    validate:"required,currency"`
	Active     bool              `json:"active"`
	Metadata   map[string]string `json:"metadata"`
}

// PaymentsDeleted is the part of a deleted product or price the sync needs.
type PaymentsDeleted struct {
	ID       string            `json:"id"       validate:"required,notblank"`
	Product  ExpandableID      `json:"product"`
	Metadata map[string]string `json:"metadata"`
}

type PaymentsCheckoutSession struct {
	ID            string            `json:"id"             validate:"required,notblank"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// Decode unmarshals raw into T and validates it. Both failures wrap
// errors.ErrValidation.
func Decode[T any](c context.Context, raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("failed decoding empty object with error=%w", inErrors.ErrValidation)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("failed decoding object with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}
	if err := validate.New().StructCtx(c, v); err != nil {
		return v, fmt.Errorf("failed validating object with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}
	return v, nil
}
