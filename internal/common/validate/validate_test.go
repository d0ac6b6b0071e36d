package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type price struct {
	ID       string `validate:"required,notblank"`
	Currency string `validate:"required,currency"`
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		input   price
		isValid bool
	}{
		{name: "valid", input: price{ID: "price_1", Currency: "usd"}, isValid: true},
		{name: "blank id", input: price{ID: "   ", Currency: "usd"}, isValid: false},
		{name: "uppercase currency", input: price{ID: "price_1", Currency: "USD"}, isValid: false},
		{name: "short currency", input: price{ID: "price_1", Currency: "us"}, isValid: false},
		{name: "missing currency", input: price{ID: "price_1"}, isValid: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := New().Struct(test.input)
			if test.isValid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
