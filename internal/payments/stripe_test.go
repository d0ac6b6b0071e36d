package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Alturino/commercesync/internal/config"
	inErrors "github.com/Alturino/commercesync/internal/errors"
)

const testWebhookSecret = "whsec_test"

func signedPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseWebhook(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "product.created",
		"created": 1700000000,
		"data": {"object": {"id": "prod_1", "object": "product", "name": "Shoe"}}
	}`)
	s := NewStripe(config.Payments{SecretKey: "sk_test", WebhookSecret: testWebhookSecret})

	tests := []struct {
		name        string
		signature   string
		expectedErr error
	}{
		{
			name:      "given valid signature should return event",
			signature: signedPayload(t, payload, testWebhookSecret),
		},
		{
			name:        "given missing signature should fail",
			signature:   "",
			expectedErr: inErrors.ErrMissingSignature,
		},
		{
			name:        "given signature from another secret should fail",
			signature:   signedPayload(t, payload, "whsec_other"),
			expectedErr: inErrors.ErrInvalidSignature,
		},
		{
			name:        "given garbage signature should fail",
			signature:   "t=1,v1=deadbeef",
			expectedErr: inErrors.ErrInvalidSignature,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			event, err := s.ParseWebhook(context.Background(), payload, test.signature)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "evt_1", event.ID)
			assert.Equal(t, EventProductCreated, event.Type)
			assert.Equal(t, time.Unix(1700000000, 0).UTC(), event.Created)

			object := map[string]any{}
			require.NoError(t, json.Unmarshal(event.Object, &object))
			assert.Equal(t, "prod_1", object["id"])
		})
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cs_1", "object": "checkout.session", "url": "https://pay.example/cs_1"}`))
	}))
	defer server.Close()

	s := NewStripe(config.Payments{SecretKey: "sk_test", APIBase: server.URL})
	session, err := s.CreateCheckoutSession(context.Background(), CheckoutInput{
		Lines: []CheckoutLine{
			{PriceID: "price_1", Quantity: 2},
			{PriceID: "price_2", Quantity: 1},
		},
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, session)
	assert.Equal(t, []string{"payment"}, form["mode"])
	assert.Equal(t, []string{"price_1"}, form["line_items[0][price]"])
	assert.Equal(t, []string{"2"}, form["line_items[0][quantity]"])
	assert.Equal(t, []string{"price_2"}, form["line_items[1][price]"])
	assert.Equal(t, []string{"https://shop.example/success"}, form["success_url"])
}

func TestCreatePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/prices", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "prod_1", r.PostForm.Get("product"))
		assert.Equal(t, "1500", r.PostForm.Get("unit_amount"))
		assert.Equal(t, "product-abc", r.PostForm.Get("metadata[content_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "price_1", "object": "price", "product": "prod_1",
			"unit_amount": 1500, "currency": "usd", "active": true,
			"metadata": {"content_id": "product-abc"}
		}`))
	}))
	defer server.Close()

	s := NewStripe(config.Payments{SecretKey: "sk_test", APIBase: server.URL})
	price, err := s.CreatePrice(context.Background(), PriceInput{
		ProductID:  "prod_1",
		UnitAmount: 1500,
		Currency:   "usd",
		Active:     true,
		Metadata:   map[string]string{"content_id": "product-abc"},
	})

	require.NoError(t, err)
	assert.Equal(t, Price{
		ID:         "price_1",
		ProductID:  "prod_1",
		UnitAmount: 1500,
		Currency:   "usd",
		Active:     true,
		Metadata:   map[string]string{"content_id": "product-abc"},
	}, price)
}
