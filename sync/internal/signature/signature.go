// Package signature verifies content store webhook signatures.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	inErrors "github.com/Alturino/commercesync/internal/errors"
)

const HeaderName = "sanity-webhook-signature"

func encode(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Sign returns the header value a content store would send for payload.
func Sign(payload []byte, secret string, at time.Time) string {
	timestamp := at.UnixMilli()
	return fmt.Sprintf("t=%d,v1=%s", timestamp, encode(timestamp, payload, secret))
}

func parse(header string) (int64, string, error) {
	var (
		timestamp int64
		signature string
		err       error
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			if timestamp, err = strconv.ParseInt(value, 10, 64); err != nil {
				return 0, "", fmt.Errorf("failed parsing signature timestamp with error=%w", err)
			}
		case "v1":
			signature = value
		}
	}
	if timestamp == 0 || signature == "" {
		return 0, "", fmt.Errorf("malformed signature header=%q", header)
	}
	return timestamp, signature, nil
}

// Verify checks header against payload. An empty header is
// errors.ErrMissingSignature, any mismatch errors.ErrInvalidSignature.
func Verify(payload []byte, header string, secret string) error {
	if strings.TrimSpace(header) == "" {
		return inErrors.ErrMissingSignature
	}
	timestamp, signature, err := parse(header)
	if err != nil {
		return fmt.Errorf("%w: %w", inErrors.ErrInvalidSignature, err)
	}
	expected := encode(timestamp, payload, secret)
	if !hmac.Equal([]byte(expected), []byte(strings.TrimRight(signature, "="))) {
		return inErrors.ErrInvalidSignature
	}
	return nil
}
