package content

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimal lists currencies whose minor unit is the major unit.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true,
	"xpf": true,
}

// Amount converts a minor unit amount to its decimal value.
func Amount(unitAmount int64, currency string) decimal.Decimal {
	if zeroDecimal[strings.ToLower(currency)] {
		return decimal.NewFromInt(unitAmount)
	}
	return decimal.New(unitAmount, -2)
}

// FormatAmount renders unitAmount as "12.99 USD".
func FormatAmount(unitAmount int64, currency string) string {
	places := int32(2)
	if zeroDecimal[strings.ToLower(currency)] {
		places = 0
	}
	return Amount(unitAmount, currency).StringFixed(places) + " " + strings.ToUpper(currency)
}
