package validate

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	currencyCode = regexp.MustCompile(`^[a-z]{3}$`)

	once     sync.Once
	validate *validator.Validate
)

// ValidateCurrency accepts lowercase ISO 4217 codes the way the payments
// provider spells them ("usd", "eur").
func ValidateCurrency(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return currencyCode.MatchString(value)
}

// New returns the shared validator with the "notblank" and "currency" tags
// registered.
func New() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
		if err := validate.RegisterValidation("currency", ValidateCurrency); err != nil {
			panic(err)
		}
	})
	return validate
}
