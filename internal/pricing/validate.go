package pricing

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/ovenhouse/backend-pizzeria/internal/common"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfiguration rejects malformed configurations before any catalog
// resolution is attempted: missing component ids, non-positive topping
// quantities, duplicate topping ids, and ids containing the fingerprint's
// reserved characters.
func ValidateConfiguration(cfg Configuration) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
			return common.NewValidationError("invalid configuration", details)
		}
		return common.NewValidationError(err.Error(), nil)
	}
	return validateComponentIDs(cfg)
}

// validateComponentIDs enforces that no id contains a character the
// fingerprint uses structurally. Without this check the ids "a" + "b" and the
// single id "a:1,b" would collide on one cache key.
func validateComponentIDs(cfg Configuration) error {
	ids := []string{cfg.SizeID, cfg.CrustID, cfg.SauceID, cfg.SpecialtyOverrideID}
	for _, t := range cfg.Toppings {
		ids = append(ids, t.ToppingID)
	}
	var details []string
	for _, id := range ids {
		if strings.ContainsAny(id, ReservedIDChars) {
			details = append(details, fmt.Sprintf("id %q contains a reserved character (one of %q)", id, ReservedIDChars))
		}
	}
	if len(details) > 0 {
		return common.NewValidationError("invalid component id", details)
	}
	return nil
}
