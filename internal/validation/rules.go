// Package validation holds the jellydator rules shared by configuration and
// record validation.
package validation

import (
	"encoding/base64"
	"strings"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
	apperrors "github.com/allisson/piicrypt/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Envelope validates that a string is a well-formed encryption envelope.
var Envelope = validation.NewStringRuleWithError(
	cryptoDomain.IsEnvelope,
	validation.NewError("validation_envelope", "must be an encryption envelope"),
)

// Base64 validates a KMS-wrapped CRYPTO_SECRET before it reaches the keeper.
// Empty values pass; pair with Required.
var Base64 = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := base64.StdEncoding.DecodeString(s)
		return err == nil
	},
	validation.NewError("validation_base64", "must be valid base64-encoded data"),
)
