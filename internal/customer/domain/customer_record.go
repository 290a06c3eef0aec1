// Package domain defines the customer record processed by the encryption pipeline.
package domain

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/piicrypt/internal/errors"
	customValidation "github.com/allisson/piicrypt/internal/validation"
)

// ErrMalformedRecord indicates a record is missing its id or a sensitive field.
var ErrMalformedRecord = errors.Wrap(errors.ErrInvalidInput, "malformed customer record")

// Field names a sensitive record field as it appears on the wire.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldSSNLast4 Field = "ssn_last4"
)

// SensitiveFields lists the only fields ever passed to the encryptor.
var SensitiveFields = []Field{FieldName, FieldEmail, FieldPhone, FieldSSNLast4}

// CustomerRecord is one row of the customer dataset. Identity and demographic
// fields pass through untouched; the four sensitive fields are replaced by
// encryption envelopes.
type CustomerRecord struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	SSNLast4       string  `json:"ssn_last4"`
	Address        string  `json:"address,omitempty"`
	BirthDate      string  `json:"birthDate,omitempty"`
	JoinDate       string  `json:"joinDate,omitempty"`
	AccountBalance float64 `json:"accountBalance"`
	IsVIP          bool    `json:"isVip"`
}

// Validate reports ErrMalformedRecord when the id or a sensitive field is blank.
func (r *CustomerRecord) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Email, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Phone, validation.Required, customValidation.NotBlank),
		validation.Field(&r.SSNLast4, validation.Required, customValidation.NotBlank),
	)
	if err != nil {
		return errors.Wrap(ErrMalformedRecord, err.Error())
	}
	return nil
}

// ValidateEncrypted checks that every sensitive field holds an envelope.
func (r *CustomerRecord) ValidateEncrypted() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Name, validation.Required, customValidation.Envelope),
		validation.Field(&r.Email, validation.Required, customValidation.Envelope),
		validation.Field(&r.Phone, validation.Required, customValidation.Envelope),
		validation.Field(&r.SSNLast4, validation.Required, customValidation.Envelope),
	)
	if err != nil {
		return errors.Wrap(ErrMalformedRecord, err.Error())
	}
	return nil
}

// Get returns the value of a sensitive field.
func (r *CustomerRecord) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldSSNLast4:
		return r.SSNLast4
	}
	return ""
}

// Set replaces the value of a sensitive field. Unknown fields are ignored.
func (r *CustomerRecord) Set(f Field, value string) {
	switch f {
	case FieldName:
		r.Name = value
	case FieldEmail:
		r.Email = value
	case FieldPhone:
		r.Phone = value
	case FieldSSNLast4:
		r.SSNLast4 = value
	}
}
