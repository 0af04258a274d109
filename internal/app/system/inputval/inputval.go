// Package inputval validates decoded request bodies with struct tags and
// offers small predicate helpers for values that arrive outside a body.
package inputval

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	once     sync.Once
	validate *validator.Validate

	e164Re = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report JSON names so messages match what the client sent.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return IsValidRole(fl.Field().String())
		})
		_ = v.RegisterValidation("phone_e164", func(fl validator.FieldLevel) bool {
			return e164Re.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Result collects field errors from one Validate call.
type Result struct {
	Fields []FieldError
}

// FieldError names one failing field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// HasErrors reports whether any field failed.
func (r Result) HasErrors() bool { return len(r.Fields) > 0 }

// Err folds the result into a validation *apperr.Error, or nil.
func (r Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	parts := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		parts = append(parts, describe(f))
	}
	return apperr.Validation(strings.Join(parts, "; "))
}

func describe(f FieldError) string {
	switch f.Rule {
	case "required":
		return f.Field + " is required"
	case "oneof", "role":
		return f.Field + " has an unsupported value"
	case "objectid":
		return f.Field + " must be a valid id"
	case "email":
		return f.Field + " must be a valid email"
	case "phone_e164":
		return f.Field + " must be an E.164 phone number"
	default:
		return fmt.Sprintf("%s failed %s", f.Field, f.Rule)
	}
}

// Validate runs struct-tag validation on v.
func Validate(v any) Result {
	err := instance().Struct(v)
	if err == nil {
		return Result{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Fields: []FieldError{{Field: "body", Rule: "invalid"}}}
	}
	out := Result{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// IsValidEmail accepts a bare address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s && a.Name == ""
}

// IsValidRole reports whether s is a marketplace role.
func IsValidRole(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.RoleCaregiver, models.RoleProvider:
		return true
	}
	return false
}

// IsValidItemType reports whether s names a likeable forum item.
func IsValidItemType(s string) bool {
	switch s {
	case models.ItemThread, models.ItemPost, models.ItemReply:
		return true
	}
	return false
}

// ParseObjectID converts a path or body id, returning a validation error
// that names the field.
func ParseObjectID(field, s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(field + " must be a valid id")
	}
	return id, nil
}
