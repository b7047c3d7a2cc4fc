package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-auth-redis/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time; field names are reported by their json tag.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("maxbytes", maxBytes)
	return val
}

// maxBytes bounds the UTF-8 length of a string. bcrypt rejects inputs over 72
// bytes, which max (a rune count) does not catch.
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// Result is either a valid payload or an ordered list of field issues.
type Result[T any] struct {
	Value  T
	Issues []domain.FieldIssue
}

func (r Result[T]) OK() bool { return len(r.Issues) == 0 }

// Err returns a *domain.ValidationError when the result failed, otherwise nil.
func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return &domain.ValidationError{Issues: r.Issues}
}

// Struct validates in against its validate tags. Issues keep struct field order.
func Struct[T any](in T) Result[T] {
	err := v.Struct(in)
	if err == nil {
		return Result[T]{Value: in}
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result[T]{Value: in, Issues: []domain.FieldIssue{{Field: "unknown", Message: err.Error(), Code: "custom"}}}
	}
	issues := make([]domain.FieldIssue, 0, len(ve))
	for _, fe := range ve {
		issues = append(issues, issueFor(fe))
	}
	return Result[T]{Value: in, Issues: issues}
}

func issueFor(fe validator.FieldError) domain.FieldIssue {
	field := fe.Field()
	is := domain.FieldIssue{Field: field}
	switch fe.Tag() {
	case "required":
		is.Code = "invalid_type"
		is.Message = field + " is required"
	case "min":
		is.Code = "too_small"
		is.Message = fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		is.Code = "too_big"
		is.Message = fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "maxbytes":
		is.Code = "too_big"
		is.Message = fmt.Sprintf("%s must be at most %s bytes long", field, fe.Param())
	case "email":
		is.Code = "invalid_string"
		is.Message = "Invalid email format"
	case "numeric", "len":
		is.Code = "invalid_string"
		is.Message = field + " is malformed"
	default:
		is.Code = "custom"
		is.Message = fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
	return is
}

// Sanitize trims s and drops characters that carry meaning in document-store query
// syntax ($, {, }) along with control characters. Passwords must not go through it.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '$', r == '{', r == '}':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Email sanitizes and lower-cases an address so lookups and keys agree.
func Email(s string) string {
	return strings.ToLower(Sanitize(s))
}
