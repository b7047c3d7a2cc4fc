package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-auth-redis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerInput struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

func TestStruct_Valid(t *testing.T) {
	r := Struct(registerInput{Name: "Alice", Email: "a@x.com", Password: "password1"})
	assert.True(t, r.OK())
	assert.NoError(t, r.Err())
	assert.Equal(t, "Alice", r.Value.Name)
}

func TestStruct_IssuesInFieldOrder(t *testing.T) {
	r := Struct(registerInput{Name: "Al", Email: "nope", Password: "short"})
	require.False(t, r.OK())
	require.Len(t, r.Issues, 3)

	assert.Equal(t, domain.FieldIssue{Field: "name", Message: "name must be at least 3 characters long", Code: "too_small"}, r.Issues[0])
	assert.Equal(t, "email", r.Issues[1].Field)
	assert.Equal(t, "Invalid email format", r.Issues[1].Message)
	assert.Equal(t, "password", r.Issues[2].Field)
	assert.Equal(t, "too_small", r.Issues[2].Code)
}

func TestStruct_ErrIsValidationError(t *testing.T) {
	r := Struct(registerInput{})
	err := r.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name is required", ve.Message())
}

func TestStruct_MaxPasswordLength(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	r := Struct(registerInput{Name: "Alice", Email: "a@x.com", Password: string(long)})
	require.Len(t, r.Issues, 1)
	assert.Equal(t, "too_big", r.Issues[0].Code)
}

func TestStruct_MaxBytesCountsBytesNotRunes(t *testing.T) {
	// 40 runes, 80 bytes
	r := Struct(registerInput{Name: "Alice", Email: "a@x.com", Password: strings.Repeat("é", 40)})
	require.Len(t, r.Issues, 1)
	assert.Equal(t, domain.FieldIssue{Field: "password", Message: "password must be at most 72 bytes long", Code: "too_big"}, r.Issues[0])

	r = Struct(registerInput{Name: "Alice", Email: "a@x.com", Password: strings.Repeat("é", 36)})
	assert.True(t, r.OK())
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"  alice  ":            "alice",
		`{"$gt": ""}`:          `"gt": ""`,
		"bob\x00\n":            "bob",
		"ann@example.com":      "ann@example.com",
		"$where{ sleep(1000)}": "where sleep(1000)",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), in)
	}
}

func TestEmail_LowercasesAfterSanitize(t *testing.T) {
	assert.Equal(t, "ann@example.com", Email("  Ann@Example.COM "))
}
