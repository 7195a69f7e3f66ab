package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" binding:"required,personname"`
	Email string `json:"email" binding:"required,email"`
	Age   int    `json:"age" binding:"gte=0"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	errs := Struct(&sample{Name: "a", Email: "nope", Age: -1})
	require.Len(t, errs, 3)
	got := map[string]string{}
	for _, e := range errs {
		got[e.Field] = e.Message
	}
	assert.Equal(t, "must be a valid email", got["email"])
	assert.Equal(t, "must be between 2 and 30 characters long", got["name"])
	assert.Equal(t, "must be greater than or equal to 0", got["age"])
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, Struct(&sample{Name: "Ann", Email: "a@x.com", Age: 3}))
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var v sample
	err := json.Unmarshal([]byte(`{"name":`), &v)
	assert.NotEmpty(t, ToDetails(err)["payload"])
}

func TestJoin(t *testing.T) {
	msg := Join([]FieldError{{Field: "email", Message: "email already in use"}, {Field: "name", Message: "is required"}})
	assert.Contains(t, msg, "email: email already in use")
	assert.Contains(t, msg, "name: is required")
}
