package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_IsValid(t *testing.T) {
	s := Default()
	assert.NoError(t, s.Validate())
	assert.True(t, s.WithActivity)
	assert.Equal(t, "mint", s.CreateMethod)
	assert.Equal(t, "tokenId", s.IdentifierField)
}

func TestArgs_WithActivity(t *testing.T) {
	s := Default()
	assert.Equal(t, []any{"biking"}, s.CreateArgs("biking"))
	assert.Equal(t, []any{uint64(7), "sunny", uint64(150), "planting"}, s.UpdateArgs(7, "sunny", 150, "planting"))
}

func TestArgs_WithoutActivity(t *testing.T) {
	s := Default().WithoutActivity()
	assert.Nil(t, s.CreateArgs("biking"))
	assert.Equal(t, []any{uint64(7), "rainy", uint64(80)}, s.UpdateArgs(7, "rainy", 80, "walking"))

	// The original value is untouched.
	assert.True(t, Default().WithActivity)
}

func TestValidate_ReportsEveryMissingField(t *testing.T) {
	err := Schema{}.Validate()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "address")
	assert.ErrorContains(t, err, "read_method")
	assert.ErrorContains(t, err, "identifier_field")
}
