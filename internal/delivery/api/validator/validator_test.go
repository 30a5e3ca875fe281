package validator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Text     string  `json:"text" validate:"required,max=5"`
	ParentID *string `json:"parentId,omitempty" validate:"omitempty,min=1"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&sample{Text: "ok"}))

	err := v.Validate(&sample{Text: "far too long"})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"text": "max=5"}, Details(err))

	err = v.Validate(&sample{})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"text": "required"}, Details(err))
}

func TestDetails_NonValidationError(t *testing.T) {
	assert.Nil(t, Details(errors.New("boom")))
}
