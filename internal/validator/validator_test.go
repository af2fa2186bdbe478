package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/models"
)

type batchInput struct {
	Range    string `json:"range" validate:"required,frame_range"`
	Category string `json:"category" validate:"required,category_code"`
	Kind     string `json:"kind" validate:"required,unit_kind"`
}

func rules(err error) []string {
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]string, 0, len(ve))
	for _, e := range ve {
		out = append(out, e.Field+":"+e.Rule)
	}
	return out
}

func TestValidate_CustomRules(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		input batchInput
		want  []string
	}{
		{"valid range", batchInput{"10-20", "3", "group"}, nil},
		{"valid single", batchInput{" 7 ", "9", "segment"}, nil},
		{"bad range", batchInput{"10-", "3", "group"}, []string{"range:frame_range"}},
		{"bad category", batchInput{"1", "10", "group"}, []string{"category:category_code"}},
		{"bad kind", batchInput{"1", "1", "study"}, []string{"kind:unit_kind"}},
		{"missing", batchInput{}, []string{"range:required", "category:required", "kind:required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, rules(err))
		})
	}
}

func TestValidate_SaveRequestUnitSelection(t *testing.T) {
	v := New()
	changes := map[string]models.CategorizationRecord{"frame_1_left": {Category: "2"}}

	err := v.Validate(models.SaveCategorizationsRequest{Changes: changes})
	require.Error(t, err)
	assert.Contains(t, rules(err), "unit:unit_selection")

	err = v.Validate(models.SaveCategorizationsRequest{
		UnitSelector: models.UnitSelector{GroupID: 1, SegmentID: 2},
		Changes:      changes,
	})
	assert.Contains(t, rules(err), "unit:unit_selection")

	err = v.Validate(models.SaveCategorizationsRequest{UnitSelector: models.UnitSelector{GroupID: 1}})
	assert.Equal(t, []string{"changes:required"}, rules(err))

	assert.NoError(t, v.Validate(models.SaveCategorizationsRequest{
		UnitSelector: models.UnitSelector{ConversationID: 4},
		Changes:      changes,
	}))
}

func TestVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("key", "frame_12_right", "categorization_key"))
	assert.NoError(t, v.Var("key", "frame_12", "categorization_key"))

	err := v.Var("key", "frame_12_top", "categorization_key")
	require.Error(t, err)
	assert.Equal(t, []string{"key:categorization_key"}, rules(err))
	assert.Contains(t, err.Error(), "key must look like")

	assert.NoError(t, v.Var("role", "admin", "user_role"))
	assert.Error(t, v.Var("role", "owner", "user_role"))
}

func TestToValidationErrors_Passthrough(t *testing.T) {
	ve := ValidationErrors{{Field: "x", Message: "bad", Rule: "r"}}
	assert.Equal(t, ve, ToValidationErrors(ve))

	plain := ToValidationErrors(errors.New("boom"))
	require.Len(t, plain, 1)
	assert.Equal(t, "request", plain[0].Field)
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
}
