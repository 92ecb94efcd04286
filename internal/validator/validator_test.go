package validator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofscope/tofscope/internal/domain"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

func TestValidate_EventInput(t *testing.T) {
	negative := -1

	tests := []struct {
		name      string
		input     domain.EventInput
		wantField string
		wantMsg   string
	}{
		{
			name: "valid",
			input: domain.EventInput{
				EventNumber: 1,
				Hits:        []domain.HitInput{{X: 1, Y: 2, Z: 3, T: 4}},
				Deposits:    []float64{0.5},
			},
		},
		{
			name:      "negative event number",
			input:     domain.EventInput{EventNumber: -1},
			wantField: "eventNumber",
			wantMsg:   "must be at least 0",
		},
		{
			name:      "nan time",
			input:     domain.EventInput{Hits: []domain.HitInput{{T: math.NaN()}}},
			wantField: "hits[0].t",
			wantMsg:   "must be a finite number",
		},
		{
			name:      "negative layer",
			input:     domain.EventInput{Hits: []domain.HitInput{{Layer: &negative}}},
			wantField: "hits[0].layer",
			wantMsg:   "must be at least 0",
		},
		{
			name:      "infinite deposit",
			input:     domain.EventInput{Deposits: []float64{1, math.Inf(1)}},
			wantField: "deposits[1]",
			wantMsg:   "must be a finite number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, IsValidationError(err))
			verrs := err.(ValidationErrors)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantField, verrs[0].Field)
			assert.Equal(t, tt.wantMsg, verrs[0].Message)
		})
	}
}

func TestValidate_RunInput(t *testing.T) {
	err := Validate(domain.RunInput{})
	require.Error(t, err)
	assert.Equal(t, "name: is required", err.Error())
}

func TestToAppError(t *testing.T) {
	err := ToAppError(Validate(domain.RunInput{}))

	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 400, err.StatusCode)
	assert.Equal(t, "is required", err.Details["name"])
}
