package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRawRows(t *testing.T) {
	t.Run("array of objects", func(t *testing.T) {
		rows, err := DecodeRawRows([]byte(`[{"Sample ID":"G1","As":12.5},{"as":"3"}]`))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "G1", rows[0]["Sample ID"])
		assert.Equal(t, json.Number("12.5"), rows[0]["As"])

		s, err := Normalize(rows[0])
		require.NoError(t, err)
		assert.Equal(t, 12.5, s.As)
	})

	t.Run("empty array", func(t *testing.T) {
		rows, err := DecodeRawRows([]byte(` [] `))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	tests := []struct {
		name  string
		data  string
		index int
	}{
		{"null payload", `null`, -1},
		{"object payload", `{"As":1}`, -1},
		{"string payload", `"rows"`, -1},
		{"empty payload", ``, -1},
		{"truncated array", `[{"As":1}`, -1},
		{"null element", `[{"As":1}, null]`, 1},
		{"scalar element", `[42]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRawRows([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.index, invalid.Index)
		})
	}
}

func TestDecodeSamples(t *testing.T) {
	t.Run("canonical samples", func(t *testing.T) {
		samples, err := DecodeSamples([]byte(`[{"sampleId":"G1","location":"Site","As":20,"pH":7.2}]`))
		require.NoError(t, err)
		require.Len(t, samples, 1)
		assert.Equal(t, "G1", samples[0].SampleID)
		assert.Equal(t, 20.0, samples[0].As)
		assert.Equal(t, 7.2, samples[0].PH)
	})

	t.Run("non-sequence rejected", func(t *testing.T) {
		_, err := DecodeSamples([]byte(`{"sampleId":"G1"}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("wrong field type", func(t *testing.T) {
		_, err := DecodeSamples([]byte(`[{"As":"lots"}]`))
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 0, invalid.Index)
	})
}

func TestInvalidInputError_Message(t *testing.T) {
	assert.Equal(t, "invalid input: raw row is nil", (&InvalidInputError{Index: -1, Reason: "raw row is nil"}).Error())
	assert.Equal(t, "invalid input at element 3: expected a row object", (&InvalidInputError{Index: 3, Reason: "expected a row object"}).Error())
}
