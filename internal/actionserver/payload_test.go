package actionserver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ecotrack/internal/domain"
)

func TestParseIntegerKeepsPrecision(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{name: "beyond float precision", body: `{"points":9007199254740993}`, want: 9007199254740993},
		{name: "max int64", body: `{"points":9223372036854775807}`, want: 9223372036854775807},
		{name: "trailing zeros", body: `{"points":25.00}`, want: 25},
		{name: "string with trailing zeros", body: `{"points":"25.0"}`, want: 25},
		{name: "exponent naming an integer", body: `{"points":1e3}`, want: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := decodePayload([]byte(tt.body), true)
			require.NoError(t, err)
			require.NotNil(t, patch.Points)
			assert.Equal(t, tt.want, *patch.Points)
		})
	}
}

func TestParseIntegerRejects(t *testing.T) {
	for _, body := range []string{
		`{"points":9223372036854775808}`,
		`{"points":1e30}`,
		`{"points":1e999}`,
		`{"points":2.5}`,
		`{"points":"1e3"}`,
		`{"points":true}`,
	} {
		_, err := decodePayload([]byte(body), true)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), body)
		assert.Equal(t, map[string][]string{domain.FieldPoints: {domain.MsgInteger}}, verr.Fields(), body)
	}
}

func TestDecodePayloadRejectsTrailingData(t *testing.T) {
	_, err := decodePayload([]byte(`{"points":1} {"points":2}`), true)
	assert.ErrorIs(t, err, errMalformed)

	_, err = decodePayload([]byte("  "), true)
	assert.NoError(t, err)
}
