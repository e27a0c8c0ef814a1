package antares

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Event
	}{
		{
			name: "subscription handshake",
			body: `{"m2m:sgn": {"m2m:vrq": true}}`,
			want: Event{Handshake: true},
		},
		{
			name: "notification wrapped content instance",
			body: `{"m2m:sgn": {"m2m:nev": {"m2m:rep": {"m2m:cin": {"con": "{\"kondisi\": \"terjatuh\", \"device_id\": \"nino_001\"}"}}}}}`,
			want: Event{Condition: "terjatuh", DeviceID: "nino_001"},
		},
		{
			name: "direct content instance",
			body: `{"m2m:cin": {"con": "{\"kondisi\": \"terjatuh\", \"device_id\": \"nino_001\"}"}}`,
			want: Event{Condition: "terjatuh", DeviceID: "nino_001"},
		},
		{
			name: "flat form",
			body: `{"kondisi": "terjatuh", "device_id": "nino_001"}`,
			want: Event{Condition: "terjatuh", DeviceID: "nino_001"},
		},
		{
			name: "flat form without device id",
			body: `{"kondisi": "terjatuh"}`,
			want: Event{Condition: "terjatuh"},
		},
		{
			name: "non-fall condition passes through",
			body: `{"kondisi": "normal", "device_id": "nino_001"}`,
			want: Event{Condition: "normal", DeviceID: "nino_001"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestNormalize_HandshakeWinsOverOtherKeys(t *testing.T) {
	// A verification request that also carries a content instance is still a
	// handshake.
	body := `{
		"m2m:sgn": {"m2m:vrq": true},
		"m2m:cin": {"con": "{\"kondisi\": \"terjatuh\", \"device_id\": \"nino_001\"}"}
	}`
	got, err := Normalize([]byte(body))
	require.NoError(t, err)
	assert.True(t, got.Handshake)
	assert.Empty(t, got.DeviceID)
}

func TestNormalize_Errors(t *testing.T) {
	t.Run("malformed outer JSON", func(t *testing.T) {
		_, err := Normalize([]byte(`{"kondisi": `))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("malformed embedded content", func(t *testing.T) {
		_, err := Normalize([]byte(`{"m2m:cin": {"con": "not json"}}`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("unrecognized shape", func(t *testing.T) {
		_, err := Normalize([]byte(`{"temperature": 36.5}`))
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
	})

	t.Run("sgn without vrq or nev", func(t *testing.T) {
		_, err := Normalize([]byte(`{"m2m:sgn": {}}`))
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
	})
}
