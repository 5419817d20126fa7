package school

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr bool
	}{
		{name: "valid", raw: `{"id":"s-1","name":"Escola Primaria"}`, wantID: "s-1"},
		{name: "padded", raw: "  {\"id\":\" s-2 \",\"name\":\"X\"}\n", wantID: "s-2"},
		{name: "unknown fields kept out", raw: `{"id":"s-3","name":"Y","extra":true}`, wantID: "s-3"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "not json", raw: "https://example.org/school/1", wantErr: true},
		{name: "array", raw: `[1,2]`, wantErr: true},
		{name: "trailing data", raw: `{"id":"a","name":"b"} {"id":"c"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload(tt.raw)
			if tt.wantErr {
				var mpe *MalformedPayloadError
				assert.True(t, errors.As(err, &mpe), "want MalformedPayloadError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestPayload_School(t *testing.T) {
	p := &Payload{ID: "s-1", Name: "Escola", District: "Maputo"}
	s := p.School()
	assert.Equal(t, "s-1", s.ID)
	assert.True(t, s.District.Valid)
	assert.False(t, s.EmisNumber.Valid)
}
