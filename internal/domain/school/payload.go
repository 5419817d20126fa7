package school

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedPayloadError is returned when a scanned QR code does not describe a school.
type MalformedPayloadError struct {
	Reason string
	Err    error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed school payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed school payload: " + e.Reason
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// Payload is the JSON object encoded in a school pairing QR code. The id ends
// up in button callback data, hence its short limit.
type Payload struct {
	ID         string `json:"id" validate:"required,max=48"`
	Name       string `json:"name" validate:"required,max=255"`
	EmisNumber string `json:"emis_number" validate:"omitempty,max=32"`
	District   string `json:"district" validate:"omitempty,max=128"`
}

// DecodePayload parses the raw QR text. Shape validation is left to the caller.
func DecodePayload(raw string) (*Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &MalformedPayloadError{Reason: "empty payload"}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, &MalformedPayloadError{Reason: "not a JSON object", Err: err}
	}
	if dec.More() {
		return nil, &MalformedPayloadError{Reason: "trailing data after JSON object"}
	}
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	return &p, nil
}

// School converts a validated payload.
func (p *Payload) School() *School {
	s := &School{ID: p.ID, Name: p.Name}
	if p.EmisNumber != "" {
		s.EmisNumber = sql.NullString{String: p.EmisNumber, Valid: true}
	}
	if p.District != "" {
		s.District = sql.NullString{String: p.District, Valid: true}
	}
	return s
}
