// Package obfuscation redacts sensitive fields from payloads before they are
// persisted or logged.
package obfuscation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mask replaces every redacted value.
const Mask = "*******"

// DefaultFields are redacted by DefaultPolicy. Matching ignores case.
var DefaultFields = []string{
	"cardNo",
	"cardNumber",
	"card_number",
	"ccNumber",
	"cc_number",
	"pan",
	"cvv",
	"cvv2",
	"cvvCode",
	"card_cvv",
	"cvc",
	"merchantPassword",
	"merchant_password",
	"password",
	"sharedSecret",
	"pares",
}

// Policy is a field-name to redact table.
type Policy struct {
	fields map[string]struct{}
}

func NewPolicy(fields []string) *Policy {
	p := &Policy{fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		p.fields[strings.ToLower(f)] = struct{}{}
	}
	return p
}

func DefaultPolicy() *Policy {
	return NewPolicy(DefaultFields)
}

// ShouldRedact reports whether field is covered by the policy.
func (p *Policy) ShouldRedact(field string) bool {
	_, ok := p.fields[strings.ToLower(field)]
	return ok
}

// Fields returns the redacted field names, lower-cased.
func (p *Policy) Fields() []string {
	out := make([]string, 0, len(p.fields))
	for f := range p.fields {
		out = append(out, f)
	}
	return out
}

// RedactJSON masks matching fields at any depth and leaves everything else as is.
// Non-object documents are returned unchanged.
func (p *Policy) RedactJSON(payload []byte) ([]byte, error) {
	if !json.Valid(payload) {
		return nil, errors.New("decode payload: invalid JSON")
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p.redact(doc)); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// RedactMap returns a redacted copy of fields, for log attributes.
func (p *Policy) RedactMap(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if p.ShouldRedact(k) && v != "" {
			out[k] = Mask
			continue
		}
		out[k] = v
	}
	return out
}

func (p *Policy) redact(node any) any {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if p.ShouldRedact(key) {
				if child != nil {
					v[key] = Mask
				}
				continue
			}
			v[key] = p.redact(child)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = p.redact(child)
		}
		return v
	default:
		return v
	}
}
