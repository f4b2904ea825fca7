package reconciliation

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexString accepts a JSON string, number or bool. Billers are not consistent about
// quoting codes and amounts.
type flexString struct {
	value   string
	present bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	f.present = true

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		f.value = n.String()
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.value = strconv.FormatBool(b)
		return nil
	}
	// Objects and arrays carry nothing we read.
	f.present = false
	return nil
}

// flexBool accepts true, 1, "true", "1", "yes".
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	switch s.value {
	case "true", "TRUE", "True", "1", "yes", "YES":
		*f = true
	default:
		*f = false
	}
	return nil
}

// decodeInto reports whether payload decoded into v.
func decodeInto(payload []byte, v any) bool {
	return len(payload) > 0 && json.Unmarshal(payload, v) == nil
}
