package services

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ComputeHash fingerprints a request so a reused idempotency key can be matched
// against the request it was first used with.
func ComputeHash(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", v))
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
