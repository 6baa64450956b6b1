// Package cache stores structured extraction payloads so re-submitting the
// same PDF skips the LLM call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key derives the cache key for one extraction call. prompt is the built
// prompt, template and document text together, so a template edit, a model
// switch or new text each yields a different key.
func Key(model, name, prompt string) string {
	h := sha256.New()
	for _, part := range []string{model, name, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return name + ":" + hex.EncodeToString(h.Sum(nil))
}
