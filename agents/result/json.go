/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result parses structured payloads out of model text, which
// tends to arrive wrapped in markdown fences or stray whitespace.
package result

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls JSON content out of a model response. A fenced
// ```json block wins; otherwise the response is returned with any bare
// fences and surrounding whitespace stripped.
func ExtractJSON(text string) string {
	if block, ok := fencedBlock(text); ok {
		return block
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func fencedBlock(text string) (string, bool) {
	var (
		body  []string
		open  bool
		found bool
	)
	for _, line := range strings.Split(text, "\n") {
		switch {
		case !open && line == "```json":
			open = true
			found = true
		case open && line == "```":
			return strings.TrimSpace(strings.Join(body, "\n")), true
		case open:
			body = append(body, line)
		}
	}
	if found {
		// Unterminated block: take what we collected.
		return strings.TrimSpace(strings.Join(body, "\n")), true
	}
	return "", false
}

// Extract parses the JSON content of a model response into T.
func Extract[T any](text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &out); err != nil {
		return out, err
	}
	return out, nil
}
