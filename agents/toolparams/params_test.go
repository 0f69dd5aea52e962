/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolparams

import (
	"strings"
	"testing"
)

func TestGetString(t *testing.T) {
	args := map[string]any{"text": "hello"}
	got, err := Get[string](args, "text")
	if err != nil {
		t.Fatalf("Get[string]() = %v", err)
	}
	if got != "hello" {
		t.Errorf("Get[string]() = %q", got)
	}
}

func TestGetMissing(t *testing.T) {
	_, err := Get[string](map[string]any{}, "text")
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Errorf("Get() on missing = %v, want required error", err)
	}
}

func TestGetNumericConversion(t *testing.T) {
	// JSON decoding hands integer arguments over as float64.
	args := map[string]any{"count": float64(10)}
	got, err := Get[int](args, "count")
	if err != nil {
		t.Fatalf("Get[int]() = %v", err)
	}
	if got != 10 {
		t.Errorf("Get[int]() = %d", got)
	}
	got64, err := Get[int64](args, "count")
	if err != nil || got64 != 10 {
		t.Errorf("Get[int64]() = %d, %v", got64, err)
	}
}

func TestGetWrongType(t *testing.T) {
	_, err := Get[int](map[string]any{"count": "ten"}, "count")
	if err == nil || !strings.Contains(err.Error(), "must be of type") {
		t.Errorf("Get() on wrong type = %v, want type error", err)
	}
}

func TestGetOptional(t *testing.T) {
	got, err := GetOptional[int](map[string]any{}, "limit", 25)
	if err != nil || got != 25 {
		t.Errorf("GetOptional() absent = %d, %v, want fallback 25", got, err)
	}
	got, err = GetOptional[int](map[string]any{"limit": float64(5)}, "limit", 25)
	if err != nil || got != 5 {
		t.Errorf("GetOptional() present = %d, %v, want 5", got, err)
	}
}

func TestErrorPayloadWith(t *testing.T) {
	p := ErrorPayloadWith(errTest, map[string]any{"repo": "octo/proj"})
	if p["error"] != "boom" || p["repo"] != "octo/proj" {
		t.Errorf("ErrorPayloadWith() = %v", p)
	}
}

type testErr string

func (e testErr) Error() string { return string(e) }

var errTest = testErr("boom")
