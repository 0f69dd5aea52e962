/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolparams extracts typed values from the untyped argument maps
// that arrive with model tool calls. JSON decoding gives every number as
// float64, so integer targets get a conversion rather than a failure.
package toolparams

import (
	"fmt"
	"maps"
)

// Get returns the named required parameter as T.
func Get[T any](args map[string]any, name string) (T, error) {
	var zero T
	value, ok := args[name]
	if !ok {
		return zero, fmt.Errorf("%s parameter is required", name)
	}
	return coerce[T](name, value)
}

// GetOptional returns the named parameter as T, or fallback when absent.
func GetOptional[T any](args map[string]any, name string, fallback T) (T, error) {
	value, ok := args[name]
	if !ok {
		return fallback, nil
	}
	return coerce[T](name, value)
}

func coerce[T any](name string, value any) (T, error) {
	if v, ok := value.(T); ok {
		return v, nil
	}
	var zero T
	if f, ok := value.(float64); ok {
		switch any(zero).(type) {
		case int:
			return any(int(f)).(T), nil
		case int32:
			return any(int32(f)).(T), nil
		case int64:
			return any(int64(f)).(T), nil
		}
	}
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// ErrorPayload builds a tool response payload carrying an error message,
// letting the model see the failure instead of aborting the run.
func ErrorPayload(format string, args ...any) map[string]any {
	return map[string]any{
		"error": fmt.Sprintf(format, args...),
	}
}

// ErrorPayloadWith adds context fields alongside the error message.
func ErrorPayloadWith(err error, context map[string]any) map[string]any {
	payload := map[string]any{"error": err.Error()}
	maps.Copy(payload, context)
	return payload
}
