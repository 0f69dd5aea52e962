/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema derives Gemini tool declarations from Go parameter
// structs, so a tool's contract lives in one annotated type instead of
// a hand-maintained schema literal.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// Generator wraps jsonschema.Reflector with the defaults tool schemas
// need: required-from-tags, inline structs, no $ref indirection.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator constructs a generator with those defaults.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			AllowAdditionalProperties:  true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	return g.reflector.Reflect(v)
}

// ReflectType reflects a zero value of T.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return NewGenerator().Reflect(&zero)
}

// Declare builds a Gemini function declaration whose parameters are
// derived from the struct type T.
func Declare[T any](name, description string) *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        name,
		Description: description,
		Parameters:  ToGenai(ReflectType[T]()),
	}
}

// ToGenai converts a JSON schema into the genai schema representation.
// Only the subset Gemini understands survives the conversion.
func ToGenai(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Title:       s.Title,
		Format:      s.Format,
		Pattern:     s.Pattern,
	}

	if t := genaiType(s.Type); t != "" {
		out.Type = t
	}
	for _, v := range s.Enum {
		out.Enum = append(out.Enum, fmt.Sprint(v))
	}
	out.Required = append(out.Required, s.Required...)
	if len(s.Examples) > 0 {
		out.Example = s.Examples[0]
	}
	if s.Default != nil {
		out.Default = s.Default
	}

	if s.MaxLength != nil {
		out.MaxLength = int64Ptr(*s.MaxLength)
	}
	if s.MinLength != nil {
		out.MinLength = int64Ptr(*s.MinLength)
	}
	if s.MaxItems != nil {
		out.MaxItems = int64Ptr(*s.MaxItems)
	}
	if s.MinItems != nil {
		out.MinItems = int64Ptr(*s.MinItems)
	}
	if len(s.Maximum) > 0 {
		if v, err := s.Maximum.Float64(); err == nil {
			out.Maximum = &v
		}
	}
	if len(s.Minimum) > 0 {
		if v, err := s.Minimum.Float64(); err == nil {
			out.Minimum = &v
		}
	}

	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = ToGenai(pair.Value)
			out.PropertyOrdering = append(out.PropertyOrdering, pair.Key)
		}
	}
	if s.Items != nil {
		out.Items = ToGenai(s.Items)
	}
	for _, child := range s.AnyOf {
		out.AnyOf = append(out.AnyOf, ToGenai(child))
	}

	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	case "null":
		return genai.TypeNULL
	default:
		return ""
	}
}

func int64Ptr(v uint64) *int64 {
	n := int64(v)
	return &n
}

// MarshalMap renders a JSON schema as a plain map, the shape some APIs
// want tool schemas in.
func MarshalMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
