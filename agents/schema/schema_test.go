/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"slices"
	"testing"

	"google.golang.org/genai"
)

type tweetParams struct {
	Text string `json:"text" jsonschema:"required" jsonschema_description:"The tweet text to publish."`
	Tags []string `json:"tags,omitempty" jsonschema_description:"Optional hashtags."`
}

func TestDeclare(t *testing.T) {
	decl := Declare[tweetParams]("post_tweet", "Publish a tweet.")
	if decl.Name != "post_tweet" || decl.Description != "Publish a tweet." {
		t.Errorf("declaration header = %q %q", decl.Name, decl.Description)
	}
	p := decl.Parameters
	if p == nil || p.Type != genai.TypeObject {
		t.Fatalf("parameters = %+v, want object schema", p)
	}
	text, ok := p.Properties["text"]
	if !ok || text.Type != genai.TypeString {
		t.Errorf("text property = %+v, want string", text)
	}
	if text.Description == "" {
		t.Error("text description was dropped in conversion")
	}
	tags, ok := p.Properties["tags"]
	if !ok || tags.Type != genai.TypeArray || tags.Items == nil || tags.Items.Type != genai.TypeString {
		t.Errorf("tags property = %+v, want array of strings", tags)
	}
	if !slices.Contains(p.Required, "text") {
		t.Errorf("required = %v, want text listed", p.Required)
	}
	if slices.Contains(p.Required, "tags") {
		t.Errorf("required = %v, tags must stay optional", p.Required)
	}
}

func TestToGenaiNil(t *testing.T) {
	if got := ToGenai(nil); got != nil {
		t.Errorf("ToGenai(nil) = %+v, want nil", got)
	}
}

func TestMarshalMap(t *testing.T) {
	m, err := MarshalMap(ReflectType[tweetParams]())
	if err != nil {
		t.Fatalf("MarshalMap() = %v", err)
	}
	if _, ok := m["properties"]; !ok {
		t.Errorf("MarshalMap() = %v, want properties key", m)
	}
}
