/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"strings"
	"testing"
)

func TestBuildBindsAllPlaceholders(t *testing.T) {
	p, err := New(`Summarize {{count}} commits for {{user}}.`)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	p, err = p.BindString("user", "octocat")
	if err != nil {
		t.Fatalf("BindString(user) = %v", err)
	}
	p, err = p.BindJSON("count", 7)
	if err != nil {
		t.Fatalf("BindJSON(count) = %v", err)
	}
	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	if want := "Summarize 7 commits for octocat."; got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildFailsWhileUnbound(t *testing.T) {
	p := MustNew(`Hello {{name}}, today is {{day}}.`)
	p, err := p.BindString("name", "dev")
	if err != nil {
		t.Fatalf("BindString() = %v", err)
	}
	if _, err := p.Build(); err == nil || !strings.Contains(err.Error(), "day") {
		t.Errorf("Build() with unbound placeholder = %v, want error naming day", err)
	}
}

func TestBindIsImmutable(t *testing.T) {
	base := MustNew(`{{who}}`)
	a, err := base.BindString("who", "alice")
	if err != nil {
		t.Fatalf("BindString() = %v", err)
	}
	b, err := base.BindString("who", "bob")
	if err != nil {
		t.Fatalf("BindString() on shared base = %v", err)
	}
	got, _ := a.Build()
	if got != "alice" {
		t.Errorf("first binding = %q, want alice", got)
	}
	got, _ = b.Build()
	if got != "bob" {
		t.Errorf("second binding = %q, want bob", got)
	}
}

func TestDoubleBindRejected(t *testing.T) {
	p := MustNew(`{{x}}`)
	p, err := p.BindString("x", "1")
	if err != nil {
		t.Fatalf("BindString() = %v", err)
	}
	if _, err := p.BindString("x", "2"); err == nil {
		t.Error("rebinding bound placeholder succeeded, want error")
	}
}

func TestUnknownPlaceholderRejected(t *testing.T) {
	p := MustNew(`{{x}}`)
	if _, err := p.BindString("y", "1"); err == nil {
		t.Error("binding unknown placeholder succeeded, want error")
	}
}

func TestMalformedTemplates(t *testing.T) {
	for _, tmpl := range []stringLiteral{
		`unclosed {{name`,
		`bad {{1name}} identifier`,
		`empty {{}} braces`,
	} {
		if _, err := New(tmpl); err == nil {
			t.Errorf("New(%q) succeeded, want error", tmpl)
		}
	}
}

func TestBindYAML(t *testing.T) {
	p := MustNew("commits:\n{{commits}}")
	p, err := p.BindYAML("commits", []map[string]string{{"message": "fix parser"}})
	if err != nil {
		t.Fatalf("BindYAML() = %v", err)
	}
	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	if !strings.Contains(got, "message: fix parser") {
		t.Errorf("Build() = %q, want YAML commit list", got)
	}
}

func TestPlaceholdersShrinkAsBound(t *testing.T) {
	p := MustNew(`{{a}} {{b}}`)
	if got := len(p.Placeholders()); got != 2 {
		t.Fatalf("Placeholders() = %d, want 2", got)
	}
	p, err := p.BindString("a", "x")
	if err != nil {
		t.Fatalf("BindString() = %v", err)
	}
	if _, ok := p.Placeholders()["b"]; !ok || len(p.Placeholders()) != 1 {
		t.Errorf("Placeholders() after bind = %v, want just b", p.Placeholders())
	}
}
