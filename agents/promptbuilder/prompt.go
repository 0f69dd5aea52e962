/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder provides {{placeholder}} prompt templates with
// typed, immutable bindings. Templates are declared as package-level
// literals and bound per request; Build fails while any placeholder
// remains unbound, so a prompt can never reach a model half-filled.
package promptbuilder

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// stringLiteral only accepts untyped string constants, keeping runtime
// strings (user input in particular) out of template and literal positions.
type stringLiteral string

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z][A-Za-z0-9_]*)\s*\}\}`)

// Prompt is a template plus the values bound so far. Bind methods return
// a new Prompt; the receiver is never mutated, so a package-level prompt
// can be shared across requests.
type Prompt struct {
	template string
	bound    map[string]string
	pending  map[string]struct{}
}

// New parses a template literal and records its placeholders.
func New(template stringLiteral) (*Prompt, error) {
	s := string(template)
	if err := checkBraces(s); err != nil {
		return nil, err
	}
	pending := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		pending[m[1]] = struct{}{}
	}
	return &Prompt{
		template: s,
		bound:    map[string]string{},
		pending:  pending,
	}, nil
}

// checkBraces rejects templates where a "{{" opens something the
// placeholder pattern will not consume, which would otherwise pass
// through to the model verbatim.
func checkBraces(s string) error {
	stripped := placeholderPattern.ReplaceAllString(s, "")
	if i := strings.Index(stripped, "{{"); i >= 0 {
		tail := stripped[i:]
		if len(tail) > 20 {
			tail = tail[:20]
		}
		return fmt.Errorf("malformed placeholder near %q", tail)
	}
	return nil
}

// Placeholders returns the names of placeholders not yet bound.
func (p *Prompt) Placeholders() map[string]struct{} {
	return maps.Clone(p.pending)
}

func (p *Prompt) bind(name, value string) (*Prompt, error) {
	if _, ok := p.pending[name]; !ok {
		if _, bound := p.bound[name]; bound {
			return nil, fmt.Errorf("placeholder %q already bound", name)
		}
		return nil, fmt.Errorf("no placeholder %q in template", name)
	}
	next := &Prompt{
		template: p.template,
		bound:    maps.Clone(p.bound),
		pending:  maps.Clone(p.pending),
	}
	next.bound[name] = value
	delete(next.pending, name)
	return next, nil
}

// BindLiteral binds a developer-provided string constant.
func (p *Prompt) BindLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, string(value))
}

// BindString binds a runtime string value.
func (p *Prompt) BindString(name, value string) (*Prompt, error) {
	return p.bind(name, value)
}

// BindJSON marshals data as JSON and binds the result.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling %q binding: %w", name, err)
	}
	return p.bind(name, string(b))
}

// BindXML marshals data as XML and binds the result. Useful for
// wrapping untrusted text in a named tag the prompt can refer to.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	b, err := xml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling %q binding: %w", name, err)
	}
	return p.bind(name, string(b))
}

// BindYAML marshals data as YAML and binds the result.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling %q binding: %w", name, err)
	}
	return p.bind(name, strings.TrimSuffix(string(b), "\n"))
}

// Build renders the template. Every placeholder must be bound.
func (p *Prompt) Build() (string, error) {
	if len(p.pending) > 0 {
		names := make([]string, 0, len(p.pending))
		for name := range p.pending {
			names = append(names, name)
		}
		return "", fmt.Errorf("unbound placeholders: %s", strings.Join(names, ", "))
	}
	return placeholderPattern.ReplaceAllStringFunc(p.template, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		return p.bound[name]
	}), nil
}

// Bindable is implemented by request types that know how to bind their
// own fields into a prompt. Runners accept a Bindable so the template
// stays with the prompt author and the data stays with the request.
type Bindable interface {
	Bind(prompt *Prompt) (*Prompt, error)
}

// Noop binds nothing.
type Noop struct{}

func (Noop) Bind(prompt *Prompt) (*Prompt, error) { return prompt, nil }
