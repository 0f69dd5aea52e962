/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Must panics on error. For package-level prompt variables whose
// templates are fixed at compile time.
func Must(p *Prompt, err error) *Prompt {
	if err != nil {
		panic(err)
	}
	return p
}

// MustNew is Must(New(template)).
func MustNew(template stringLiteral) *Prompt {
	return Must(New(template))
}

// MustBindLiteral is Must(p.BindLiteral(...)).
func (p *Prompt) MustBindLiteral(name string, value stringLiteral) *Prompt {
	return Must(p.BindLiteral(name, value))
}

// MustBindJSON is Must(p.BindJSON(...)).
func (p *Prompt) MustBindJSON(name string, data any) *Prompt {
	return Must(p.BindJSON(name, data))
}
