/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func scriptedJudge(t *testing.T, reply string) (*claude, *string) {
	t.Helper()
	var seenPrompt string
	c := &claude{
		model:       "claude-test",
		maxTokens:   1024,
		temperature: 0.1,
		complete: func(_ context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
			if len(params.Messages) != 1 {
				t.Fatalf("messages = %d, want the single user prompt", len(params.Messages))
			}
			seenPrompt = params.Messages[0].Content[0].OfText.Text
			return &anthropic.Message{
				Content: []anthropic.ContentBlockUnion{{Type: "text", Text: reply}},
			}, nil
		},
	}
	return c, &seenPrompt
}

func TestJudgeParsesJudgement(t *testing.T) {
	c, seenPrompt := scriptedJudge(t, `{"score": 0.8, "reasoning": "mostly grounded", "suggestions": ["cite the digest"]}`)

	j, err := c.Judge(context.Background(), &Request{
		Response:  "shipped the parser rewrite",
		Criterion: "The response must only mention work present in the commit digest.",
	})
	if err != nil {
		t.Fatalf("Judge() = %v", err)
	}
	if j.Score != 0.8 || j.Reasoning != "mostly grounded" || len(j.Suggestions) != 1 {
		t.Errorf("judgement = %+v", j)
	}
	if !strings.Contains(*seenPrompt, "<response>shipped the parser rewrite</response>") {
		t.Errorf("prompt missing response tag:\n%s", *seenPrompt)
	}
	if !strings.Contains(*seenPrompt, "<criterion>") {
		t.Errorf("prompt missing criterion tag:\n%s", *seenPrompt)
	}
}

func TestJudgeExtractsFencedJSON(t *testing.T) {
	c, _ := scriptedJudge(t, "Here is my assessment:\n```json\n{\"score\": 1.0, \"reasoning\": \"perfect\", \"suggestions\": []}\n```")

	j, err := c.Judge(context.Background(), &Request{Response: "r", Criterion: "c"})
	if err != nil {
		t.Fatalf("Judge() = %v", err)
	}
	if j.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", j.Score)
	}
}

func TestJudgeRejectsOutOfRangeScore(t *testing.T) {
	c, _ := scriptedJudge(t, `{"score": 1.5, "reasoning": "overflow", "suggestions": []}`)

	if _, err := c.Judge(context.Background(), &Request{Response: "r", Criterion: "c"}); err == nil {
		t.Fatal("Judge() = nil, want score range error")
	}
}

func TestJudgeRequiresFields(t *testing.T) {
	c, _ := scriptedJudge(t, `{}`)

	if _, err := c.Judge(context.Background(), &Request{Criterion: "c"}); err == nil {
		t.Error("Judge() without response = nil, want error")
	}
	if _, err := c.Judge(context.Background(), &Request{Response: "r"}); err == nil {
		t.Error("Judge() without criterion = nil, want error")
	}
}

func TestJudgementString(t *testing.T) {
	j := &Judgement{Score: 0.4, Reasoning: "off topic", Suggestions: []string{"mention the repo"}}
	s := j.String()
	if !strings.Contains(s, "Grade: 0.40") || !strings.Contains(s, "Suggestion: mention the repo") {
		t.Errorf("String() = %q", s)
	}
}
