/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import "github.com/natx223/commitlog/agents/promptbuilder"

var standalonePrompt = promptbuilder.MustNew(`<task>
You are evaluating a response to determine how well it meets the evaluation criterion.
Assess the response's quality based on the specific criterion provided.
</task>

{{response}}

{{criterion}}

<instructions>
1. Evaluate the response SOLELY based on the given criterion - ignore all other response qualities
2. Assess how well the response meets the specific criterion requirements
3. Provide a score from 0.0 to 1.0 using this scoring rubric:

IMPORTANT: Score ONLY how well the response meets the stated criterion.
Do not consider other aspects unless they directly relate to the criterion.

SCORING RUBRIC:
- Score 1.0 (Perfect): Response fully satisfies all criterion requirements with no meaningful gaps.
  * Suggestion Guidance: MUST be empty array (no improvements needed)

- Score 0.75-0.99 (High Quality): Response addresses the criterion effectively but has small gaps or minor presentation issues.
  * Suggestion Guidance: MUST provide specific minor improvements that justify the deduction

- Score 0.50-0.74 (Adequate): Response addresses basic criterion requirements but is missing important elements.
  * Suggestion Guidance: MUST provide specific improvements addressing notable gaps

- Score 0.25-0.49 (Poor): Response shows some understanding of the criterion but fails in major ways.
  * Suggestion Guidance: MUST provide multiple specific improvements addressing major problems

- Score 0.0-0.24 (Failing): Response completely ignores criterion requirements or actively contradicts them.
  * Suggestion Guidance: MUST provide comprehensive improvements addressing fundamental failures

4. Explain your reasoning and provide suggestions following the guidelines above
</instructions>

<output_format>
Return your judgment as a JSON object with this structure:
{
  "score": 0.0 to 1.0,
  "reasoning": "explanation of how well the response meets the criterion",
  "suggestions": ["improvement1", "improvement2", ...]
}

Focus suggestions on how to better meet the criterion requirements.
</output_format>

Respond with only the JSON object, no additional text.`)
