package generator

import (
	"fmt"
	"strings"
)

const mcqSystemPrompt = `You write multiple-choice revision questions for police officer trainees.
Every question tests one concrete procedure, offence or reporting rule.

RULES:
- Stems are short scenarios or direct questions, one or two sentences.
- Give exactly 4 choices unless told otherwise. Exactly one is correct.
- Distractors are plausible mistakes a trainee would make, never jokes.
- Choices must be distinct and must not overlap in meaning.
- The explanation states why the answer is correct, names the common trap,
  and ends with a one-line memory aid.
- Spread the correct answer across positions; do not favour any index.
- Only use facts found in the SOURCE MATERIAL when it is given.

Respond with JSON only. No prose before or after.`

// MCQSystemPrompt is the fixed system prompt for MCQ generation.
func MCQSystemPrompt() string {
	return mcqSystemPrompt
}

const mcqOutputFormat = `
OUTPUT FORMAT:
{
  "questions": [
    {
      "stem": "Borrowed vehicle unreturned. What offence?",
      "choices": ["Theft", "Criminal breach of trust", "Misappropriation", "Civil matter"],
      "answer_idx": 1,
      "explanation": "Criminal breach of trust. Trap: marking it as theft when the property was lawfully obtained first. One-liner: given then kept = CBT.",
      "topic_name": "Theft",
      "source_ref": "short reference to the source section"
    }
  ]
}

answer_idx is zero-based and must index into choices.`

// maxSourceChars bounds how much source text goes into one prompt.
const maxSourceChars = 12000

// BuildMCQUserPrompt asks for count questions on topic. sourceText is
// truncated to maxSourceChars.
func BuildMCQUserPrompt(topic string, count int, sourceText string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d multiple-choice questions.\n\n", count))
	sb.WriteString(fmt.Sprintf("TOPIC: %s\n", topic))

	if src := strings.TrimSpace(sourceText); src != "" {
		if len(src) > maxSourceChars {
			src = src[:maxSourceChars]
		}
		sb.WriteString("\nSOURCE MATERIAL:\n")
		sb.WriteString(src)
		sb.WriteString("\n")
	}

	sb.WriteString("\nEach question must set topic_name to exactly \"")
	sb.WriteString(topic)
	sb.WriteString("\".\n")
	sb.WriteString(mcqOutputFormat)

	return sb.String()
}
