package prompt

import (
	"fmt"
	"strings"
)

// resultSchema is shared by the image and text prompts so both paths normalize the same way.
const resultSchema = `{
  "detectedArea": "<body region, e.g. Lower Back - Lumbar Region>",
  "severity": "<mild|moderate|severe>",
  "confidence": <integer 0-100>,
  "recommendations": {
    "primaryTherapy": "<e.g. Heat Therapy, Cold Therapy, EMS Stimulation>",
    "secondaryTherapy": "<string>",
    "intensity": <integer 1-10>,
    "durationMinutes": <positive integer>,
    "temperatureLabel": "<e.g. Medium (40°C)>",
    "frequencyLabel": "<e.g. 2-3 times daily>"
  },
  "analysisNotes": ["<short observation>"],
  "precautions": ["<short safety note>"]
}`

const rules = `Rules:
- Respond with one JSON object only. No markdown, no commentary.
- Use lowercase severity values: mild, moderate, severe.
- Recommend only home therapies suitable for a heat, cold and EMS therapy device.
- Keep intensity conservative; use 6 or lower unless the area is clearly large and the pain is muscular.
- Always include at least one precaution, and advise seeing a healthcare provider for severe or persistent symptoms.`

// AnalysisPrompt is the user text sent alongside a photo.
func AnalysisPrompt(hint string) string {
	var b strings.Builder
	b.WriteString("You are a physiotherapy assistant. Look at the photo of the affected body area and recommend a home therapy session.\n\n")
	if h := strings.TrimSpace(hint); h != "" {
		fmt.Fprintf(&b, "The user describes the problem as: %q\n\n", h)
	}
	b.WriteString(rules)
	b.WriteString("\n\nSchema:\n")
	b.WriteString(resultSchema)
	return b.String()
}

// DescriptionPrompt asks for the same JSON from a text description only.
func DescriptionPrompt(description string) string {
	return fmt.Sprintf(`You are a physiotherapy assistant. A user describes their pain or discomfort below. Identify the body area, estimate severity and recommend a home therapy session.

Description: %q

%s

Schema:
%s`, strings.TrimSpace(description), rules, resultSchema)
}

// QuestionSystemPrompt frames follow-up questions.
func QuestionSystemPrompt() string {
	return `You are a friendly physiotherapy assistant for a home heat, cold and EMS therapy device. Answer in plain text, in at most 120 words. Be practical and safety-first. Never diagnose. Recommend a healthcare provider for severe, worsening or persistent symptoms, numbness, or anything after a fall or impact.`
}

// QuestionPrompt builds the user message, prefixed with the prior analysis summary when present.
func QuestionPrompt(question, context string) string {
	question = strings.TrimSpace(question)
	if c := strings.TrimSpace(context); c != "" {
		return fmt.Sprintf("Context from my last analysis: %s\n\nQuestion: %s", c, question)
	}
	return question
}

// Summary condenses a prior result to "area/severity/therapy" for use as question context.
func Summary(area, severity, therapy string) string {
	return strings.Join([]string{area, severity, therapy}, "/")
}
