package therapy

import (
	"fmt"
	"strings"
)

// FallbackConfidence is the fixed confidence reported by the offline analyzer.
const FallbackConfidence = 60

// FallbackFixedDuration is the session length used by the offline analyzer for every severity.
const FallbackFixedDuration = 20

// FallbackReason is set as ErrorReason on every offline result.
const FallbackReason = "remote analysis unavailable: all models exhausted, used offline heuristics"

// FallbackNote opens the notes of every offline result.
const FallbackNote = "Remote AI analysis was unavailable; this recommendation was generated from text-based heuristics."

// ConsultPrecaution is always part of an offline result.
const ConsultPrecaution = "Consult a healthcare provider for persistent or severe symptoms."

// Fallback classifies free text into a recommendation without any I/O.
// Identical input always yields an identical result.
func Fallback(text string) AnalysisResult {
	lower := strings.ToLower(text)

	area := DetectArea(lower)
	severity := DetectSeverity(lower)
	therapy := selectTherapy(lower)

	rec := therapy.rec
	rec.Intensity = IntensityFor(severity)
	rec.DurationMinutes = FallbackFixedDuration

	notes := []string{
		FallbackNote,
		fmt.Sprintf("Detected area from description: %s.", area),
		fmt.Sprintf("Severity assessed as %s.", severity),
	}
	if strings.TrimSpace(text) == "" {
		notes = append(notes, "No description was provided; a general recommendation is shown.")
	}

	return AnalysisResult{
		Success:         true,
		DetectedArea:    area,
		Severity:        severity,
		Confidence:      FallbackConfidence,
		Recommendations: rec,
		AnalysisNotes:   notes,
		Precautions: []string{
			ConsultPrecaution,
			"Stop the session immediately if pain increases or numbness occurs.",
			therapy.precaution,
		},
		ErrorReason: FallbackReason,
	}
}

// DetectArea returns the first matching region label, or GenericArea.
func DetectArea(text string) string {
	lower := strings.ToLower(text)
	for _, r := range areaRules {
		if r.matches(lower) {
			return r.label
		}
	}
	return GenericArea
}

// DetectSeverity returns severe if any severe keyword is present, else mild if any mild keyword is, else moderate.
func DetectSeverity(text string) Severity {
	lower := strings.ToLower(text)
	switch {
	case severeRule.matches(lower):
		return SeveritySevere
	case mildRule.matches(lower):
		return SeverityMild
	default:
		return SeverityModerate
	}
}

// IntensityFor derives the stimulation intensity from severity.
func IntensityFor(s Severity) int {
	switch s {
	case SeveritySevere:
		return 6
	case SeverityMild:
		return 4
	default:
		return 5
	}
}

func selectTherapy(lower string) therapyRule {
	for _, r := range therapyRules {
		if r.matches(lower) {
			return r
		}
	}
	return defaultTherapy
}

// InvalidInputResult is returned when a request carries neither an image nor a description.
func InvalidInputResult() AnalysisResult {
	return AnalysisResult{
		Success:         false,
		DetectedArea:    DefaultDetectedArea,
		Severity:        DefaultSeverity,
		Confidence:      0,
		Recommendations: DefaultRecommendation(),
		AnalysisNotes: []string{
			"No image or description was provided, so no analysis could be performed.",
		},
		Precautions: []string{
			"Provide a photo or a short description of the affected area to receive a recommendation.",
			ConsultPrecaution,
		},
		ErrorReason: ErrMissingInput.Error(),
	}
}
