package therapy

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Defaults applied per field when a model omits it or sends the wrong type.
const (
	DefaultDetectedArea     = "Unknown Area"
	DefaultSeverity         = SeverityModerate
	DefaultConfidence       = 75
	DefaultPrimaryTherapy   = "Heat Therapy"
	DefaultSecondaryTherapy = "Light Massage"
	DefaultIntensity        = 5
	DefaultDurationMinutes  = 20
	DefaultTemperatureLabel = "Medium (38°C)"
	DefaultFrequencyLabel   = "2-3 times daily"
	DefaultAnalysisNote     = "Analysis completed"
	DefaultPrecaution       = "Consult a healthcare provider if symptoms persist"
)

// DefaultRecommendation is the recommendation used when every field is missing.
func DefaultRecommendation() TherapyRecommendation {
	return TherapyRecommendation{
		PrimaryTherapy:   DefaultPrimaryTherapy,
		SecondaryTherapy: DefaultSecondaryTherapy,
		Intensity:        DefaultIntensity,
		DurationMinutes:  DefaultDurationMinutes,
		TemperatureLabel: DefaultTemperatureLabel,
		FrequencyLabel:   DefaultFrequencyLabel,
	}
}

// Normalize turns raw model content into a fully defaulted AnalysisResult.
// It fails with ErrUnusableContent only when no JSON object can be parsed.
func Normalize(content string) (AnalysisResult, error) {
	cleaned := StripFences(content)

	obj, err := parseObject(cleaned)
	if err != nil {
		// models sometimes wrap the object in prose; a top-level array is not an object
		if strings.HasPrefix(strings.TrimSpace(cleaned), "[") {
			return AnalysisResult{}, fmt.Errorf("%w: %v", ErrUnusableContent, err)
		}
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return AnalysisResult{}, fmt.Errorf("%w: %v", ErrUnusableContent, err)
		}
		obj, err = parseObject(cleaned[start : end+1])
		if err != nil {
			return AnalysisResult{}, fmt.Errorf("%w: %v", ErrUnusableContent, err)
		}
	}

	rec, _ := obj["recommendations"].(map[string]any)

	sev, _ := ParseSeverity(stringField(obj, string(DefaultSeverity), "severity"))

	return AnalysisResult{
		Success:      true,
		DetectedArea: stringField(obj, DefaultDetectedArea, "detectedArea"),
		Severity:     sev,
		Confidence:   clamp(intField(obj, DefaultConfidence, "confidence"), 0, 100),
		Recommendations: TherapyRecommendation{
			PrimaryTherapy:   stringField(rec, DefaultPrimaryTherapy, "primaryTherapy"),
			SecondaryTherapy: stringField(rec, DefaultSecondaryTherapy, "secondaryTherapy"),
			Intensity:        clamp(intField(rec, DefaultIntensity, "intensity"), 1, 10),
			DurationMinutes:  positive(intField(rec, DefaultDurationMinutes, "durationMinutes", "duration"), DefaultDurationMinutes),
			TemperatureLabel: stringField(rec, DefaultTemperatureLabel, "temperatureLabel", "temperature"),
			FrequencyLabel:   stringField(rec, DefaultFrequencyLabel, "frequencyLabel", "frequency"),
		},
		AnalysisNotes: listField(obj, DefaultAnalysisNote, "analysisNotes"),
		Precautions:   listField(obj, DefaultPrecaution, "precautions"),
	}, nil
}

// StripFences removes a leading ```lang fence and its closing ``` if the content starts with one.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// everything before the newline is the optional language tag
		s = s[nl+1:]
	} else {
		s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("top-level value is null")
	}
	return obj, nil
}

func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(obj map[string]any, def string, keys ...string) string {
	v, ok := lookup(obj, keys)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func intField(obj map[string]any, def int, keys ...string) int {
	v, ok := lookup(obj, keys)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def
		}
		return int(math.Round(n))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		return int(math.Round(f))
	}
	return def
}

func listField(obj map[string]any, def string, keys ...string) []string {
	v, ok := lookup(obj, keys)
	if !ok {
		return []string{def}
	}
	var out []string
	switch items := v.(type) {
	case []any:
		for _, it := range items {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	case string:
		if strings.TrimSpace(items) != "" {
			out = append(out, items)
		}
	}
	if len(out) == 0 {
		return []string{def}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
