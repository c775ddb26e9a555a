package therapy

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity enum
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity maps free text to a Severity, case-insensitive.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMild:
		return SeverityMild, true
	case SeverityModerate:
		return SeverityModerate, true
	case SeveritySevere:
		return SeveritySevere, true
	}
	return SeverityModerate, false
}

// TherapyRecommendation value object
type TherapyRecommendation struct {
	PrimaryTherapy   string `json:"primaryTherapy" yaml:"primaryTherapy"`
	SecondaryTherapy string `json:"secondaryTherapy" yaml:"secondaryTherapy"`
	Intensity        int    `json:"intensity" yaml:"intensity"`
	DurationMinutes  int    `json:"durationMinutes" yaml:"durationMinutes"`
	TemperatureLabel string `json:"temperatureLabel" yaml:"temperatureLabel"`
	FrequencyLabel   string `json:"frequencyLabel" yaml:"frequencyLabel"`
}

// AnalysisResult is what every analyze call returns. It is safe to render as-is.
type AnalysisResult struct {
	Success         bool                  `json:"success" yaml:"success"`
	DetectedArea    string                `json:"detectedArea" yaml:"detectedArea"`
	Severity        Severity              `json:"severity" yaml:"severity"`
	Confidence      int                   `json:"confidence" yaml:"confidence"`
	Recommendations TherapyRecommendation `json:"recommendations" yaml:"recommendations"`
	AnalysisNotes   []string              `json:"analysisNotes" yaml:"analysisNotes"`
	Precautions     []string              `json:"precautions" yaml:"precautions"`
	ErrorReason     string                `json:"errorReason,omitempty" yaml:"errorReason,omitempty"`
}

// Validate checks the result invariants. A nil error means the result can be rendered directly.
func (r AnalysisResult) Validate() error {
	var errs []error
	if strings.TrimSpace(r.DetectedArea) == "" {
		errs = append(errs, errors.New("detectedArea is empty"))
	}
	if _, ok := ParseSeverity(string(r.Severity)); !ok {
		errs = append(errs, fmt.Errorf("severity %q is not mild|moderate|severe", r.Severity))
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		errs = append(errs, fmt.Errorf("confidence %d out of [0,100]", r.Confidence))
	}
	rec := r.Recommendations
	if rec.PrimaryTherapy == "" || rec.SecondaryTherapy == "" || rec.TemperatureLabel == "" || rec.FrequencyLabel == "" {
		errs = append(errs, errors.New("recommendation labels must be non-empty"))
	}
	if rec.Intensity < 1 || rec.Intensity > 10 {
		errs = append(errs, fmt.Errorf("intensity %d out of [1,10]", rec.Intensity))
	}
	if rec.DurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("durationMinutes %d must be positive", rec.DurationMinutes))
	}
	if len(r.AnalysisNotes) == 0 {
		errs = append(errs, errors.New("analysisNotes is empty"))
	}
	if len(r.Precautions) == 0 {
		errs = append(errs, errors.New("precautions is empty"))
	}
	return errors.Join(errs...)
}

// RequestKind tells which variant of an AnalysisRequest is active.
type RequestKind string

const (
	KindImage    RequestKind = "image"
	KindText     RequestKind = "text"
	KindQuestion RequestKind = "question"
	KindNone     RequestKind = "none"
)

// AnalysisRequest is either an image with an optional hint, or a text description.
// ImageData holds raw base64 or a data URL.
type AnalysisRequest struct {
	ImageData   string `json:"image,omitempty"`
	Hint        string `json:"hint,omitempty"`
	Description string `json:"description,omitempty"`
}

// Kind reports the active variant. The image variant wins when both are set.
func (r AnalysisRequest) Kind() RequestKind {
	switch {
	case strings.TrimSpace(r.ImageData) != "":
		return KindImage
	case strings.TrimSpace(r.Description) != "":
		return KindText
	default:
		return KindNone
	}
}

// Text returns the free text that accompanies the request, used by the fallback classifier.
func (r AnalysisRequest) Text() string {
	if r.Kind() == KindImage {
		if strings.TrimSpace(r.Hint) != "" {
			return r.Hint
		}
		return r.Description
	}
	return r.Description
}

// ImageFromBytes base64-encodes raw image bytes for an image request.
func ImageFromBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// StripDataURL removes a "data:<mime>;base64," prefix if present.
func StripDataURL(image string) string {
	image = strings.TrimSpace(image)
	if strings.HasPrefix(image, "data:") {
		if i := strings.Index(image, ","); i >= 0 {
			return image[i+1:]
		}
	}
	return image
}

// RecordID identifier type
type RecordID string

// SourceFallback marks records produced by the offline analyzer or canned answers.
const SourceFallback = "fallback"

// Record is one persisted history entry.
type Record struct {
	ID        RecordID        `json:"id"`
	ClientID  string          `json:"client_id"`
	Kind      RequestKind     `json:"kind"`
	Input     string          `json:"input,omitempty"`
	PhotoURL  string          `json:"photo_url,omitempty"`
	Source    string          `json:"source"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Answer    string          `json:"answer,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
