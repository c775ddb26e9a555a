package therapy

import (
	"reflect"
	"strings"
	"testing"
)

func TestFallbackLeftShoulderSevere(t *testing.T) {
	got := Fallback("left shoulder, severe pain after gym")

	if !got.Success {
		t.Fatal("Success = false, want true")
	}
	if got.DetectedArea != "Left Shoulder Joint" {
		t.Errorf("DetectedArea = %q", got.DetectedArea)
	}
	if got.Severity != SeveritySevere {
		t.Errorf("Severity = %q", got.Severity)
	}
	if got.Recommendations.Intensity != 6 {
		t.Errorf("Intensity = %d, want 6", got.Recommendations.Intensity)
	}
	if got.Confidence != FallbackConfidence {
		t.Errorf("Confidence = %d", got.Confidence)
	}
	if got.ErrorReason != FallbackReason {
		t.Errorf("ErrorReason = %q", got.ErrorReason)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFallbackDeterministic(t *testing.T) {
	inputs := []string{
		"left shoulder, severe pain after gym",
		"",
		"my lower back feels tight and stiff",
		"swollen ankle after a sprain",
	}
	for _, in := range inputs {
		a, b := Fallback(in), Fallback(in)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Fallback(%q) not deterministic", in)
		}
	}
}

func TestFallbackAlwaysValid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"??!!",
		"my chronic knee arthritis is acting up",
		"mild cramp in the right calf",
		"EXCRUCIATING LOWER BACK",
		strings.Repeat("neck ", 500),
	}
	for _, in := range inputs {
		got := Fallback(in)
		if err := got.Validate(); err != nil {
			t.Errorf("Fallback(%q).Validate() = %v", in, err)
		}
		if got.Precautions[0] != ConsultPrecaution {
			t.Errorf("Fallback(%q) first precaution = %q", in, got.Precautions[0])
		}
		if got.Recommendations.DurationMinutes != FallbackFixedDuration {
			t.Errorf("Fallback(%q) duration = %d", in, got.Recommendations.DurationMinutes)
		}
	}
}

func TestFallbackEmptyInput(t *testing.T) {
	got := Fallback("")
	if got.DetectedArea != GenericArea {
		t.Errorf("DetectedArea = %q, want %q", got.DetectedArea, GenericArea)
	}
	if got.Severity != SeverityModerate {
		t.Errorf("Severity = %q", got.Severity)
	}
	if got.Recommendations.PrimaryTherapy != defaultTherapy.rec.PrimaryTherapy {
		t.Errorf("PrimaryTherapy = %q", got.Recommendations.PrimaryTherapy)
	}
	if len(got.AnalysisNotes) != 4 {
		t.Errorf("AnalysisNotes = %v, want the empty-input note appended", got.AnalysisNotes)
	}
}

func TestDetectArea(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"pain in my lower back", "Lower Back - Lumbar Region"},
		{"Lumbar strain", "Lower Back - Lumbar Region"},
		{"between the shoulder blades", "Upper Back - Thoracic Region"},
		{"my back hurts", "Back - General"},
		{"Right shoulder clicks", "Right Shoulder Joint"},
		{"shoulders are sore", "Shoulder Joint"},
		{"stiff neck this morning", "Neck - Cervical Region"},
		{"left knee swelling", "Left Knee Joint"},
		{"pulled a hamstring", "Hamstring Muscles"},
		{"tight calves", "Lower Leg - Calf"},
		{"tennis elbow", "Elbow Joint"},
		{"sore wrists from typing", "Wrist Joint"},
		{"rolled my ankle", "Ankle Joint"},
		{"heel pain in the morning", "Foot - Plantar Region"},
		{"hip flexor", "Hip Joint"},
		{"sciatica down my glute", "Gluteal Region"},
		{"chest tightness", "Chest - Pectoral Region"},
		{"I feel absolutely fine", GenericArea},
		{"joined the army", GenericArea},
		{"", GenericArea},
	}
	for _, tc := range tests {
		if got := DetectArea(tc.text); got != tc.want {
			t.Errorf("DetectArea(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestDetectAreaOrder(t *testing.T) {
	// back is checked before the shoulder group
	if got := DetectArea("shoulder and lower back"); got != "Lower Back - Lumbar Region" {
		t.Errorf("DetectArea() = %q", got)
	}
	// side specific beats generic within a group
	if got := DetectArea("knee pain, mostly the right knee"); got != "Right Knee Joint" {
		t.Errorf("DetectArea() = %q", got)
	}
}

func TestDetectSeverity(t *testing.T) {
	tests := []struct {
		text string
		want Severity
	}{
		{"sharp stabbing pain", SeveritySevere},
		{"a mild ache", SeverityMild},
		{"slightly sore", SeverityMild},
		{"mild most days but sometimes sharp", SeveritySevere},
		{"it hurts", SeverityModerate},
		{"", SeverityModerate},
	}
	for _, tc := range tests {
		if got := DetectSeverity(tc.text); got != tc.want {
			t.Errorf("DetectSeverity(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestIntensityFor(t *testing.T) {
	for s, want := range map[Severity]int{SeveritySevere: 6, SeverityModerate: 5, SeverityMild: 4} {
		if got := IntensityFor(s); got != want {
			t.Errorf("IntensityFor(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestFallbackTherapyPairing(t *testing.T) {
	tests := []struct {
		text      string
		primary   string
		secondary string
	}{
		{"tight muscles in my neck", "Heat Therapy", "EMS Stimulation"},
		{"swollen ankle after a sprain", "Cold Therapy", "Light Compression"},
		{"chronic knee arthritis", "Alternating Heat/EMS", "Low-Frequency Stimulation"},
		{"my wrist hurts", "Heat Therapy", "Light EMS"},
		// muscle group outranks inflammation
		{"tight and swollen calf", "Heat Therapy", "EMS Stimulation"},
	}
	for _, tc := range tests {
		got := Fallback(tc.text).Recommendations
		if got.PrimaryTherapy != tc.primary || got.SecondaryTherapy != tc.secondary {
			t.Errorf("Fallback(%q) = %s/%s, want %s/%s", tc.text, got.PrimaryTherapy, got.SecondaryTherapy, tc.primary, tc.secondary)
		}
	}
}

func TestInvalidInputResult(t *testing.T) {
	got := InvalidInputResult()
	if got.Success {
		t.Error("Success = true, want false")
	}
	if got.Confidence != 0 {
		t.Errorf("Confidence = %d", got.Confidence)
	}
	if got.ErrorReason != ErrMissingInput.Error() {
		t.Errorf("ErrorReason = %q", got.ErrorReason)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
