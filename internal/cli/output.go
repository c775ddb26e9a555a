package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/infra/ai/prompt"
)

const (
	formatHuman = "human"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatHuman, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (human, json, yaml)", format)
}

func render(w io.Writer, format string, v any, human func(io.Writer)) error {
	switch format {
	case formatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case formatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		human(w)
		return nil
	}
}

func displayResult(w io.Writer, r domain.AnalysisResult) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(w)
	if !r.Success {
		color.New(color.FgRed, color.Bold).Fprintf(w, "Analysis failed: %s\n", r.ErrorReason)
		return
	}

	bold.Fprint(w, "Area:       ")
	fmt.Fprintln(w, r.DetectedArea)
	bold.Fprint(w, "Severity:   ")
	severityColor(r.Severity).Fprintln(w, strings.ToUpper(string(r.Severity)))
	bold.Fprint(w, "Confidence: ")
	fmt.Fprintf(w, "%d%%\n\n", r.Confidence)

	rec := r.Recommendations
	cyan.Fprintln(w, "Recommended therapy")
	fmt.Fprintf(w, "   Primary:     %s\n", rec.PrimaryTherapy)
	fmt.Fprintf(w, "   Secondary:   %s\n", rec.SecondaryTherapy)
	fmt.Fprintf(w, "   Intensity:   %d/10\n", rec.Intensity)
	fmt.Fprintf(w, "   Duration:    %d min\n", rec.DurationMinutes)
	fmt.Fprintf(w, "   Temperature: %s\n", rec.TemperatureLabel)
	fmt.Fprintf(w, "   Frequency:   %s\n\n", rec.FrequencyLabel)

	if len(r.AnalysisNotes) > 0 {
		cyan.Fprintln(w, "Notes")
		for i, n := range r.AnalysisNotes {
			fmt.Fprintf(w, "   %d. %s\n", i+1, n)
		}
		fmt.Fprintln(w)
	}
	if len(r.Precautions) > 0 {
		yellow.Fprintln(w, "Precautions")
		for i, p := range r.Precautions {
			fmt.Fprintf(w, "   %d. %s\n", i+1, p)
		}
		fmt.Fprintln(w)
	}

	if r.ErrorReason != "" {
		fmt.Fprintln(w, color.HiBlackString("Note: %s", r.ErrorReason))
	}
	summary := prompt.Summary(r.DetectedArea, string(r.Severity), rec.PrimaryTherapy)
	fmt.Fprintf(w, "Follow up: %s\n", color.CyanString(`therapyctl ask "..." --context %q`, summary))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintln(w, color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func severityColor(s domain.Severity) *color.Color {
	switch s {
	case domain.SeveritySevere:
		return color.New(color.FgRed, color.Bold)
	case domain.SeverityModerate:
		return color.New(color.FgYellow)
	case domain.SeverityMild:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}
