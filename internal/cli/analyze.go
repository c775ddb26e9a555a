package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/middleware"
)

// errAnalysisFailed makes the process exit non-zero after the result was printed.
var errAnalysisFailed = errors.New("analysis failed")

func (a *app) newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a photo or a description of a sore area",
	}
	cmd.AddCommand(a.newAnalyzeImageCmd(), a.newAnalyzeTextCmd())
	return cmd
}

func (a *app) newAnalyzeImageCmd() *cobra.Command {
	var hint string
	cmd := &cobra.Command{
		Use:   "image PATH",
		Short: "Analyze a photo of the affected area",
		Long: `Analyze a photo of the affected area.

Examples:
  # Analyze a photo
  therapyctl analyze image knee.jpg

  # Give the model a hint about the photo
  therapyctl analyze image shoulder.png --hint "left shoulder, hurts after lifting"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read photo: %w", err)
			}
			if len(data) > middleware.MaxImageBytes {
				return fmt.Errorf("photo exceeds %d bytes", middleware.MaxImageBytes)
			}
			return a.analyze(cmd, domain.AnalysisRequest{
				ImageData: domain.ImageFromBytes(data),
				Hint:      middleware.SanitizeString(hint),
			})
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "", "Free text describing the photo")
	return cmd
}

func (a *app) newAnalyzeTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text DESCRIPTION",
		Short: "Analyze a written description of the symptoms",
		Long: `Analyze a written description of the symptoms.

Examples:
  therapyctl analyze text "left shoulder, severe pain after gym"
  therapyctl analyze text lower back stiff in the morning -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := middleware.SanitizeString(strings.Join(args, " "))
			if err := middleware.ValidateText("description", desc); err != nil {
				return err
			}
			return a.analyze(cmd, domain.AnalysisRequest{Description: desc})
		},
	}
}

func (a *app) analyze(cmd *cobra.Command, req domain.AnalysisRequest) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}

	stop := a.spin(cmd.ErrOrStderr(), "Analyzing...")
	res := svc.Analyze(cmd.Context(), req)
	stop()

	if err := render(cmd.OutOrStdout(), a.flags.output, res, func(w io.Writer) { displayResult(w, res) }); err != nil {
		return err
	}
	if !res.Success {
		return errAnalysisFailed
	}
	return nil
}
