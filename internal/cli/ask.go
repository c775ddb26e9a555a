package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/therapy-advisor/internal/middleware"
)

type answerOutput struct {
	Question string `json:"question" yaml:"question"`
	Context  string `json:"context,omitempty" yaml:"context,omitempty"`
	Answer   string `json:"answer" yaml:"answer"`
}

func (a *app) newAskCmd() *cobra.Command {
	var qctx string
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a follow-up question about a therapy plan",
		Long: `Ask a follow-up question about a therapy plan.

Examples:
  therapyctl ask "how long should I keep the ice on?"
  therapyctl ask "can I train tomorrow?" --context "Knee Joint/mild/Cold Therapy"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := middleware.SanitizeString(strings.Join(args, " "))
			qctx := middleware.SanitizeString(qctx)
			if err := middleware.ValidateText("question", question); err != nil {
				return err
			}
			if err := middleware.ValidateText("context", qctx); err != nil {
				return err
			}

			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			stop := a.spin(cmd.ErrOrStderr(), "Thinking...")
			answer := svc.AskQuestion(cmd.Context(), question, qctx)
			stop()

			out := answerOutput{Question: question, Context: qctx, Answer: answer}
			return render(cmd.OutOrStdout(), a.flags.output, out, func(w io.Writer) {
				fmt.Fprintln(w)
				color.New(color.FgCyan, color.Bold).Fprintln(w, "Answer")
				fmt.Fprintln(w, answer)
			})
		},
	}
	cmd.Flags().StringVar(&qctx, "context", "", `Current plan as "area/severity/therapy"`)
	return cmd
}
