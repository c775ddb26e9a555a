// Package cli implements therapyctl, a command line front end to the analysis service.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	apptherapy "github.com/bryanwahyu/therapy-advisor/internal/application/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/config"
	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/infra/ai/openai"
	"github.com/bryanwahyu/therapy-advisor/internal/logging"
)

// ClientFactory builds the model client from the loaded configuration.
type ClientFactory func(cfg *config.Config) domain.ModelClient

// DefaultClientFactory talks to the configured OpenAI compatible endpoint.
func DefaultClientFactory(cfg *config.Config) domain.ModelClient {
	return openai.NewClient(openai.Options{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Referer: cfg.AI.Referer,
		Title:   cfg.AI.Title,
		Timeout: cfg.AI.Timeout,
	})
}

type globalFlags struct {
	configPath string
	output     string
	offline    bool
	verbose    bool
}

type app struct {
	flags     globalFlags
	newClient ClientFactory
}

// NewRootCmd returns the therapyctl command tree.
func NewRootCmd(version string, newClient ClientFactory) *cobra.Command {
	if newClient == nil {
		newClient = DefaultClientFactory
	}
	a := &app{newClient: newClient}

	rootCmd := &cobra.Command{
		Use:   "therapyctl",
		Short: "AI-assisted heat and cold therapy advice",
		Long: `therapyctl analyzes a photo or a description of a sore body area and
recommends a therapy plan. When every remote model is unavailable it falls back
to offline keyword heuristics, so it always produces an answer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", config.PathFromEnv(), "Path to config file")
	pf.StringVarP(&a.flags.output, "output", "o", "human", "Output format (human, json, yaml)")
	pf.BoolVar(&a.flags.offline, "offline", false, "Skip remote models and use offline heuristics")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Log every model attempt")

	rootCmd.AddCommand(
		a.newAnalyzeCmd(),
		a.newAskCmd(),
		newVersionCmd(version),
	)
	return rootCmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "therapyctl version %s\n", version)
		},
	}
}

// service builds an analysis service for one command invocation.
func (a *app) service(cmd *cobra.Command) (*apptherapy.Service, error) {
	if err := checkFormat(a.flags.output); err != nil {
		return nil, err
	}
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if a.flags.verbose {
		level = "debug"
	}
	log := logging.New(level, cmd.ErrOrStderr())

	if a.flags.offline {
		return apptherapy.NewService(nil, nil, nil, log), nil
	}
	if cfg.AI.APIKey == "" {
		log.Warn("no AI API key configured, using offline heuristics")
		return apptherapy.NewService(nil, nil, nil, log), nil
	}
	return apptherapy.NewService(a.newClient(cfg), cfg.AI.AnalysisModels, cfg.AI.QuestionModels, log), nil
}

// spin shows a spinner on w for human output. It is a no-op unless w is a terminal.
func (a *app) spin(w io.Writer, suffix string) func() {
	f, ok := w.(*os.File)
	if a.flags.output != formatHuman || !ok {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriterFile(f))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
