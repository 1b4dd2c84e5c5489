package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aegis-hq/themis/pkg/config"
	"aegis-hq/themis/pkg/telemetry/logging"
)

var scanFlags struct {
	mode   string
	method string
}

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Run one text through the safety pipeline",
	Long: `Run a single text through sensitive-data processing and moderation.

The text is taken from the argument, or from stdin when no argument is
given. The processed text is written to stdout; findings and verdicts
are reported on stderr. The command exits non-zero when moderation
blocks the text.

Examples:
  # Scan an argument
  themis scan "my email is jane@example.com"

  # Scan stdin with deidentification
  cat prompt.txt | themis scan --mode deidentify --method masking`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanFlags.mode, "mode", "", "override DLP mode (inspect_only, deidentify, redact, disabled)")
	scanCmd.Flags().StringVar(&scanFlags.method, "method", "", "override deidentify method (masking, tokenization)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if scanFlags.mode != "" {
		cfg.DLP.Mode = scanFlags.mode
	}
	if scanFlags.method != "" {
		cfg.DLP.Method = scanFlags.method
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// One-shot scans log to stderr so stdout stays clean for the
	// processed text.
	logOpts := logging.FromConfig(cfg.Telemetry.Logging)
	logOpts.Writer = os.Stderr
	if !verbose {
		logOpts.Level = "warn"
	}
	if _, err := logging.Install(logOpts); err != nil {
		return err
	}

	text, err := scanInput(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no input text")
	}

	s, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	prompt, err := s.coordinator.RunPromptPhase(ctx, text)
	if err != nil {
		return err
	}

	result, err := s.coordinator.CompleteTurn(ctx, prompt, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if result != nil {
		fmt.Fprintln(os.Stderr, result.Summary())
	}

	if prompt.Blocked() {
		return fmt.Errorf("text blocked by moderation")
	}

	fmt.Println(prompt.TextToSend)
	return nil
}

// scanInput returns the argument text, or stdin when absent.
func scanInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
