package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/skillset/internal/inject"
)

var (
	flagHookJSON    bool
	flagHookTimeout time.Duration
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Resolve skill references in a prompt read from stdin",
	Long: `Read the raw prompt text from stdin, resolve every skill reference, and
write the injected context to stdout. This is the entry point agent hook
integrations call on each prompt.

With --json the result is wrapped as {"text", "diagnostics", "exitCode"}
so callers can consume diagnostics programmatically.`,
	Args: cobra.NoArgs,
	RunE: runHook,
}

func init() {
	hookCmd.Flags().BoolVar(&flagHookJSON, "json", false, "Emit the result as JSON")
	hookCmd.Flags().DurationVar(&flagHookTimeout, "timeout", 5*time.Second, "Overall deadline for the resolution pass")
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, _ []string) error {
	cfg, store, err := loadPipeline()
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("cannot read prompt from stdin: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), flagHookTimeout)
	defer cancel()

	result, err := inject.New(cfg, store).Run(ctx, string(raw))
	if err != nil {
		return err
	}

	if flagHookJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		if result.Text != "" {
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
		}
		for _, d := range result.Diagnostics {
			line := fmt.Sprintf("%s: %s", d.Kind, d.Alias)
			if d.Alias == "" {
				line = fmt.Sprintf("%s: %s", d.Kind, d.Message)
			} else if len(d.Candidates) > 0 {
				line += " (candidates: " + strings.Join(d.Candidates, ", ") + ")"
			}
			fmt.Fprintf(os.Stderr, "  ⚠  %s\n", line)
		}
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("%d skill reference(s) could not be resolved in strict mode", countBlocking(result.Diagnostics))
	}
	return nil
}

func countBlocking(diags []inject.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Kind != inject.DiagCache {
			n++
		}
	}
	return n
}
