package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/skillset/internal/resolve"
	"github.com/outfitter-dev/skillset/internal/token"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <alias>",
	Short: "Resolve one alias and explain the outcome",
	Long: `Resolve a single alias the way the hook would and print the outcome.
Useful when tuning mappings or checking why a reference is ambiguous.
The alias may carry a namespace prefix ("project:deploy") and may omit
the sigil.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(_ *cobra.Command, args []string) error {
	cfg, store, err := loadPipeline()
	if err != nil {
		return err
	}

	raw := args[0]
	if !strings.HasPrefix(raw, cfg.Sigil) {
		raw = cfg.Sigil + raw
	}
	toks := token.Tokenize(raw, token.Options{Sigil: cfg.Sigil})
	if len(toks) != 1 {
		return fmt.Errorf("not a valid skill reference: %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := store.Load(ctx, cfg.CacheTTL)
	if err != nil {
		return err
	}

	res := resolve.Resolve(toks[0], snap, cfg)
	printSection(fmt.Sprintf("resolve %s", raw))
	switch res.Kind {
	case resolve.KindResolved:
		printOK(res.Skill.Ref, res.Skill.Path)
	case resolve.KindAmbiguous:
		printWarn("", fmt.Sprintf("%q is ambiguous between %d skills:", res.Alias, len(res.Candidates)))
		for _, c := range res.Candidates {
			printInfo("", fmt.Sprintf("[%.3f] %s", c.Score, c.Skill.Ref))
		}
	case resolve.KindUnmatched:
		printMiss("", fmt.Sprintf("no skill matches %q", res.Alias))
		for _, c := range res.Suggestions {
			printInfo("", fmt.Sprintf("did you mean %s? [%.3f]", c.Skill.Ref, c.Score))
		}
	}
	return nil
}
