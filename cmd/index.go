package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/skillset/internal/skills"
)

var flagIndexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the skill index cache",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Invalidate the cache before rebuilding")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(_ *cobra.Command, _ []string) error {
	cfg, store, err := loadPipeline()
	if err != nil {
		return err
	}

	if flagIndexForce {
		if err := store.Invalidate(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap, err := store.Rebuild(ctx, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	printSection("skillset index")
	counts := map[string]int{}
	for ref := range snap.Skills {
		counts[skills.RefNamespace(ref)]++
	}
	namespaces := make([]string, 0, len(counts))
	for ns := range counts {
		namespaces = append(namespaces, ns)
	}
	sort.Slice(namespaces, func(i, j int) bool {
		return skills.NamespaceRank(namespaces[i]) < skills.NamespaceRank(namespaces[j])
	})
	for _, ns := range namespaces {
		printOK(ns, fmt.Sprintf("%d skill(s)", counts[ns]))
	}
	if len(snap.Skills) == 0 {
		printMiss("", "no skills found under the configured roots")
	}
	for _, c := range snap.Collisions {
		printWarn("", fmt.Sprintf("collision on %s: kept %s, ignored %s", c.Ref, c.Winner, c.Loser))
	}
	for _, s := range snap.Skipped {
		printSkip("", fmt.Sprintf("root skipped: %s (%s)", s.Path, s.Reason))
	}
	printInfo("", fmt.Sprintf("snapshot %s (%d skill(s) total)", snap.BuildID, len(snap.Skills)))
	return nil
}
