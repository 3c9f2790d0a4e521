package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/skillset/internal/cache"
	"github.com/outfitter-dev/skillset/internal/config"
	"github.com/outfitter-dev/skillset/internal/skills"
)

var rootCmd = &cobra.Command{
	Use:          "skillset",
	Short:        "Skillset — deterministic skill injection for AI coding agents",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Skillset resolves $alias references in agent prompts to indexed SKILL.md
documents and splices their content into the agent's context.`,
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadPipeline builds the per-invocation configuration and cache store
// every command runs on.
func loadPipeline() (*config.Effective, *cache.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot determine working directory: %w", err)
	}
	cfg, err := config.LoadEffective(cwd)
	if err != nil {
		return nil, nil, err
	}
	cachePath, err := config.CachePath()
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewStore(cachePath, func(_ context.Context) (*skills.IndexResult, error) {
		return skills.BuildIndex(cfg.ScanRoots, cfg.Excludes)
	})
	return cfg, store, nil
}
