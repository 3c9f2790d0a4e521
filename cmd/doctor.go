package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/skillset/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that skillset's configuration, scan roots, and index cache are in
working order. Run this command when something seems wrong, or before
filing a bug report.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("skillset doctor")
	fmt.Println()

	// ── Check 1: config files parse ───────────────────────────────────────
	fmt.Println("[ config ]")
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	userPath, localPath, projectPath, err := config.ScopePaths(cwd)
	if err != nil {
		failD("cannot determine config paths: %v", err)
	} else {
		for _, scope := range []struct{ name, path string }{
			{"user", userPath},
			{"project.local", localPath},
			{"project", projectPath},
		} {
			if _, statErr := os.Stat(scope.path); os.IsNotExist(statErr) {
				printSkip(scope.name, "not present (defaults apply)")
			} else {
				printOK(scope.name, scope.path)
			}
		}
	}
	cfg, loadErr := config.LoadEffective(cwd)
	if loadErr != nil {
		failD("config does not load: %v", loadErr)
	} else {
		printOK("", fmt.Sprintf("effective mode: %s, sigil: %q, %d mapping(s)", cfg.Mode, cfg.Sigil, len(cfg.Mappings)))
	}
	fmt.Println()

	// ── Check 2: scan roots reachable ─────────────────────────────────────
	fmt.Println("[ scan roots ]")
	if loadErr == nil {
		reachable := 0
		for _, root := range cfg.ScanRoots {
			info, err := os.Stat(root.Path)
			switch {
			case os.IsNotExist(err):
				printMiss(root.Namespace, fmt.Sprintf("%s does not exist", root.Path))
			case err != nil:
				printWarn(root.Namespace, fmt.Sprintf("%s: %v", root.Path, err))
			case !info.IsDir():
				failD("[%s] %s is not a directory", root.Namespace, root.Path)
			default:
				printOK(root.Namespace, root.Path)
				reachable++
			}
		}
		if reachable == 0 {
			failD("no scan root is reachable — indexing will fail")
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 3: index cache ──────────────────────────────────────────────
	fmt.Println("[ cache ]")
	if loadErr == nil {
		_, store, err := loadPipeline()
		if err != nil {
			failD("cannot open cache: %v", err)
		} else if snap, err := store.LoadStale(); err != nil {
			printMiss("", "no cached snapshot yet — run 'skillset index'")
		} else {
			age := snap.Age(time.Now()).Round(time.Second)
			if age > cfg.CacheTTL {
				printWarn("", fmt.Sprintf("snapshot %s is stale (%s old, ttl %s)", snap.BuildID, age, cfg.CacheTTL))
			} else {
				printOK("", fmt.Sprintf("snapshot %s is fresh (%s old, %d skill(s))", snap.BuildID, age, len(snap.Skills)))
			}
			for _, c := range snap.Collisions {
				printWarn("", fmt.Sprintf("collision on %s: kept %s, ignored %s", c.Ref, c.Winner, c.Loser))
			}
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	if !allOK {
		return fmt.Errorf("doctor found problems — see above")
	}
	fmt.Println("  All checks passed.")
	return nil
}
