package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/skillset/internal/skills"
)

var listCmd = &cobra.Command{
	Use:   "list [namespace]",
	Short: "List indexed skills",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, args []string) error {
	cfg, store, err := loadPipeline()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := store.Load(ctx, cfg.CacheTTL)
	if err != nil {
		return err
	}

	namespace := ""
	if len(args) == 1 {
		namespace = args[0]
		if mapped, ok := cfg.NamespaceAliases[namespace]; ok {
			namespace = mapped
		}
	}

	refs := make([]string, 0, len(snap.Skills))
	for ref := range snap.Skills {
		if namespace != "" && skills.RefNamespace(ref) != namespace {
			continue
		}
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	if len(refs) == 0 {
		printMiss("", "no skills indexed — run 'skillset index'")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, ref := range refs {
		s := snap.Skills[ref]
		fmt.Fprintf(w, "%s\t%s\t%s\n", ref, s.Name, s.Description)
	}
	return w.Flush()
}
