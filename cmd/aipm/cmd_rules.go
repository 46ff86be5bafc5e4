package main

import (
	"fmt"
	"io"

	"aipm/internal/rules"
	"aipm/internal/ux"

	"github.com/spf13/cobra"
)

var (
	rulesCatalog string
	rulesList    bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the rules of a catalog",
	Long: `Prints the rules a check would evaluate, in catalog order.

Examples:
  aipm rules                       # the configured catalog
  aipm rules --catalog ./mine.yaml # a catalog file
  aipm rules --list                # built-in catalog names`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesCatalog, "catalog", "", "Built-in catalog name or catalog YAML path (default: analysis.catalog)")
	rulesCmd.Flags().BoolVar(&rulesList, "list", false, "List the built-in catalogs")
}

func runRules(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if rulesList {
		_, err := io.WriteString(out, ux.RenderCatalogNames(rules.BuiltinNames(), currentConfig().Analysis.Catalog))
		return err
	}

	ref := rulesCatalog
	if ref == "" {
		ref = currentConfig().Analysis.Catalog
	}
	cat, err := rules.Resolve(ref)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, ux.RenderCatalog(cat, ux.DefaultStyles()))
	return err
}
