package main

import (
	"fmt"
	"io"

	"aipm/internal/store"
	"aipm/internal/ux"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded checks",
	Long: `Lists previous check runs, newest first. Run IDs may be abbreviated to
any unique prefix of at least four characters.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the report of a recorded check",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded check",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list (0 for all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func openStore() (*store.Store, error) {
	c := currentConfig()
	if !c.Store.Enabled {
		return nil, fmt.Errorf("history is disabled (store.enabled: false)")
	}
	return store.Open(c.Store.Path)
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.List(commandContext(cmd), historyLimit)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), ux.RenderHistory(runs, ux.DefaultStyles()))
	return err
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := io.WriteString(out, ux.RenderRunHeader(run)); err != nil {
		return err
	}
	return writeReport(out, run.Report, run.Catalog, formatText, nil)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(commandContext(cmd), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
	return nil
}
