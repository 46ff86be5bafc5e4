package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aipm/internal/watch"

	"github.com/spf13/cobra"
)

var (
	watchCatalog  string
	watchParallel int
	watchFormat   string
	watchDebounce time.Duration
	watchSave     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <document>",
	Short: "Re-check a document every time it is saved",
	Long: `Runs a check immediately and again after every save of the document.
Press Ctrl+C to stop. Runs are not recorded unless --save is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addCheckFlags(watchCmd, &watchCatalog, &watchParallel, &watchFormat)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period after a change before re-checking")
	watchCmd.Flags().BoolVar(&watchSave, "save", false, "Record every run in history")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := resolveCheckOptions(watchCatalog, watchParallel, watchFormat)
	if err != nil {
		return err
	}
	opts.save = watchSave

	path := args[0]
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	check := func(ctx context.Context) error {
		fmt.Fprintf(errOut, "\n[%s] checking %s\n", time.Now().Format("15:04:05"), path)
		_, err := checkDocument(ctx, out, errOut, path, opts)
		if err != nil && ctx.Err() == nil {
			fmt.Fprintf(errOut, "check failed: %v\n", err)
		}
		return err
	}

	w, err := watch.New(path, watchDebounce, check)
	if err != nil {
		return err
	}
	if _, err := os.Stat(w.Path()); err != nil {
		return err
	}

	_ = check(ctx)
	fmt.Fprintf(errOut, "Watching %s (Ctrl+C to stop)\n", w.Path())
	return w.Run(ctx)
}
