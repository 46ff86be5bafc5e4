package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"aipm/internal/analysis"
	"aipm/internal/articulation"
	"aipm/internal/document"
	"aipm/internal/logging"
	"aipm/internal/perception"
	"aipm/internal/rules"
	"aipm/internal/store"
	"aipm/internal/ux"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Output formats accepted by --format.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// checkOptions carries the flags shared by check and watch.
type checkOptions struct {
	catalog  string
	parallel int
	format   string
	save     bool
	progress bool
}

// checkResult is what one check produced.
type checkResult struct {
	report  analysis.Report
	catalog *rules.Catalog
	runID   string
	parsing articulation.InterpreterStats
}

var (
	checkCatalog  string
	checkParallel int
	checkFormat   string
	checkNoSave   bool
	checkFail     bool
)

var checkCmd = &cobra.Command{
	Use:   "check <document>",
	Short: "Check a document against a rule catalog",
	Long: `Extracts the document's text, asks the model to judge every rule in the
catalog and prints the report. The run is recorded in the history database
unless --no-save is given or the store is disabled.

Examples:
  aipm check manuscript.docx
  aipm check paper.html --catalog ./house-style.yaml --format markdown
  aipm check draft.md --parallel 4 --fail`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd, &checkCatalog, &checkParallel, &checkFormat)
	checkCmd.Flags().BoolVar(&checkNoSave, "no-save", false, "Do not record the run in history")
	checkCmd.Flags().BoolVar(&checkFail, "fail", false, "Exit non-zero when any rule fails")
}

func addCheckFlags(cmd *cobra.Command, catalog *string, parallel *int, format *string) {
	cmd.Flags().StringVar(catalog, "catalog", "", "Built-in catalog name or catalog YAML path (default: analysis.catalog)")
	cmd.Flags().IntVarP(parallel, "parallel", "p", 0, "Rules evaluated concurrently per group (default: analysis.parallel_threads)")
	cmd.Flags().StringVarP(format, "format", "f", formatText, "Output format: text, markdown or json")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := resolveCheckOptions(checkCatalog, checkParallel, checkFormat)
	if err != nil {
		return err
	}
	opts.save = !checkNoSave
	opts.progress = true

	res, err := checkDocument(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
	if err != nil {
		return err
	}
	if checkFail && res.report.Failed() > 0 {
		return fmt.Errorf("%w: %s", errRulesFailed, res.report.Summary())
	}
	return nil
}

// resolveCheckOptions fills unset flags from the config.
func resolveCheckOptions(catalog string, parallel int, format string) (checkOptions, error) {
	c := currentConfig()
	opts := checkOptions{catalog: catalog, parallel: parallel, format: format}
	if opts.catalog == "" {
		opts.catalog = c.Analysis.Catalog
	}
	if opts.parallel <= 0 {
		opts.parallel = c.Analysis.ParallelThreads
	}
	switch opts.format {
	case "", formatText:
		opts.format = formatText
	case formatMarkdown, "md":
		opts.format = formatMarkdown
	case formatJSON:
	default:
		return opts, fmt.Errorf("unknown format %q (want text, markdown or json)", format)
	}
	return opts, nil
}

// checkDocument extracts path, evaluates the catalog against it, writes the
// rendered report to out and records the run.
func checkDocument(ctx context.Context, out, errOut io.Writer, path string, opts checkOptions) (*checkResult, error) {
	content, err := document.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	cat, err := rules.Resolve(opts.catalog)
	if err != nil {
		return nil, err
	}

	client, err := newClient(ctx, currentConfig())
	if err != nil {
		return nil, err
	}

	interpreter := articulation.NewInterpreter()
	start := time.Now()
	analyze := func(ctx context.Context, progress func(analysis.Progress)) (analysis.Report, error) {
		analyzer := analysis.New(client,
			analysis.WithParallelThreads(opts.parallel),
			analysis.WithProgress(progress),
			analysis.WithInterpreter(interpreter),
		)
		return analyzer.AnalyzeRules(ctx, content, cat.Rules)
	}

	var report analysis.Report
	if opts.progress && opts.format != formatJSON && isTerminal(errOut) {
		label := fmt.Sprintf("Checking %s against %s", filepath.Base(path), cat.Name)
		report, err = ux.RunWithProgress(ctx, errOut, label, len(cat.Rules), analyze)
	} else {
		report, err = analyze(ctx, nil)
	}
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	parsing := interpreter.Stats()

	logger.Info("check finished",
		zap.String("document", path),
		zap.String("catalog", cat.Name),
		zap.Int("passed", report.Passed()),
		zap.Int("total", len(report)),
		zap.Duration("elapsed", elapsed))
	logger.Debug("response parsing",
		zap.Int64("direct", parsing.DirectParses),
		zap.Int64("fenced", parsing.FencedParses),
		zap.Int64("extracted", parsing.ExtractedParses),
		zap.Int64("failures", parsing.ParseFailures))

	order := ruleNames(cat.Rules)
	if err := writeReport(out, report, cat.Name, opts.format, order); err != nil {
		return nil, err
	}

	res := &checkResult{report: report, catalog: cat, parsing: parsing}
	if opts.save && currentConfig().Store.Enabled {
		id, err := saveRun(ctx, store.Run{
			Document:        absPath(path),
			Catalog:         cat.Name,
			Model:           perception.ModelOf(client),
			ParallelThreads: opts.parallel,
			Duration:        elapsed,
			Report:          report,
		})
		if err != nil {
			logging.StoreError("failed to record run for %s: %v", path, err)
			fmt.Fprintf(errOut, "warning: run not saved: %v\n", err)
		} else {
			res.runID = id
			logging.StoreDebug("recorded run %s", id)
		}
	}
	return res, nil
}

func writeReport(out io.Writer, report analysis.Report, title, format string, order []string) error {
	switch format {
	case formatJSON:
		data, err := ux.RenderJSON(report)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case formatMarkdown:
		md := ux.RenderMarkdown(report, title, order...)
		if isTerminal(out) {
			rendered, err := ux.RenderTerminalMarkdown(md, terminalWidth(out))
			if err != nil {
				return err
			}
			md = rendered
		}
		_, err := io.WriteString(out, md)
		return err
	default:
		text := ux.RenderText(report, order...)
		if isTerminal(out) {
			text = ux.RenderStyledText(report, ux.DefaultStyles(), order...)
		}
		_, err := io.WriteString(out, text)
		return err
	}
}

func saveRun(ctx context.Context, run store.Run) (string, error) {
	s, err := store.Open(currentConfig().Store.Path)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Save(ctx, run)
}

func ruleNames(rs []rules.Rule) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name()
	}
	return names
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
