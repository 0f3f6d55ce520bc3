package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/mutation"
	"github.com/pstuifzand/scene-diff/internal/theme"
	"github.com/pstuifzand/scene-diff/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type diffOpts struct {
	records bool
	json    bool
	dump    bool
	summary bool
	verbose bool
	grep    string
	view    bool
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

func newDiffCmd(a *app) *cobra.Command {
	var opts diffOpts
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show the changes between two scene files",
		Example: `  # Describe changes node by node
  scene-diff diff before.json after.json

  # Print the mutation records as JSON, using the set-based strategy
  scene-diff diff -s set-based --json before.json after.json

  # Only records about nodes whose text looks like "button"
  scene-diff diff --records --grep button before.json after.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiff(cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&opts.records, "records", "r", false, "print the mutation records, one per line")
	flags.BoolVar(&opts.json, "json", false, "print the mutation records as a JSON array")
	flags.BoolVar(&opts.dump, "dump", false, "pretty-print the mutation records with their Go structure")
	flags.BoolVar(&opts.summary, "summary", false, "print counts only")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show full details, inline text changes")
	flags.StringVarP(&opts.grep, "grep", "g", "", "filter records: fuzzy text, /regexp/ or kind:NAME, space separated terms must all match")
	flags.BoolVar(&opts.view, "view", false, "browse the result in the terminal viewer")
	return cmd
}

func (a *app) runDiff(w io.Writer, oldPath, newPath string, opts diffOpts) error {
	old, new, err := a.loadPair(oldPath, newPath)
	if err != nil {
		return err
	}
	strategy, err := a.cfg.DiffStrategy()
	if err != nil {
		return err
	}
	records, result, err := mutation.Compute(strategy, old, new)
	if err != nil {
		return err
	}
	logrus.Debugf("%s: %d records for %d -> %d nodes", strategy.Algorithm(), len(records), old.Len(), new.Len())

	filtered := opts.grep != ""
	if filtered {
		m, err := mutation.ParseFilter(opts.grep)
		if err != nil {
			return err
		}
		records = mutation.Filter(records, new, m)
		logrus.Debugf("filter %s kept %d records", m, len(records))
	}

	if opts.view {
		lines := ui.RecordLines(records)
		if !opts.records && !filtered {
			lines = diff.BuildDiffLines(result, old, opts.verbose)
		}
		return a.view(lines, oldPath, newPath)
	}

	switch {
	case opts.json:
		data, err := json.MarshalIndent(mutation.Records(records), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case opts.dump:
		dumpConfig.Fdump(w, records)
		return nil
	case opts.summary:
		return writeSummary(w, result, records)
	case opts.records || filtered:
		writeRecords(w, records)
		return nil
	}

	if err := a.writeHeader(w, oldPath, newPath); err != nil {
		return err
	}
	if result.Empty() {
		fmt.Fprintln(w, "No changes.")
		return nil
	}
	writeLines(w, diff.BuildDiffLines(result, old, opts.verbose))
	return nil
}

func (a *app) writeHeader(w io.Writer, oldPath, newPath string) error {
	for _, f := range []struct{ mark, path string }{{"---", oldPath}, {"+++", newPath}} {
		t, err := modTime(f.path)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\t%s\n", f.mark, f.path, a.formatTime(t))
	}
	fmt.Fprintln(w)
	return nil
}

func writeRecords(w io.Writer, records []mutation.Record) {
	for _, r := range records {
		fmt.Fprintln(w, r)
	}
}

func writeLines(w io.Writer, lines []diff.DiffLine) {
	for _, line := range lines {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", line.Indent), line.Content)
	}
}

func writeSummary(w io.Writer, result *diff.Result, records []mutation.Record) error {
	added, removed, updated, moved := result.Counts()
	counts := mutation.Count(records)
	_, err := fmt.Fprintf(w,
		"nodes: %d added, %d removed, %d updated, %d moved\nrecords: %d add, %d remove, %d move, %d attributes, %d text\n",
		added, removed, updated, moved,
		counts[mutation.KindAdd], counts[mutation.KindRemove], counts[mutation.KindMove],
		counts[mutation.KindAttributes], counts[mutation.KindText])
	return err
}

func (a *app) view(lines []diff.DiffLine, oldPath, newPath string) error {
	t := theme.LoadThemeOrDefault(a.cfg.View.Theme)
	t.Apply(a.cfg.View.Colors)
	screen, err := ui.NewScreen(t)
	if err != nil {
		return err
	}
	defer screen.Close()

	rv := ui.NewRecordView()
	rv.Show(lines, oldPath, newPath)
	rv.Run(screen)
	return nil
}
