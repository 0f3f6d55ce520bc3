package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/mutation"
	"github.com/pstuifzand/scene-diff/internal/storage"
	"github.com/spf13/cobra"
)

type applyOpts struct {
	recordsFile string
	output      string
}

func newApplyCmd(a *app) *cobra.Command {
	var opts applyOpts
	cmd := &cobra.Command{
		Use:   "apply OLD NEW",
		Short: "Apply the records between two scenes to a mirror of OLD and verify it against NEW",
		Example: `  scene-diff apply before.json after.json
  scene-diff diff --json before.json after.json > batch.json
  scene-diff apply --records batch.json --output mirror.txt before.json after.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVar(&opts.recordsFile, "records", "", "read the record batch from a JSON file instead of computing it")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the mirror scene to this file")
	return cmd
}

// runApply verifies with exact content equality, so scenes are loaded
// without the configured comparator.
func (a *app) runApply(w io.Writer, oldPath, newPath string, opts applyOpts) error {
	old, err := storage.LoadSnapshot(oldPath)
	if err != nil {
		return err
	}
	new, err := storage.LoadSnapshot(newPath)
	if err != nil {
		return err
	}

	var records []mutation.Record
	if opts.recordsFile != "" {
		data, err := os.ReadFile(opts.recordsFile)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", opts.recordsFile)
		}
		var batch mutation.Records
		if err := json.Unmarshal(data, &batch); err != nil {
			return errors.Wrapf(err, "parsing %s", opts.recordsFile)
		}
		records = batch
	} else {
		strategy, err := a.cfg.DiffStrategy()
		if err != nil {
			return err
		}
		if records, _, err = mutation.Compute(strategy, old, new); err != nil {
			return err
		}
	}

	m := mutation.NewMirror(old)
	if err := m.Apply(records...); err != nil {
		return err
	}
	if opts.output != "" {
		s, err := m.Snapshot()
		if err != nil {
			return err
		}
		if err := storage.SaveSnapshot(opts.output, s); err != nil {
			return err
		}
	}
	if err := m.Matches(new); err != nil {
		return errors.Wrapf(err, "mirror does not match %s", newPath)
	}
	_, err = fmt.Fprintf(w, "applied %d records, mirror matches %s (%d nodes)\n", len(records), newPath, m.Len())
	return err
}
