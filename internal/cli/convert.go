package cli

import (
	"fmt"
	"io"

	"github.com/pstuifzand/scene-diff/internal/storage"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert a scene file between the JSON, flat and indented formats",
		Long: `Convert a scene file. The format follows the extension: .json for a JSON
tree, .flat for the sectioned flat format and anything else for indented
text.`,
		Example: `  scene-diff convert screen.json screen.txt`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runConvert(w io.Writer, in, out string) error {
	s, err := storage.LoadSnapshot(in)
	if err != nil {
		return err
	}
	if err := storage.SaveSnapshot(out, s); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s (%s) -> %s (%s): %d nodes\n",
		in, storage.DetectFormat(in), out, storage.DetectFormat(out), s.Len())
	return err
}
