package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/pstuifzand/scene-diff/internal/storage"
	"github.com/spf13/cobra"
)

type captureOpts struct {
	framesDir string
	session   string
}

func newCaptureCmd(a *app) *cobra.Command {
	var opts captureOpts
	cmd := &cobra.Command{
		Use:     "capture SCENE",
		Short:   "Store a scene as the next frame of a session",
		Example: `  scene-diff capture --frames ./frames --session checkout screen.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCapture(cmd.OutOrStdout(), args[0], time.Now(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.framesDir, "frames", "frames", "frame directory")
	cmd.Flags().StringVar(&opts.session, "session", "default", "session id")
	return cmd
}

func (a *app) runCapture(w io.Writer, path string, at time.Time, opts captureOpts) error {
	root, err := loadRoot(path)
	if err != nil {
		return err
	}
	store, err := storage.NewFrameStore(opts.framesDir)
	if err != nil {
		return err
	}
	f, err := store.Write(root, at, opts.session)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\n", f.FilePath, a.formatTime(f.Timestamp))
	return err
}
