package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/socket"
	"github.com/pstuifzand/scene-diff/internal/storage"
	"github.com/spf13/cobra"
)

type serveOpts struct {
	socketPath string
	framesDir  string
}

func newServeCmd(a *app) *cobra.Command {
	var opts serveOpts
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept frames from node suppliers on a Unix socket",
		Long: `serve listens on a Unix socket for frames sent by node suppliers. Every
frame is diffed against the previous frame of its session and answered with
the mutation records. With --frames the frames are also stored for replay.`,
		Example: `  scene-diff serve --frames ./frames`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.socketPath, "socket", "", "socket path (default is a per-process socket in the runtime directory)")
	cmd.Flags().StringVar(&opts.framesDir, "frames", "", "store received frames in this directory")
	return cmd
}

func (a *app) runServe(ctx context.Context, w io.Writer, opts serveOpts) error {
	strategy, err := a.cfg.DiffStrategy()
	if err != nil {
		return err
	}
	cmp, err := a.cfg.NodeComparator()
	if err != nil {
		return err
	}
	var store *storage.FrameStore
	if opts.framesDir != "" {
		if store, err = storage.NewFrameStore(opts.framesDir); err != nil {
			return err
		}
	}

	path := opts.socketPath
	if path == "" {
		path = socket.DefaultSocketPath(os.Getpid())
	}
	server, err := socket.NewServer(path)
	if err != nil {
		return err
	}
	defer server.Stop()
	server.Start()

	if _, err := fmt.Fprintf(w, "listening on %s\n", server.SocketPath()); err != nil {
		return err
	}
	return socket.NewRecorder(strategy, cmp, store).Run(ctx, server.Messages())
}

type sendOpts struct {
	socketPath string
	session    string
	reset      bool
}

func newSendCmd(a *app) *cobra.Command {
	var opts sendOpts
	cmd := &cobra.Command{
		Use:   "send [SCENE]",
		Short: "Send a scene to a running server and print the records",
		Example: `  scene-diff send --session checkout screen.json
  scene-diff send --session checkout --reset`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.reset && len(args) == 0 {
				return errors.New("send needs a SCENE unless --reset is given")
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return a.runSend(cmd.OutOrStdout(), path, opts)
		},
	}
	cmd.Flags().StringVar(&opts.socketPath, "socket", "", "server socket (default is the most recently started server)")
	cmd.Flags().StringVar(&opts.session, "session", socket.DefaultSession, "session id")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "forget the previous frame of the session before sending")
	return cmd
}

func (a *app) runSend(w io.Writer, path string, opts sendOpts) error {
	socketPath := opts.socketPath
	if socketPath == "" {
		var err error
		if socketPath, _, err = socket.FindRunningInstance(socket.SocketDir()); err != nil {
			return err
		}
	}
	client, err := socket.NewClient(socketPath)
	if err != nil {
		return err
	}

	if opts.reset {
		response, err := client.SendReset(opts.session)
		if err != nil {
			return err
		}
		if !response.Success {
			return errors.Newf("reset: %s", response.Message)
		}
	}
	if path == "" {
		return nil
	}

	root, err := loadRoot(path)
	if err != nil {
		return err
	}
	response, err := client.SendFrame(opts.session, root, time.Time{})
	if err != nil {
		return err
	}
	if !response.Success {
		return errors.Newf("send: %s", response.Message)
	}
	if len(response.Records) == 0 {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}
	writeRecords(w, response.Records)
	return nil
}
