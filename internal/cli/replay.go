package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/pstuifzand/scene-diff/internal/replay"
	"github.com/pstuifzand/scene-diff/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type replayOpts struct {
	framesDir string
	session   string
	keepEmpty bool
	firstID   int64
	output    string
}

func newReplayCmd(a *app) *cobra.Command {
	var opts replayOpts
	cmd := &cobra.Command{
		Use:   "replay [FRAME...]",
		Short: "Turn captured frames into replay events",
		Long: `Turn captured frames into rrweb style replay events: a full snapshot for
the first frame of a screen and incremental mutation events after that.

Frames are scene files given as arguments, taken in order with their
modification time as timestamp, or the frames of a frame directory written
by "scene-diff capture". Without --session every session in the directory is
replayed and the output maps session ids to their events.`,
		Example: `  scene-diff replay frame1.json frame2.json frame3.json
  scene-diff replay --frames ./frames --session checkout -o events.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (opts.framesDir == "") {
				return errors.New("give either frame files or --frames")
			}
			return a.runReplay(cmd.OutOrStdout(), args, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.framesDir, "frames", "", "frame directory to read")
	flags.StringVar(&opts.session, "session", "", "only replay this session of the frame directory")
	flags.BoolVar(&opts.keepEmpty, "keep-empty", false, "emit events for frames without changes")
	flags.Int64Var(&opts.firstID, "first-id", replay.DefaultFirstID, "first id of the document nodes wrapping a full snapshot")
	flags.StringVarP(&opts.output, "output", "o", "", "write the events to this file instead of stdout")
	return cmd
}

func (a *app) runReplay(w io.Writer, args []string, opts replayOpts) error {
	var out interface{}
	if opts.framesDir == "" {
		frames, err := loadFrameFiles(args)
		if err != nil {
			return err
		}
		events, err := a.replayFrames("", frames, opts)
		if err != nil {
			return err
		}
		out = events
	} else {
		sessions, err := loadFrameStore(opts.framesDir, opts.session)
		if err != nil {
			return err
		}
		if out, err = a.replaySessions(sessions, opts); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if opts.output != "" {
		return errors.Wrapf(os.WriteFile(opts.output, data, 0o644), "failed to write %s", opts.output)
	}
	_, err = w.Write(data)
	return err
}

// replaySessions replays each session with its own processor, in parallel.
// A single requested session prints as a plain event list.
func (a *app) replaySessions(sessions map[string][]replay.Frame, opts replayOpts) (interface{}, error) {
	var (
		mu  sync.Mutex
		out = make(map[string][]replay.Event, len(sessions))
		g   errgroup.Group
	)
	for session, frames := range sessions {
		session, frames := session, frames
		g.Go(func() error {
			events, err := a.replayFrames(session, frames, opts)
			if err != nil {
				return errors.Wrapf(err, "session %s", session)
			}
			mu.Lock()
			out[session] = events
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if opts.session != "" {
		return out[opts.session], nil
	}
	return out, nil
}

func (a *app) replayFrames(session string, frames []replay.Frame, opts replayOpts) ([]replay.Event, error) {
	strategy, err := a.cfg.DiffStrategy()
	if err != nil {
		return nil, err
	}
	p := replay.NewProcessor(strategy, replay.Options{KeepEmpty: opts.keepEmpty, FirstID: opts.firstID})
	events, err := p.ProcessFrames(frames)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []replay.Event{}
	}
	if len(frames) > 0 {
		logrus.WithField("session", session).Infof("replayed %d frames from %s to %s into %d events",
			len(frames), a.formatTime(frames[0].Timestamp), a.formatTime(frames[len(frames)-1].Timestamp), len(events))
	}
	return events, nil
}

func loadFrameFiles(paths []string) ([]replay.Frame, error) {
	frames := make([]replay.Frame, 0, len(paths))
	for _, path := range paths {
		root, err := loadRoot(path)
		if err != nil {
			return nil, err
		}
		ts, err := modTime(path)
		if err != nil {
			return nil, err
		}
		frames = append(frames, replay.Frame{Timestamp: ts, Root: root})
	}
	return frames, nil
}

// loadRoot reads a scene file holding a single tree
func loadRoot(path string) (*model.View, error) {
	s, err := storage.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	roots := model.Unflatten(s)
	switch len(roots) {
	case 0:
		return nil, nil
	case 1:
		return roots[0], nil
	}
	return nil, errors.Newf("%s: a frame holds one tree, found %d", path, len(roots))
}

func loadFrameStore(dir, session string) (map[string][]replay.Frame, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "frame directory %s", dir)
	}
	store, err := storage.NewFrameStore(dir)
	if err != nil {
		return nil, err
	}
	files, err := store.List(session)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Newf("no frames in %s", describeFrames(dir, session))
	}
	sessions := make(map[string][]replay.Frame)
	for _, f := range files {
		root, err := f.Load()
		if err != nil {
			return nil, err
		}
		sessions[f.SessionID] = append(sessions[f.SessionID], replay.Frame{Timestamp: f.Timestamp, Root: root})
	}
	return sessions, nil
}

func describeFrames(dir, session string) string {
	if session == "" {
		return dir
	}
	return fmt.Sprintf("%s for session %s", dir, session)
}
