package socket

import (
	"context"
	"fmt"
	"time"

	"github.com/pstuifzand/scene-diff/internal/diff"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/pstuifzand/scene-diff/internal/mutation"
	"github.com/pstuifzand/scene-diff/internal/storage"
	"github.com/sirupsen/logrus"
)

// Recorder answers the messages of a Server. It keeps the last frame of
// every session, diffs each new frame against it and optionally stores the
// frames for a later replay.
type Recorder struct {
	strategy   diff.Strategy
	comparator model.Comparator
	store      *storage.FrameStore

	sessions map[string]*model.Snapshot
}

// NewRecorder returns a recorder diffing frames with strategy. Frames are
// written to store unless it is nil; a non-nil comparator is applied to
// every frame.
func NewRecorder(strategy diff.Strategy, comparator model.Comparator, store *storage.FrameStore) *Recorder {
	return &Recorder{
		strategy:   strategy,
		comparator: comparator,
		store:      store,
		sessions:   make(map[string]*model.Snapshot),
	}
}

// Run handles messages until ctx is done or msgs is closed.
func (r *Recorder) Run(ctx context.Context, msgs <-chan Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			response := r.Handle(msg)
			if msg.ResponseChan != nil {
				msg.ResponseChan <- response
			}
		}
	}
}

// Handle processes one message.
func (r *Recorder) Handle(msg Message) *Response {
	session := msg.Session
	if session == "" {
		session = DefaultSession
	}
	logrus.Debugf("socket message: command=%s session=%s", msg.Command, session)

	switch msg.Command {
	case CommandFrame:
		return r.frame(session, msg)
	case CommandReset:
		delete(r.sessions, session)
		return &Response{Success: true, Message: fmt.Sprintf("session %s reset", session)}
	}
	logrus.Warnf("unknown socket command: %s", msg.Command)
	return &Response{Message: fmt.Sprintf("Unknown command %q", msg.Command)}
}

func (r *Recorder) frame(session string, msg Message) *Response {
	cur, err := model.Flatten(msg.Root)
	if err != nil {
		logrus.Warnf("session %s: invalid frame: %v", session, err)
		return &Response{Message: fmt.Sprintf("Invalid frame: %v", err)}
	}
	if r.comparator != nil {
		cur = cur.WithComparator(r.comparator)
	}

	prev, ok := r.sessions[session]
	if !ok {
		prev = model.Empty
	}
	records, _, err := mutation.Compute(r.strategy, prev, cur)
	if err != nil {
		logrus.Errorf("session %s: diff failed: %v", session, err)
		return &Response{Message: fmt.Sprintf("Diff failed: %v", err)}
	}

	// Only frames that diffed cleanly are stored, so a replay of the store
	// sees the same sequence as the session.
	if r.store != nil {
		ts := time.UnixMilli(msg.Timestamp)
		if _, err := r.store.Write(msg.Root, ts, session); err != nil {
			logrus.Errorf("session %s: storing frame: %v", session, err)
			return &Response{Message: fmt.Sprintf("Storing frame failed: %v", err)}
		}
	}
	r.sessions[session] = cur

	logrus.WithFields(logrus.Fields{
		"session": session,
		"nodes":   cur.Len(),
		"records": len(records),
	}).Debug("frame recorded")
	return &Response{
		Success: true,
		Message: fmt.Sprintf("%d records", len(records)),
		Records: mutation.Records(records),
	}
}
