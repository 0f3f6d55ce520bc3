package socket

import (
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/pstuifzand/scene-diff/internal/mutation"
)

// Message is a request sent by a node supplier to a running capture server.
// Timestamp is the capture time in milliseconds since the epoch; zero means
// the time the server received the message.
type Message struct {
	Command   string      `json:"command"`
	Session   string      `json:"session,omitempty"` // Default: "default"
	Timestamp int64       `json:"timestamp,omitempty"`
	Root      *model.View `json:"root,omitempty"`

	// ResponseChan is set by the server for commands answered by the
	// consumer of Messages.
	ResponseChan chan *Response `json:"-"`
}

// Response is the server's answer to a Message
type Response struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Records mutation.Records `json:"records,omitempty"`
}

// Command types
const (
	// CommandFrame submits the next frame of a session. It is answered with
	// the records since the previous frame.
	CommandFrame = "frame"
	// CommandReset forgets the previous frame of a session.
	CommandReset = "reset"
)

// DefaultSession is used when a message names no session.
const DefaultSession = "default"

func synchronous(command string) bool {
	return command == CommandFrame
}
