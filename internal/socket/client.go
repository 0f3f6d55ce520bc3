package socket

import (
	"encoding/json"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
)

// Client sends frames to a capture server
type Client struct {
	socketPath string
	timeout    time.Duration
}

// FindRunningInstance finds the socket of the most recently started server
// in dir. It returns the socket path and the server's PID, or zero when the
// file name carries none.
func FindRunningInstance(dir string) (string, int, error) {
	var sockets []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Ignore errors, directory might not exist
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), "scene-diff-") && strings.HasSuffix(d.Name(), ".sock") {
			sockets = append(sockets, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return "", 0, errors.Wrap(err, "error scanning socket directory")
	}

	if len(sockets) == 0 {
		return "", 0, errors.New("no running scene-diff server found")
	}

	socketPath := sockets[0]
	if len(sockets) > 1 {
		var newestTime time.Time
		socketPath = ""
		for _, sock := range sockets {
			info, err := os.Stat(sock)
			if err != nil {
				continue
			}
			if info.ModTime().After(newestTime) {
				newestTime = info.ModTime()
				socketPath = sock
			}
		}
		if socketPath == "" {
			return "", 0, errors.New("no accessible socket found")
		}
	}

	pidStr := strings.TrimPrefix(filepath.Base(socketPath), "scene-diff-")
	pidStr = strings.TrimSuffix(pidStr, ".sock")
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		pid = 0
	}

	return socketPath, pid, nil
}

// NewClient creates a client for the server listening on socketPath
func NewClient(socketPath string) (*Client, error) {
	if _, err := os.Stat(socketPath); err != nil {
		return nil, errors.Wrap(err, "socket not found")
	}

	return &Client{
		socketPath: socketPath,
		timeout:    ResponseTimeout + 5*time.Second,
	}, nil
}

// Send sends a message to the server and returns the response
func (c *Client) Send(msg Message) (*Response, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to socket")
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, errors.Wrap(err, "failed to set deadline")
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return nil, errors.Wrap(err, "failed to send message")
	}

	var response Response
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "failed to receive response")
	}

	return &response, nil
}

// SendFrame submits root as the next frame of session. A zero ts lets the
// server pick the capture time.
func (c *Client) SendFrame(session string, root *model.View, ts time.Time) (*Response, error) {
	msg := Message{
		Command: CommandFrame,
		Session: session,
		Root:    root,
	}
	if !ts.IsZero() {
		msg.Timestamp = ts.UnixMilli()
	}
	return c.Send(msg)
}

// SendReset asks the server to forget the previous frame of session.
func (c *Client) SendReset(session string) (*Response, error) {
	return c.Send(Message{Command: CommandReset, Session: session})
}
