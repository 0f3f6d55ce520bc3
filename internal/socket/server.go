package socket

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// ResponseTimeout bounds how long a connection waits for the consumer to
// answer a synchronous command.
const ResponseTimeout = 10 * time.Second

// Server is a Unix socket server accepting frames from node suppliers
type Server struct {
	socketPath string
	listener   net.Listener
	msgChan    chan Message
	stopChan   chan struct{}
}

// SocketDir returns the directory holding the sockets of running servers.
func SocketDir() string {
	// Use XDG_RUNTIME_DIR if available, otherwise fall back to ~/.local/share
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "scene-diff")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "scene-diff")
}

// DefaultSocketPath returns the socket path of the server run by pid.
func DefaultSocketPath(pid int) string {
	return filepath.Join(SocketDir(), fmt.Sprintf("scene-diff-%d.sock", pid))
}

// NewServer listens on socketPath, replacing a stale socket file.
func NewServer(socketPath string) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create socket directory")
	}

	if err := os.RemoveAll(socketPath); err != nil {
		return nil, errors.Wrap(err, "failed to remove existing socket")
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to listen on socket")
	}

	logrus.Infof("socket server listening on %s", socketPath)

	return &Server{
		socketPath: socketPath,
		listener:   listener,
		msgChan:    make(chan Message, 10),
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins accepting connections on the socket
func (s *Server) Start() {
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
				logrus.Warnf("error accepting connection: %v", err)
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

func reply(enc *json.Encoder, r *Response) {
	if err := enc.Encode(r); err != nil {
		logrus.Debugf("socket: writing response: %v", err)
	}
}

// handleConnection reads one message and writes one response
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var msg Message
	if err := decoder.Decode(&msg); err != nil {
		if err != io.EOF {
			logrus.Warnf("error decoding message: %v", err)
		}
		reply(encoder, &Response{Message: fmt.Sprintf("Invalid message format: %v", err)})
		return
	}

	switch msg.Command {
	case "":
		reply(encoder, &Response{Message: "Missing command field"})
		return
	case CommandFrame, CommandReset:
	default:
		reply(encoder, &Response{Message: fmt.Sprintf("Unknown command %q", msg.Command)})
		return
	}
	if msg.Session == "" {
		msg.Session = DefaultSession
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	if synchronous(msg.Command) {
		msg.ResponseChan = make(chan *Response, 1)
	}

	select {
	case s.msgChan <- msg:
		if msg.ResponseChan == nil {
			reply(encoder, &Response{Success: true, Message: "Command queued"})
			return
		}
		select {
		case response := <-msg.ResponseChan:
			reply(encoder, response)
		case <-time.After(ResponseTimeout):
			reply(encoder, &Response{Message: "Command timed out"})
		case <-s.stopChan:
			reply(encoder, &Response{Message: "Server is shutting down"})
		}
	case <-s.stopChan:
		reply(encoder, &Response{Message: "Server is shutting down"})
	}
}

// Messages returns the channel for receiving messages
func (s *Server) Messages() <-chan Message {
	return s.msgChan
}

// SocketPath returns the path to the Unix socket
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Stop stops the server and removes the socket file
func (s *Server) Stop() {
	close(s.stopChan)
	if s.listener != nil {
		s.listener.Close()
	}
	if s.socketPath != "" {
		os.Remove(s.socketPath)
	}
	logrus.Info("socket server stopped")
}
