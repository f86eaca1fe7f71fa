// Package server implements the daemon's local control-plane listener.
//
// The wire protocol is deliberately small: a fragment of HTTP/1.1 just rich
// enough for the hook scripts' curl calls. Only the request line and an
// optional body after the blank-line separator are parsed; there is no
// chunked encoding and no keep-alive — every connection carries exactly one
// request and is closed after the response.
package server

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// readTimeout bounds how long a single connection may take to deliver its
// request. A stuck producer must never wedge the accept loop's workers.
const readTimeout = 5 * time.Second

// maxBodySize caps the request body; hook payloads are small.
const maxBodySize = 1 << 20

// Handler processes one routed request.
type Handler func(body []byte) response

// Server accepts connections on a fixed loopback port and routes requests.
// Network I/O is concurrent (one goroutine per connection) but the handlers
// hand off into the store's serialized mutation path.
type Server struct {
	port   int
	routes map[string]Handler

	mu       sync.Mutex
	listener net.Listener
	running  bool

	wg sync.WaitGroup
}

// New creates a server for the given port. Register routes before Start.
func New(port int) *Server {
	return &Server{
		port:   port,
		routes: make(map[string]Handler),
	}
}

// Handle registers a handler for "METHOD /path".
func (s *Server) Handle(method, path string, h Handler) {
	s.routes[method+" "+path] = h
}

// Start binds the loopback port and begins accepting connections.
// A bind failure (typically a second daemon instance) is returned to the
// caller, which keeps the process alive in a degraded, listener-less state.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind control-plane port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.listener = ln
	// Get actual port if dynamically allocated (port 0, used by tests)
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Running reports whether the listener is accepting connections.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop closes the listener and waits for in-flight connections.
func (s *Server) Stop() {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.running = false
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed during shutdown, or a transient accept error.
			s.mu.Lock()
			closed := s.listener == nil
			s.mu.Unlock()
			if closed {
				return
			}
			log.Printf("Accept error: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn parses one request, routes it, writes one response, and closes.
// A bad connection is isolated here: whatever happens, the connection ends
// and the process carries on.
func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic handling connection: %v", r)
		}
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	method, path, body, err := readRequest(conn)
	if err != nil {
		writeResponse(conn, badRequest(err.Error()))
		return
	}

	handler, ok := s.routes[method+" "+path]
	if !ok {
		writeResponse(conn, notFound())
		return
	}
	writeResponse(conn, handler(body))
}

// readRequest parses the request line, scans headers for Content-Length,
// and reads the body best-effort.
func readRequest(conn net.Conn) (method, path string, body []byte, err error) {
	reader := bufio.NewReader(io.LimitReader(conn, maxBodySize))

	requestLine, err := reader.ReadString('\n')
	if err != nil {
		return "", "", nil, fmt.Errorf("malformed request line")
	}
	parts := strings.Fields(strings.TrimSpace(requestLine))
	if len(parts) < 2 {
		return "", "", nil, fmt.Errorf("malformed request line")
	}
	method, path = parts[0], parts[1]

	// Strip any query string; routing is on the bare path.
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	contentLength := -1
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Producer closed after the request line; treat as header end.
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				contentLength = n
			}
		}
	}

	switch {
	case contentLength > 0:
		body = make([]byte, contentLength)
		if _, err := io.ReadFull(reader, body); err != nil {
			return "", "", nil, fmt.Errorf("truncated request body")
		}
	case contentLength < 0:
		// No Content-Length: take whatever is already buffered rather than
		// blocking on a connection the producer may hold open.
		if n := reader.Buffered(); n > 0 {
			body = make([]byte, n)
			_, _ = io.ReadFull(reader, body)
		}
	}
	return method, path, body, nil
}

var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	500: "Internal Server Error",
}

func writeResponse(conn net.Conn, resp response) {
	text, ok := statusText[resp.status]
	if !ok {
		text = "OK"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", resp.status, text)
	b.WriteString("Content-Type: application/json\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(resp.body))
	b.WriteString("Connection: close\r\n\r\n")
	b.Write(resp.body)
	_ = conn.SetWriteDeadline(time.Now().Add(readTimeout))
	if _, err := io.WriteString(conn, b.String()); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
