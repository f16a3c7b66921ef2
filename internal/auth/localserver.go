package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"sync"
	"time"

	"github.com/admobkit/admob/internal/log"
)

const (
	DefaultPort           = 8080
	DefaultMaxRequestSize = 8 << 10

	readChunkSize      = 1024
	defaultReadTimeout = 10 * time.Second
	drainTimeout       = time.Second
	drainLimit         = 64 << 10
)

const (
	msgSuccess       = "Authorization code was successfully retrieved."
	msgMissingCode   = "Failed to retrieve authorization code. Error: %s"
	msgStateMismatch = "State token does not match the expected state."
	msgParse         = "Failed to parse the authorization response."
	msgCancelled     = "Authorization was cancelled before the response was processed."
)

// CallbackResult holds the parameters of the one redirect request the
// listener accepted.
type CallbackResult struct {
	Code  string
	State string
	Error string
}

type ListenerOptions struct {
	// Addr defaults to 127.0.0.1:Port.
	Addr string
	Port int
	// Timeout bounds the wait for the browser redirect. Zero waits until ctx
	// is done.
	Timeout time.Duration
	// MaxRequestSize bounds the bytes read while looking for the request
	// line. Defaults to DefaultMaxRequestSize.
	MaxRequestSize int
	// ReadTimeout bounds reading from the accepted connection.
	ReadTimeout time.Duration
	Logger      *log.Logger
}

func (o ListenerOptions) addr() string {
	if o.Addr != "" {
		return o.Addr
	}

	return fmt.Sprintf("127.0.0.1:%d", o.Port)
}

// Listener accepts exactly one OAuth redirect on a local TCP port.
type Listener struct {
	listener       net.Listener
	timeout        time.Duration
	readTimeout    time.Duration
	maxRequestSize int
	logger         *log.Logger

	closeOnce sync.Once
	closeErr  error
}

// Bind listens on the configured local address. The port is held until
// Accept returns or Close is called.
func Bind(opts ListenerOptions) (*Listener, error) {
	addr := opts.addr()
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}

	l := &Listener{
		listener:       ln,
		timeout:        opts.Timeout,
		readTimeout:    opts.ReadTimeout,
		maxRequestSize: opts.MaxRequestSize,
		logger:         opts.Logger,
	}
	if l.maxRequestSize <= 0 {
		l.maxRequestSize = DefaultMaxRequestSize
	}
	if l.readTimeout <= 0 {
		l.readTimeout = defaultReadTimeout
	}
	if l.logger == nil {
		l.logger = log.NewTextLogger()
	}
	l.logger = l.logger.With("addr", ln.Addr().String())

	return l, nil
}

// ReceiveOne binds, accepts a single redirect request and releases the port.
func ReceiveOne(ctx context.Context, opts ListenerOptions, expectedState string) (*CallbackResult, error) {
	l, err := Bind(opts)
	if err != nil {
		return nil, err
	}

	return l.Accept(ctx, expectedState)
}

func (l *Listener) Port() int {
	return l.listener.Addr().(*net.TCPAddr).Port
}

// URL is the redirect URI to register with the provider.
func (l *Listener) URL() string {
	return fmt.Sprintf("http://%s", l.listener.Addr().String())
}

func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.listener.Close()
	})

	return l.closeErr
}

type acceptResult struct {
	conn net.Conn
	err  error
}

// Accept blocks until one connection arrives, answers it and closes both the
// connection and the listener. The browser always receives an HTML page, also
// when the returned error is non-nil.
func (l *Listener) Accept(ctx context.Context, expectedState string) (*CallbackResult, error) {
	defer func() {
		_ = l.Close()
	}()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	accepted := make(chan acceptResult, 1)
	go func() {
		conn, err := l.listener.Accept()
		accepted <- acceptResult{conn: conn, err: err}
	}()

	l.logger.Debug("waiting for authorization redirect")

	var conn net.Conn
	select {
	case <-ctx.Done():
		_ = l.Close()
		// a connection accepted in the meantime still gets a page
		if r := <-accepted; r.conn != nil {
			l.respondCancelled(r.conn)
		}

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrCancelled
	case r := <-accepted:
		if r.err != nil {
			return nil, fmt.Errorf("accepting redirect connection: %w", r.err)
		}
		conn = r.conn
	}
	defer func() {
		_ = conn.Close()
	}()

	logger := l.logger.With("remote", conn.RemoteAddr().String())
	_ = conn.SetDeadline(time.Now().Add(l.readTimeout))

	result, err := l.handle(conn, expectedState)

	msg := responseMessage(err)
	if werr := writeResponse(conn, msg); werr != nil {
		logger.Debug("error writing redirect response", "error", werr)
	}
	closeWriteAndDrain(conn)

	if err != nil {
		logger.Debug("authorization redirect rejected", "error", err)
		return nil, err
	}

	logger.Debug("authorization code received")
	return result, nil
}

func (l *Listener) respondCancelled(conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	_ = conn.SetDeadline(time.Now().Add(l.readTimeout))
	if err := writeResponse(conn, msgCancelled); err != nil {
		l.logger.Debug("error writing redirect response", "error", err)
	}
	closeWriteAndDrain(conn)
}

func (l *Listener) handle(r io.Reader, expectedState string) (*CallbackResult, error) {
	line, err := readRequestLine(r, l.maxRequestSize)
	if err != nil {
		return nil, err
	}

	params, err := ParseRawQuery(line)
	if err != nil {
		return nil, err
	}

	result := &CallbackResult{
		Code:  params["code"],
		State: params["state"],
		Error: params["error"],
	}

	if result.Code == "" {
		reason := result.Error
		if reason == "" {
			reason = "unknown"
		}
		return nil, &MissingCodeError{Reason: reason}
	}

	if result.State != expectedState {
		return nil, ErrStateMismatch
	}

	return result, nil
}

// readRequestLine reads until the first line feed, failing once max bytes
// have been read without one.
func readRequestLine(r io.Reader, max int) ([]byte, error) {
	var (
		buf   = make([]byte, 0, readChunkSize)
		chunk = make([]byte, readChunkSize)
	)

	for {
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return buf[:i+1], nil
		}
		if len(buf) >= max {
			return nil, &ParseError{Reason: fmt.Sprintf("request line exceeds %d bytes", max)}
		}

		n, err := r.Read(chunk[:min(len(chunk), max-len(buf))])
		buf = append(buf, chunk[:n]...)
		if err == nil {
			continue
		}

		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return buf[:i+1], nil
		}
		if errors.Is(err, io.EOF) && len(buf) > 0 {
			return buf, nil
		}

		return nil, &ParseError{Reason: "reading request", Err: err}
	}
}

func responseMessage(err error) string {
	var missing *MissingCodeError
	switch {
	case err == nil:
		return msgSuccess
	case errors.As(err, &missing):
		return fmt.Sprintf(msgMissingCode, missing.Reason)
	case errors.Is(err, ErrStateMismatch):
		return msgStateMismatch
	default:
		return msgParse
	}
}

func writeResponse(w io.Writer, msg string) error {
	body := fmt.Sprintf("<b>%s</b><p>Please check the console output.</p>\n", html.EscapeString(msg))

	_, err := fmt.Fprintf(w,
		"HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		len(body),
		body,
	)
	return err
}

// closeWriteAndDrain signals the end of the response and consumes what the
// client still sends, so closing does not reset the connection before the
// browser has read the page.
func closeWriteAndDrain(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}

	_ = conn.SetReadDeadline(time.Now().Add(drainTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, drainLimit))
}
