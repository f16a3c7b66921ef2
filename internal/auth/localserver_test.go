package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/admobkit/admob/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type acceptOutcome struct {
	result *CallbackResult
	err    error
}

func startListener(t *testing.T, opts ListenerOptions, expectedState string) (*Listener, <-chan acceptOutcome) {
	t.Helper()

	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	opts.Logger = log.NewLogger(io.Discard)

	l, err := Bind(opts)
	require.NoError(t, err)

	done := make(chan acceptOutcome, 1)
	go func() {
		result, err := l.Accept(context.Background(), expectedState)
		done <- acceptOutcome{result: result, err: err}
	}()

	return l, done
}

func sendRaw(t *testing.T, addr, raw string) string {
	t.Helper()

	conn, err := net.Dial("tcp4", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)

	return string(resp)
}

func waitOutcome(t *testing.T, done <-chan acceptOutcome) acceptOutcome {
	t.Helper()

	select {
	case o := <-done:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not return")
		return acceptOutcome{}
	}
}

func assertPortReleased(t *testing.T, addr string) {
	t.Helper()

	ln, err := net.Listen("tcp4", addr)
	require.NoError(t, err, "port %s still held", addr)
	_ = ln.Close()
}

func Test_Listener_Accept(t *testing.T) {
	cases := []struct {
		Name          string
		Raw           string
		ExpectedState string
		WantCode      string
		WantErr       error
		WantBody      string
	}{
		{
			Name:          "success",
			Raw:           "GET /?code=ABC&state=S HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n",
			ExpectedState: "S",
			WantCode:      "ABC",
			WantBody:      "Authorization code was successfully retrieved.",
		},
		{
			Name:          "state mismatch",
			Raw:           "GET /?code=ABC&state=WRONG HTTP/1.1\r\n\r\n",
			ExpectedState: "S",
			WantErr:       ErrStateMismatch,
			WantBody:      "State token does not match the expected state.",
		},
		{
			Name:          "missing state",
			Raw:           "GET /?code=ABC HTTP/1.1\r\n\r\n",
			ExpectedState: "S",
			WantErr:       ErrStateMismatch,
			WantBody:      "State token does not match the expected state.",
		},
		{
			Name:          "provider error",
			Raw:           "GET /?error=access_denied&state=S HTTP/1.1\r\n\r\n",
			ExpectedState: "S",
			WantErr:       &MissingCodeError{Reason: "access_denied"},
			WantBody:      "Failed to retrieve authorization code. Error: access_denied",
		},
		{
			Name:          "no code and no error",
			Raw:           "GET /?state=S HTTP/1.1\r\n\r\n",
			ExpectedState: "S",
			WantErr:       &MissingCodeError{Reason: "unknown"},
			WantBody:      "Error: unknown",
		},
		{
			Name:          "not a redirect",
			Raw:           "GET /favicon.ico HTTP/1.1\r\n\r\n",
			ExpectedState: "S",
			WantErr:       ErrParse,
			WantBody:      "Failed to parse the authorization response.",
		},
		{
			Name:          "request line without line feed",
			Raw:           "GET /?code=ABC&state=S HTTP/1.1",
			ExpectedState: "S",
			WantCode:      "ABC",
			WantBody:      "successfully retrieved",
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.Name, func(t *testing.T) {
			assert := assert.New(t)

			l, done := startListener(t, ListenerOptions{}, c.ExpectedState)
			addr := l.listener.Addr().String()

			var resp string
			if strings.HasSuffix(c.Raw, "\n") {
				resp = sendRaw(t, addr, c.Raw)
			} else {
				resp = sendAndHalfClose(t, addr, c.Raw)
			}

			assert.True(strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"), resp)
			assert.Contains(resp, "Content-Type: text/html")
			assert.Contains(resp, c.WantBody)

			o := waitOutcome(t, done)
			switch want := c.WantErr.(type) {
			case nil:
				assert.NoError(o.err)
				if assert.NotNil(o.result) {
					assert.Equal(c.WantCode, o.result.Code)
					assert.Equal(c.ExpectedState, o.result.State)
					assert.Empty(o.result.Error)
				}
			case *MissingCodeError:
				var got *MissingCodeError
				if assert.True(errors.As(o.err, &got), "got %v", o.err) {
					assert.Equal(want.Reason, got.Reason)
					assert.Contains(got.Error(), want.Reason)
				}
				assert.Nil(o.result)
			default:
				assert.True(errors.Is(o.err, c.WantErr), "got %v", o.err)
				assert.Nil(o.result)
			}

			assertPortReleased(t, addr)
		})
	}
}

func sendAndHalfClose(t *testing.T, addr, raw string) string {
	t.Helper()

	conn, err := net.Dial("tcp4", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)

	return string(resp)
}

func Test_Listener_RequestTooLarge(t *testing.T) {
	assert := assert.New(t)

	l, done := startListener(t, ListenerOptions{MaxRequestSize: 64}, "S")
	addr := l.listener.Addr().String()

	raw := "GET /?code=" + strings.Repeat("A", 200) + "&state=S HTTP/1.1\r\n\r\n"
	resp := sendRaw(t, addr, raw)
	assert.Contains(resp, "Failed to parse the authorization response.")

	o := waitOutcome(t, done)
	var perr *ParseError
	assert.True(errors.As(o.err, &perr), "got %v", o.err)
	assert.True(errors.Is(o.err, ErrParse))

	assertPortReleased(t, addr)
}

func Test_Listener_RequestLineAcrossReads(t *testing.T) {
	assert := assert.New(t)

	l, done := startListener(t, ListenerOptions{}, "S")
	addr := l.listener.Addr().String()

	conn, err := net.Dial("tcp4", addr)
	require.NoError(t, err)
	defer conn.Close()

	for _, part := range []string{"GET /?co", "de=ABC&sta", "te=S HTTP/1.1\r\n\r\n"} {
		_, err := conn.Write([]byte(part))
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	_ = conn.Close()
	assert.Contains(string(resp), "successfully retrieved")

	o := waitOutcome(t, done)
	assert.NoError(o.err)
	assert.Equal("ABC", o.result.Code)
}

func Test_Listener_Timeout(t *testing.T) {
	assert := assert.New(t)

	l, done := startListener(t, ListenerOptions{Timeout: 50 * time.Millisecond}, "S")
	addr := l.listener.Addr().String()

	o := waitOutcome(t, done)
	assert.ErrorIs(o.err, ErrTimeout)
	assert.Nil(o.result)

	assertPortReleased(t, addr)
}

func Test_Listener_Cancel(t *testing.T) {
	assert := assert.New(t)

	l, err := Bind(ListenerOptions{Addr: "127.0.0.1:0", Logger: log.NewLogger(io.Discard)})
	require.NoError(t, err)
	addr := l.listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan acceptOutcome, 1)
	go func() {
		result, err := l.Accept(ctx, "S")
		done <- acceptOutcome{result: result, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	o := waitOutcome(t, done)
	assert.ErrorIs(o.err, ErrCancelled)

	assertPortReleased(t, addr)
}

func Test_Listener_RespondCancelled(t *testing.T) {
	assert := assert.New(t)

	l, err := Bind(ListenerOptions{Addr: "127.0.0.1:0", Logger: log.NewLogger(io.Discard)})
	require.NoError(t, err)
	defer l.Close()

	client, err := net.Dial("tcp4", l.listener.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	server, err := l.listener.Accept()
	require.NoError(t, err)

	go l.respondCancelled(server)

	_, err = fmt.Fprint(client, "GET /?code=abc&state=S HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))
	b, err := io.ReadAll(client)
	require.NoError(t, err)

	resp := string(b)
	assert.True(strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"), resp)
	assert.Contains(resp, html.EscapeString(msgCancelled))
}

func Test_Bind_PortInUse(t *testing.T) {
	assert := assert.New(t)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = Bind(ListenerOptions{Addr: ln.Addr().String()})

	var berr *BindError
	if assert.True(errors.As(err, &berr), "got %v", err) {
		assert.Equal(ln.Addr().String(), berr.Addr)
	}
}

func Test_ReceiveOne(t *testing.T) {
	assert := assert.New(t)

	const addr = "127.0.0.1:8089"

	done := make(chan acceptOutcome, 1)
	go func() {
		result, err := ReceiveOne(
			context.Background(),
			ListenerOptions{Port: 8089, Timeout: 10 * time.Second, Logger: log.NewLogger(io.Discard)},
			"xyz123",
		)
		done <- acceptOutcome{result: result, err: err}
	}()

	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp4", addr)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 5*time.Second, 10*time.Millisecond)
	defer conn.Close()

	_, err := conn.Write([]byte("GET /?code=4/AB&state=xyz123 HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp bytes.Buffer
	_, err = io.Copy(&resp, conn)
	require.NoError(t, err)

	_ = conn.Close()

	assert.True(strings.HasPrefix(resp.String(), "HTTP/1.1 200"))
	assert.Contains(resp.String(), "successfully retrieved")

	o := waitOutcome(t, done)
	assert.NoError(o.err)
	assert.Equal("4/AB", o.result.Code)
}
