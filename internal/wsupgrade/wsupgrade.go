// Package wsupgrade is the external collaborator the core hands a
// connection to on an "upgrade-to-websocket" dispatch action (spec §1,
// §5 "WebSocket upgrade transfers ownership of the connection to a
// dedicated long-lived thread managed by an external collaborator; after
// transfer, the HTTP core no longer touches the connection"). It owns the
// RFC 6455 handshake completion and frame handling from that point on; the
// polyhttp core never imports this package.
package wsupgrade

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// hijackWriter adapts a raw net.Conn (already past the HTTP/1 request-line
// and headers, as handed off by the core) into the http.ResponseWriter +
// http.Hijacker pair nhooyr.io/websocket.Accept requires, since the core's
// own request/response types are not net/http's.
//
// Grounded on balookrd-outline-cli-ws's use of nhooyr.io/websocket.Conn as
// the long-lived connection handle (internal/lb.go); that repo is a
// websocket *client* so it never needs this server-side accept adaptor —
// built directly from the library's documented Accept(w, r, opts) contract.
type hijackWriter struct {
	conn   net.Conn
	br     *bufio.Reader
	header http.Header
	status int
}

func (w *hijackWriter) Header() http.Header { return w.header }

func (w *hijackWriter) Write(b []byte) (int, error) { return w.conn.Write(b) }

func (w *hijackWriter) WriteHeader(status int) { w.status = status }

func (w *hijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw := bufio.NewReadWriter(w.br, bufio.NewWriter(w.conn))
	return w.conn, rw, nil
}

// HandshakeRequest carries the pieces of the already-parsed HTTP/1 upgrade
// request the core read before recognizing it as a WebSocket upgrade and
// invoking Accept — the core's own Request type, not net/http.Request.
type HandshakeRequest struct {
	Method     string
	RequestURI string
	Header     http.Header
	Host       string
}

// Accept completes the RFC 6455 handshake on conn (raw bytes already
// consumed up through the blank line terminating the request headers) and
// returns a long-lived *websocket.Conn for the dedicated upgrade-handling
// goroutine the owning server spins up. Once this returns, the polyhttp
// core must not read or write conn again (spec §5).
func Accept(conn net.Conn, br *bufio.Reader, hr HandshakeRequest, opts *websocket.AcceptOptions) (*websocket.Conn, error) {
	req, err := http.NewRequest(hr.Method, hr.RequestURI, nil)
	if err != nil {
		return nil, fmt.Errorf("wsupgrade: build request: %w", err)
	}
	req.Header = hr.Header
	req.Host = hr.Host

	w := &hijackWriter{conn: conn, br: br, header: make(http.Header)}
	return websocket.Accept(w, req, opts)
}

// Serve runs a trivial echo/ping loop on an accepted connection until the
// peer closes it or idleTimeout elapses without traffic — the placeholder
// body of the "dedicated long-lived thread" spec §5 describes; a real route
// handler supplies its own message loop via the same *websocket.Conn.
func Serve(c *websocket.Conn, idleTimeout time.Duration) error {
	defer c.Close(websocket.StatusNormalClosure, "done")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), idleTimeout)
		typ, data, err := c.Read(ctx)
		if err != nil {
			cancel()
			return err
		}
		err = c.Write(ctx, typ, data)
		cancel()
		if err != nil {
			return err
		}
	}
}
