package main

import (
	"crypto/tls"
	"errors"
	"io"
	"net"

	"github.com/domsolutions/polyhttp"
	"github.com/domsolutions/polyhttp/internal/netlog"
)

// serveConn runs the full lifetime of one accepted connection: ALPN
// detection, HttpReader/HttpResponder negotiation, and repeated
// dispatch-and-respond until the peer disconnects or a connection-level
// error forces a GOAWAY/close (spec §5 "each connection is serviced by
// exactly one worker thread until the connection closes").
func serveConn(conn net.Conn, dispatcher polyhttp.Dispatcher, shutdown <-chan struct{}) {
	defer conn.Close()

	log, connID := netlog.WithConn()
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("conn=%s panic: %v", connID, p)
		}
	}()
	log.Debugf("accepted %s", conn.RemoteAddr())

	alpn := polyhttp.ALPNNone
	if tlsConn, ok := conn.(*tls.Conn); ok {
		if err := tlsConn.Handshake(); err != nil {
			log.Warnf("conn=%s tls handshake: %v", connID, err)
			return
		}
		switch tlsConn.ConnectionState().NegotiatedProtocol {
		case "h2":
			alpn = polyhttp.ALPNHTTP2
		case "http/1.1":
			alpn = polyhttp.ALPNHTTP11
		}
	}

	reader := polyhttp.NewHttpReader(conn, alpn, shutdown)
	responder := polyhttp.NewHttpResponder(reader.Writer())

	for {
		req, err := reader.Next()
		if err != nil {
			handleReadError(err, reader, responder, log, connID)
			return
		}
		if req == nil {
			// HTTP/2 handshake step consumed (SETTINGS exchange); loop to
			// pull the first HEADERS-derived request.
			continue
		}

		result, err := dispatcher.Dispatch(req)
		if err != nil {
			polyhttp.ReleaseRequest(req)
			log.Errorf("conn=%s dispatch: %v", connID, err)
			return
		}

		switch result.Action {
		case polyhttp.ActionShutdown:
			return
		case polyhttp.ActionUpgradeWebSocket:
			// The connection is not handed to wsupgrade here: this loop
			// returns and the deferred Close shuts the connection.
			return
		default:
			err := responder.WriteResponse(req, result.Response, reader.H2Context())
			polyhttp.ReleaseRequest(req)
			if err != nil {
				log.Errorf("conn=%s write response: %v", connID, err)
				polyhttp.ReleaseResponse(result.Response)
				return
			}
			polyhttp.ReleaseResponse(result.Response)
		}

		if !reader.IsHTTP2() {
			// HTTP/1 Non-goal: single-request semantics per connection.
			return
		}
	}
}

// handleReadError turns an unrecoverable parse/transport error into a
// best-effort HTTP/1 400 or an HTTP/2 GOAWAY, per spec §7 "HttpReader turns
// unrecoverable errors into a best-effort HTTP/1 400 Bad Request ... and
// closes; a failed HTTP/2 connection is terminated with GOAWAY."
func handleReadError(err error, reader *polyhttp.HttpReader, responder *polyhttp.HttpResponder, log netlog.Logger, connID string) {
	if errors.Is(err, io.EOF) {
		log.Debugf("conn=%s closed", connID)
		return
	}

	var goAway *polyhttp.GoAwayError
	if errors.As(err, &goAway) {
		log.Warnf("conn=%s goaway: %v", connID, err)
		_ = responder.WriteGoAway(reader.H2Context(), goAway.Code, goAway.Debug)
		return
	}

	var streamErr *polyhttp.StreamError
	if errors.As(err, &streamErr) {
		log.Warnf("conn=%s rst_stream: %v", connID, err)
		_ = responder.WriteRstStream(streamErr.StreamID, streamErr.Code)
		return
	}

	log.Warnf("conn=%s error: %v", connID, err)
	if !reader.IsHTTP2() {
		req := polyhttp.AcquireRequest()
		req.Method = "GET"
		req.ProtoMajor = 1
		req.ProtoMinor = 1
		res := polyhttp.AcquireResponse()
		res.StatusCode = 400
		_ = responder.WriteResponse(req, res, nil)
		polyhttp.ReleaseResponse(res)
		polyhttp.ReleaseRequest(req)
	}
}
