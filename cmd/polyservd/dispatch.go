package main

import (
	"errors"
	"strings"

	"github.com/domsolutions/polyhttp"
	"github.com/domsolutions/polyhttp/internal/authstore"
	"github.com/domsolutions/polyhttp/internal/mimemap"
	"github.com/domsolutions/polyhttp/internal/servefolder"
)

// fileDispatcher implements polyhttp.Dispatcher by serving files out of a
// static folder, optionally gated by HTTP Basic auth against an authstore.
// It is the concrete route manager spec §6 calls "shared across worker
// threads, immutable after construction."
type fileDispatcher struct {
	folder *servefolder.Folder
	auth   *authstore.Store
}

func newFileDispatcher(folder *servefolder.Folder, auth *authstore.Store) *fileDispatcher {
	return &fileDispatcher{folder: folder, auth: auth}
}

func (d *fileDispatcher) Dispatch(req *polyhttp.Request) (polyhttp.DispatchResult, error) {
	if req.URI != nil && req.URI.RawPath == "/favicon.ico" {
		res := polyhttp.AcquireResponse()
		res.StatusCode = 404
		return polyhttp.DispatchResult{Response: res}, nil
	}

	if req.Header("upgrade") != "" && strings.EqualFold(req.Header("upgrade"), "websocket") {
		return polyhttp.DispatchResult{Action: polyhttp.ActionUpgradeWebSocket}, nil
	}

	if d.auth != nil {
		if err := d.checkAuth(req); err != nil {
			res := polyhttp.AcquireResponse()
			res.StatusCode = 401
			res.SetHeader("www-authenticate", `Basic realm="polyservd"`)
			return polyhttp.DispatchResult{Response: res}, nil
		}
	}

	if d.folder == nil {
		res := polyhttp.AcquireResponse()
		res.StatusCode = 404
		return polyhttp.DispatchResult{Response: res}, nil
	}

	path := "/"
	if req.URI != nil {
		path = req.URI.RawPath
	}

	body, contentType, err := d.folder.Open(path)
	res := polyhttp.AcquireResponse()
	switch {
	case errors.Is(err, servefolder.ErrForbidden):
		res.StatusCode = 403
	case errors.Is(err, servefolder.ErrNotFound):
		res.StatusCode = 404
	case err != nil:
		res.StatusCode = 500
	default:
		res.StatusCode = 200
		res.SetHeader("content-type", contentType)
		res.Write(body)
	}
	if res.Header("content-type") == "" && contentType == "" {
		res.SetHeader("content-type", mimemap.DefaultContentType)
	}
	return polyhttp.DispatchResult{Response: res}, nil
}

func (d *fileDispatcher) checkAuth(req *polyhttp.Request) error {
	auth := req.Header("authorization")
	user, pass, ok := parseBasicAuth(auth)
	if !ok {
		return errors.New("missing or malformed authorization header")
	}
	return d.auth.Authenticate(user, pass)
}
