package polyhttp

// Action tags a non-ordinary outcome a Dispatcher can request instead of an
// ordinary response (spec §6 "Route dispatcher interface").
type Action uint8

const (
	ActionNone Action = iota
	ActionShutdown
	ActionUpgradeWebSocket
)

// DispatchResult is what a Dispatcher hands back to HttpReader/HttpResponder
// for a given request: either an ordinary Response, or a special Action the
// server loop must carry out itself (graceful shutdown, handing the raw
// connection off to the WebSocket upgrade collaborator).
type DispatchResult struct {
	Action   Action
	Response *Response
}

// Dispatcher routes a parsed Request to a response description. The core
// enforces method/URI-form consistency (spec §6) before calling Dispatch;
// implementations only need to handle well-formed requests.
//
// This interface has no grounding in the teacher (which has no route
// layer at all — fasthttp's RequestHandler plays that role in the
// adaptor-based integration) and is instead modeled directly on spec §6,
// kept minimal so cmd/polyservd's static-folder handler and any future
// route manager can implement it without core changes.
type Dispatcher interface {
	Dispatch(req *Request) (DispatchResult, error)
}

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc func(req *Request) (DispatchResult, error)

func (f DispatcherFunc) Dispatch(req *Request) (DispatchResult, error) { return f(req) }
