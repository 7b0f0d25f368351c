package events

import (
	"github.com/danmuck/a11ybridge/internal/protocol/codec"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Outcome classifies how one message was routed.
type Outcome string

const (
	OutcomeRouted    Outcome = "routed"
	OutcomeUnknown   Outcome = "unknown"
	OutcomeMalformed Outcome = "malformed"
)

// Result is the product of routing one message. Event is nil when the
// message was malformed.
type Result struct {
	Event    Event
	Response codec.Value
	Outcome  Outcome
}

type route func(r *Router, msg codec.Value) Result

var routes = map[string]route{
	TypeAnnounce: func(r *Router, msg codec.Value) Result {
		text, ok := r.requireMessage(msg, TypeAnnounce)
		if !ok {
			return malformed()
		}
		e := Announce{Message: text}
		return routed(e, r.handler.Announce(e))
	},
	TypeTap: func(r *Router, msg codec.Value) Result {
		e := Tap{NodeID: r.nodeID(msg, TypeTap)}
		return routed(e, r.handler.Tap(e))
	},
	TypeLongPress: func(r *Router, msg codec.Value) Result {
		e := LongPress{NodeID: r.nodeID(msg, TypeLongPress)}
		return routed(e, r.handler.LongPress(e))
	},
	TypeTooltip: func(r *Router, msg codec.Value) Result {
		text, ok := r.requireMessage(msg, TypeTooltip)
		if !ok {
			return malformed()
		}
		e := Tooltip{Message: text}
		return routed(e, r.handler.Tooltip(e))
	},
}

type Option func(*Router)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) {
		r.log = l
	}
}

// WithHandler replaces the default LogHandler.
func WithHandler(h Handler) Option {
	return func(r *Router) {
		if h != nil {
			r.handler = h
		}
	}
}

// Router maps accessibility channel messages to events. Route never fails;
// content problems are logged and answered with no value.
type Router struct {
	handler Handler
	log     zerolog.Logger
}

func NewRouter(opts ...Option) *Router {
	r := &Router{log: log.Logger}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = LogHandler{Log: r.log}
	}
	return r
}

// Route dispatches one decoded message.
func (r *Router) Route(msg codec.Value) Result {
	if msg.Kind() != codec.KindMap {
		r.log.Warn().Str("kind", msg.Kind().String()).Msg("events: message is not a map")
		return malformed()
	}
	typeValue, ok := msg.Get("type")
	if !ok {
		r.log.Warn().Msg("events: message has no type")
		return malformed()
	}
	typ, ok := typeValue.AsString()
	if !ok {
		r.log.Warn().Str("kind", typeValue.Kind().String()).Msg("events: message type is not a string")
		return malformed()
	}
	if fn, ok := routes[typ]; ok {
		return fn(r, msg)
	}
	r.log.Debug().Str("type", typ).Msg("events: unknown message type")
	return Result{Event: Unknown{RawType: typ}, Response: codec.Null(), Outcome: OutcomeUnknown}
}

// requireMessage reads data.message as a string.
func (r *Router) requireMessage(msg codec.Value, typ string) (string, bool) {
	data, ok := msg.Get("data")
	if !ok || data.Kind() != codec.KindMap {
		r.log.Warn().Str("type", typ).Msg("events: message has no data map")
		return "", false
	}
	v, ok := data.Get("message")
	if !ok {
		r.log.Warn().Str("type", typ).Msg("events: data has no message")
		return "", false
	}
	text, ok := v.AsString()
	if !ok {
		r.log.Warn().Str("type", typ).Str("kind", v.Kind().String()).Msg("events: data.message is not a string")
		return "", false
	}
	return text, true
}

// nodeID reads nodeId, falling back to NoNode when it is absent or not an
// integer.
func (r *Router) nodeID(msg codec.Value, typ string) int64 {
	v, ok := msg.Get("nodeId")
	if !ok {
		return NoNode
	}
	id, ok := v.AsInt()
	if !ok {
		r.log.Debug().Str("type", typ).Str("kind", v.Kind().String()).Msg("events: nodeId is not an integer")
		return NoNode
	}
	return id
}

func routed(e Event, response codec.Value) Result {
	return Result{Event: e, Response: response, Outcome: OutcomeRouted}
}

func malformed() Result {
	return Result{Response: codec.Null(), Outcome: OutcomeMalformed}
}
