// Package bridge owns the node registry and the accessibility channel for
// one engine connection.
//
// Ownership boundary:
// - node-update entry point (decode, registry upsert, batch completion)
// - message entry point (codec decode, routing, response encoding)
// - explicit teardown of the channel handle and registry
package bridge

import (
	"sync"

	"github.com/danmuck/a11ybridge/internal/events"
	"github.com/danmuck/a11ybridge/internal/observability"
	"github.com/danmuck/a11ybridge/internal/protocol/codec"
	"github.com/danmuck/a11ybridge/internal/protocol/link"
	"github.com/danmuck/a11ybridge/internal/semantics"
	"github.com/rs/zerolog"
)

// Channel is the transport handle the bridge installs its entry points on.
// *link.Link implements it.
type Channel interface {
	SetMessageHandler(channel string, h link.MessageHandler)
	SetUpdateHandler(h link.UpdateHandler)
}

// Responder sends the encoded response for one inbound message.
type Responder interface {
	Respond(body []byte) error
}

type Option func(*Bridge)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) {
		b.log = l
	}
}

// WithHandler sets the event handler passed to the router.
func WithHandler(h events.Handler) Option {
	return func(b *Bridge) {
		b.handler = h
	}
}

// WithBatchObserver registers fn to run once per completed generation.
func WithBatchObserver(fn func(generation uint64)) Option {
	return func(b *Bridge) {
		b.onBatchEnd = fn
	}
}

// Bridge is the façade between the engine link and the decoder, registry
// and router. Entry points are expected to be called serially by the link.
type Bridge struct {
	name        string
	channelName string
	log         zerolog.Logger
	handler     events.Handler
	router      *events.Router
	registry    *semantics.Registry
	onBatchEnd  func(generation uint64)

	mu      sync.Mutex
	channel Channel
	closed  bool
}

// New builds a bridge named name that serves channelName.
func New(name, channelName string, opts ...Option) *Bridge {
	b := &Bridge{
		name:        name,
		channelName: channelName,
		log:         observability.Logger(name, "bridge"),
		registry:    semantics.NewRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.router = events.NewRouter(events.WithLogger(b.log), events.WithHandler(b.handler))
	observability.RegisterMetrics()
	return b
}

func (b *Bridge) Name() string                  { return b.name }
func (b *Bridge) ChannelName() string           { return b.channelName }
func (b *Bridge) Registry() *semantics.Registry { return b.registry }

// Attach installs the bridge entry points on ch, detaching any previous
// channel first.
func (b *Bridge) Attach(ch Channel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.channel != nil {
		b.detachLocked()
	}
	b.channel = ch
	ch.SetMessageHandler(b.channelName, func(msg link.Message, r *link.Responder) {
		b.HandleMessage(msg.Body, r)
	})
	ch.SetUpdateHandler(func(nodes []semantics.RawNode, errs []error) {
		for _, err := range errs {
			observability.RecordRecordError(b.name)
			b.log.Warn().Err(err).Msg("bridge: skipped node record")
		}
		b.HandleSemanticsUpdate(nodes)
	})
	b.log.Debug().Str("channel", b.channelName).Msg("bridge: channel attached")
}

// Detach removes the entry points from the current channel. The registry
// is kept so a reconnected engine can continue from it.
func (b *Bridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detachLocked()
}

func (b *Bridge) detachLocked() {
	if b.channel == nil {
		return
	}
	b.channel.SetMessageHandler(b.channelName, nil)
	b.channel.SetUpdateHandler(nil)
	b.channel = nil
}

// Close releases the channel handle and discards the registry. Entry points
// ignore input after Close.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.detachLocked()
	b.closed = true
	b.registry.Clear()
	observability.SetRegistryNodes(b.name, 0)
	b.log.Debug().Msg("bridge: closed")
}

// Attached reports whether the bridge currently has a channel installed.
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channel != nil
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// HandleSemanticsUpdate decodes and stores one batch of records. Each
// batch-end record completes one generation. It returns the number of nodes
// stored.
func (b *Bridge) HandleSemanticsUpdate(batch []semantics.RawNode) int {
	if b.isClosed() {
		return 0
	}
	stored := 0
	for _, raw := range batch {
		node, end := semantics.Decode(raw)
		if end {
			b.completeGeneration()
			continue
		}
		b.reportUnknownBits(node)
		if bad := node.InvalidUTF8Fields(); len(bad) > 0 {
			b.log.Debug().
				Int32("node_id", node.ID).
				Strs("fields", bad).
				Msg("bridge: node text is not valid utf-8")
		}
		if e := b.log.Trace(); e.Enabled() {
			e.Int32("node_id", node.ID).Msg(node.String())
		}
		if err := b.registry.Upsert(node); err != nil {
			b.log.Warn().Err(err).Int32("node_id", node.ID).Msg("bridge: upsert node")
			continue
		}
		observability.RecordNodeDecoded(b.name)
		stored++
	}
	return stored
}

func (b *Bridge) completeGeneration() {
	gen := b.registry.CompleteGeneration()
	size := b.registry.Len()
	observability.RecordBatchCompleted(b.name, size)
	b.log.Debug().Uint64("generation", gen).Int("nodes", size).Msg("bridge: semantics batch end")
	if b.onBatchEnd != nil {
		b.onBatchEnd(gen)
	}
}

func (b *Bridge) reportUnknownBits(node semantics.Node) {
	if node.UnknownFlags != 0 {
		observability.RecordUnknownBits(b.name, "flag")
		b.log.Debug().
			Int32("node_id", node.ID).
			Str("unknown_flags", hex(node.UnknownFlags)).
			Msg("bridge: node has unknown flag bits")
	}
	if node.UnknownActions != 0 {
		observability.RecordUnknownBits(b.name, "action")
		b.log.Debug().
			Int32("node_id", node.ID).
			Str("unknown_actions", hex(node.UnknownActions)).
			Msg("bridge: node has unknown action bits")
	}
}

// HandleMessage decodes body, routes it and sends the encoded response
// through r. A failed send is logged; it does not affect the registry.
func (b *Bridge) HandleMessage(body []byte, r Responder) events.Result {
	var res events.Result
	if b.isClosed() {
		res = events.Result{Response: codec.Null(), Outcome: events.OutcomeMalformed}
	} else if msg, err := codec.Decode(body); err != nil {
		b.log.Warn().Err(err).Int("bytes", len(body)).Msg("bridge: undecodable message")
		res = events.Result{Response: codec.Null(), Outcome: events.OutcomeMalformed}
	} else {
		res = b.router.Route(msg)
	}
	observability.RecordMessage(b.name, messageLabel(res), string(res.Outcome))

	if err := r.Respond(codec.Encode(res.Response)); err != nil {
		observability.RecordResponseFailure(b.name)
		b.log.Warn().Err(err).Msg("failed to send message response")
	}
	return res
}

func messageLabel(res events.Result) string {
	switch res.Outcome {
	case events.OutcomeRouted:
		return res.Event.Type()
	case events.OutcomeUnknown:
		return "unknown"
	default:
		return "malformed"
	}
}
