package events

import (
	"github.com/danmuck/a11ybridge/internal/protocol/codec"
	"github.com/rs/zerolog"
)

// Handler reacts to routed events. The returned value becomes the message
// response; returning codec.Null() answers with no value.
type Handler interface {
	Announce(Announce) codec.Value
	Tap(Tap) codec.Value
	LongPress(LongPress) codec.Value
	Tooltip(Tooltip) codec.Value
}

// LogHandler writes one info line per event and answers with no value.
type LogHandler struct {
	Log zerolog.Logger
}

func (h LogHandler) Announce(e Announce) codec.Value {
	h.Log.Info().Str("message", e.Message).Msg("ANNOUNCE")
	return codec.Null()
}

func (h LogHandler) Tap(e Tap) codec.Value {
	h.Log.Info().Int64("node_id", e.NodeID).Msg("TAP")
	return codec.Null()
}

func (h LogHandler) LongPress(e LongPress) codec.Value {
	h.Log.Info().Int64("node_id", e.NodeID).Msg("LONG-PRESS")
	return codec.Null()
}

func (h LogHandler) Tooltip(e Tooltip) codec.Value {
	h.Log.Info().Str("message", e.Message).Msg("TOOLTIP")
	return codec.Null()
}
