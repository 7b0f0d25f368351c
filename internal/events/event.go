// Package events routes decoded accessibility channel messages to typed
// events and produces the response value for each message.
package events

import "fmt"

// Message discriminants carried in the "type" field.
const (
	TypeAnnounce  = "announce"
	TypeTap       = "tap"
	TypeLongPress = "longPress"
	TypeTooltip   = "tooltip"
)

// NoNode is the node id reported when a tap or long-press omits nodeId.
const NoNode int64 = -1

// Event is one routed accessibility message. The concrete types are
// Announce, Tap, LongPress, Tooltip and Unknown.
type Event interface {
	Type() string
	fmt.Stringer
}

type Announce struct {
	Message string
}

type Tap struct {
	NodeID int64
}

type LongPress struct {
	NodeID int64
}

type Tooltip struct {
	Message string
}

// Unknown carries a discriminant this router does not handle.
type Unknown struct {
	RawType string
}

func (Announce) Type() string  { return TypeAnnounce }
func (Tap) Type() string       { return TypeTap }
func (LongPress) Type() string { return TypeLongPress }
func (Tooltip) Type() string   { return TypeTooltip }
func (u Unknown) Type() string { return u.RawType }

func (e Announce) String() string  { return fmt.Sprintf("announce message=%q", e.Message) }
func (e Tap) String() string       { return fmt.Sprintf("tap node_id=%d", e.NodeID) }
func (e LongPress) String() string { return fmt.Sprintf("long-press node_id=%d", e.NodeID) }
func (e Tooltip) String() string   { return fmt.Sprintf("tooltip message=%q", e.Message) }
func (e Unknown) String() string   { return fmt.Sprintf("unknown type=%q", e.RawType) }
