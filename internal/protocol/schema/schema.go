package schema

import (
	"fmt"

	"github.com/danmuck/a11ybridge/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Message type IDs carried in the frame header.
const (
	MsgSemanticsUpdate uint32 = 1
	MsgChannelMessage  uint32 = 2
	MsgChannelResponse uint32 = 3
)

// Field IDs for link envelopes.
const (
	FieldNodeRecord uint16 = 1
	FieldChannel    uint16 = 2
	FieldBody       uint16 = 3
)

// Field IDs inside one semantics node record.
const (
	FieldID                  uint16 = 1
	FieldFlags               uint16 = 2
	FieldActions             uint16 = 3
	FieldTextSelectionBase   uint16 = 4
	FieldTextSelectionExtent uint16 = 5
	FieldScrollChildCount    uint16 = 6
	FieldScrollIndex         uint16 = 7
	FieldScrollPosition      uint16 = 8
	FieldScrollExtentMax     uint16 = 9
	FieldScrollExtentMin     uint16 = 10
	FieldElevation           uint16 = 11
	FieldThickness           uint16 = 12

	FieldLabel          uint16 = 100
	FieldHint           uint16 = 101
	FieldValue          uint16 = 102
	FieldIncreasedValue uint16 = 103
	FieldDecreasedValue uint16 = 104
	FieldTextDirection  uint16 = 105

	FieldRect              uint16 = 200
	FieldTransform         uint16 = 201
	FieldChildrenTraversal uint16 = 202
	FieldChildrenHitTest   uint16 = 203
	FieldCustomActions     uint16 = 204
	FieldPlatformViewID    uint16 = 205
)

// RecordNode is the pseudo message type used to validate a nested node record.
const RecordNode uint32 = 0x100

type Requirement struct {
	ID   uint16
	Type uint8
}

type ValidationError struct {
	MessageType uint32
	FieldID     uint16
	Reason      string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: message_type=%d: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: message_type=%d field=%d: %s", e.MessageType, e.FieldID, e.Reason)
}

var requirements = map[uint32][]Requirement{
	MsgSemanticsUpdate: {},
	MsgChannelMessage: {
		{FieldChannel, tlv.TypeString},
		{FieldBody, tlv.TypeBytes},
	},
	MsgChannelResponse: {
		{FieldBody, tlv.TypeBytes},
	},
	RecordNode: {
		{FieldID, tlv.TypeI32},
		{FieldFlags, tlv.TypeU32},
		{FieldActions, tlv.TypeU32},
		{FieldTextSelectionBase, tlv.TypeI32},
		{FieldTextSelectionExtent, tlv.TypeI32},
		{FieldScrollChildCount, tlv.TypeI32},
		{FieldScrollIndex, tlv.TypeI32},
		{FieldScrollPosition, tlv.TypeF64},
		{FieldScrollExtentMax, tlv.TypeF64},
		{FieldScrollExtentMin, tlv.TypeF64},
		{FieldElevation, tlv.TypeF64},
		{FieldThickness, tlv.TypeF64},
		{FieldLabel, tlv.TypeString},
		{FieldHint, tlv.TypeString},
		{FieldValue, tlv.TypeString},
		{FieldIncreasedValue, tlv.TypeString},
		{FieldDecreasedValue, tlv.TypeString},
		{FieldTextDirection, tlv.TypeU8},
		{FieldRect, tlv.TypeBytes},
		{FieldTransform, tlv.TypeBytes},
		{FieldChildrenTraversal, tlv.TypeBytes},
		{FieldChildrenHitTest, tlv.TypeBytes},
		{FieldCustomActions, tlv.TypeBytes},
		{FieldPlatformViewID, tlv.TypeI64},
	},
}

// Validate enforces required fields and required field types for a message type.
// Unknown fields are ignored so newer engines can add fields.
func Validate(messageType uint32, fields []tlv.Field) error {
	reqs, ok := requirements[messageType]
	if !ok {
		log.Debug().Uint32("message_type", messageType).Msg("schema: unknown message type")
		return ValidationError{MessageType: messageType, Reason: "unknown message_type"}
	}
	for _, req := range reqs {
		f, found := tlv.GetField(fields, req.ID)
		if !found {
			log.Debug().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Msg("schema: missing required field")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			log.Debug().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Uint8("got", f.Type).
				Uint8("want", req.Type).
				Msg("schema: type mismatch")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "type mismatch"}
		}
	}
	return nil
}
