package link

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/a11ybridge/internal/protocol/frame"
	"github.com/danmuck/a11ybridge/internal/protocol/records"
	"github.com/danmuck/a11ybridge/internal/protocol/schema"
	"github.com/danmuck/a11ybridge/internal/protocol/tlv"
	"github.com/danmuck/a11ybridge/internal/semantics"
)

var (
	ErrChannelRequired    = errors.New("link: channel name required")
	ErrUnexpectedMessage  = errors.New("link: unexpected message type")
	ErrMissingResponseBit = errors.New("link: response frame without response flag")
)

// Message is one inbound channel message.
type Message struct {
	ID      uint64
	Channel string
	Body    []byte
}

// EncodeMessageFrame frames a name-addressed channel message.
func EncodeMessageFrame(messageID uint64, channel string, body []byte, limits frame.Limits) ([]byte, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, ErrChannelRequired
	}
	fields := []tlv.Field{
		tlv.String(schema.FieldChannel, channel),
		tlv.Bytes(schema.FieldBody, body),
	}
	return writeFrame(messageID, schema.MsgChannelMessage, 0, fields, limits)
}

// DecodeMessageFrame validates and unpacks a channel.message frame.
func DecodeMessageFrame(f frame.Frame) (Message, error) {
	if f.Header.MessageType != schema.MsgChannelMessage {
		return Message{}, fmt.Errorf("%w: %d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	fields, err := decodeValidated(f)
	if err != nil {
		return Message{}, err
	}
	channel, _ := tlv.GetField(fields, schema.FieldChannel)
	body, _ := tlv.GetField(fields, schema.FieldBody)
	return Message{ID: f.Header.MessageID, Channel: string(channel.Value), Body: body.Value}, nil
}

// EncodeResponseFrame frames the response to messageID.
func EncodeResponseFrame(messageID uint64, body []byte, limits frame.Limits) ([]byte, error) {
	fields := []tlv.Field{tlv.Bytes(schema.FieldBody, body)}
	return writeFrame(messageID, schema.MsgChannelResponse, frame.FlagIsResponse, fields, limits)
}

// DecodeResponseFrame returns the response body carried by f.
func DecodeResponseFrame(f frame.Frame) ([]byte, error) {
	if f.Header.MessageType != schema.MsgChannelResponse {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	if !f.Header.Response() {
		return nil, ErrMissingResponseBit
	}
	fields, err := decodeValidated(f)
	if err != nil {
		return nil, err
	}
	body, _ := tlv.GetField(fields, schema.FieldBody)
	return body.Value, nil
}

// EncodeUpdateFrame frames one semantics update batch.
func EncodeUpdateFrame(messageID uint64, nodes []semantics.RawNode, withBatchEnd bool, limits frame.Limits) ([]byte, error) {
	payload, err := records.EncodeBatch(nodes, withBatchEnd)
	if err != nil {
		return nil, err
	}
	return frame.Append(nil, frame.Frame{
		Header:  frame.Header{MessageID: messageID, MessageType: schema.MsgSemanticsUpdate},
		Payload: payload,
	}, limits)
}

// DecodeUpdateFrame unpacks a semantics.update frame. Per-record failures
// are returned in errs; see records.DecodeBatch.
func DecodeUpdateFrame(f frame.Frame) (nodes []semantics.RawNode, errs []error, err error) {
	if f.Header.MessageType != schema.MsgSemanticsUpdate {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	return records.DecodeBatch(f.Payload)
}

func writeFrame(messageID uint64, messageType, flags uint32, fields []tlv.Field, limits frame.Limits) ([]byte, error) {
	if err := schema.Validate(messageType, fields); err != nil {
		return nil, err
	}
	return frame.Append(nil, frame.Frame{
		Header: frame.Header{
			MessageID:   messageID,
			MessageType: messageType,
			Flags:       flags,
		},
		Payload: tlv.EncodeFields(fields),
	}, limits)
}

func decodeValidated(f frame.Frame) ([]tlv.Field, error) {
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(f.Header.MessageType, fields); err != nil {
		return nil, err
	}
	return fields, nil
}
