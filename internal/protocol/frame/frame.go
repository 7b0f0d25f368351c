// Package frame reads and writes the engine link envelope: a 32-byte
// big-endian header, optional header extension bytes and one payload.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	Magic   uint32 = 0xA11B0001
	Version uint16 = 1

	// HeaderSize is the fixed part of every header. Engines may declare a
	// longer header; the extra bytes are read and discarded.
	HeaderSize uint16 = 32

	FlagIsResponse uint32 = 1 << 1
)

var (
	ErrTruncatedHeader  = errors.New("frame: stream ended inside header")
	ErrTruncatedPayload = errors.New("frame: stream ended inside payload")
	ErrBadMagic         = errors.New("frame: not an engine link frame")
	ErrBadVersion       = errors.New("frame: unsupported version")
	ErrBadHeaderLen     = errors.New("frame: declared header shorter than fixed header")
	ErrExtensionSize    = errors.New("frame: header extension over limit")
	ErrPayloadSize      = errors.New("frame: payload over limit")
)

// Header mirrors the fixed wire header field for field.
type Header struct {
	Magic       uint32
	Version     uint16
	HeaderLen   uint16
	MessageID   uint64
	MessageType uint32
	Flags       uint32
	PayloadLen  uint64
}

// Response reports whether the sender marked the frame as a reply.
func (h Header) Response() bool {
	return h.Flags&FlagIsResponse != 0
}

type Frame struct {
	Header  Header
	Payload []byte
}

// Limits caps what a peer can make the reader allocate.
type Limits struct {
	MaxExtensionBytes uint64
	MaxPayloadBytes   uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxExtensionBytes: 4 * 1024,
		MaxPayloadBytes:   8 * 1024 * 1024,
	}
}

// ReadFrame reads one frame. A stream that ends exactly on a frame boundary
// returns io.EOF unwrapped.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var raw [HeaderSize]byte
	n, err := io.ReadFull(r, raw[:])
	switch {
	case err == io.EOF:
		return Frame{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Frame{}, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, n, HeaderSize)
	case err != nil:
		return Frame{}, err
	}

	h, err := ParseHeader(raw[:])
	if err != nil {
		return Frame{}, err
	}
	if err := h.check(limits); err != nil {
		return Frame{}, err
	}

	if ext := int64(h.HeaderLen - HeaderSize); ext > 0 {
		if _, err := io.CopyN(io.Discard, r, ext); err != nil {
			return Frame{}, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
		}
	}

	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("%w: message %d: %v", ErrTruncatedPayload, h.MessageID, err)
	}
	return Frame{Header: h, Payload: payload}, nil
}

func (h Header) check(limits Limits) error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: magic %#08x", ErrBadMagic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	if h.HeaderLen < HeaderSize {
		return fmt.Errorf("%w: %d", ErrBadHeaderLen, h.HeaderLen)
	}
	if uint64(h.HeaderLen-HeaderSize) > limits.MaxExtensionBytes {
		return fmt.Errorf("%w: %d bytes", ErrExtensionSize, h.HeaderLen-HeaderSize)
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return fmt.Errorf("%w: %d bytes", ErrPayloadSize, h.PayloadLen)
	}
	return nil
}

// Append encodes f onto dst. Magic, version, header and payload lengths are
// always filled in; callers set the message id, type and flags.
func Append(dst []byte, f Frame, limits Limits) ([]byte, error) {
	if uint64(len(f.Payload)) > limits.MaxPayloadBytes {
		return dst, fmt.Errorf("%w: %d bytes", ErrPayloadSize, len(f.Payload))
	}
	h := f.Header
	h.Magic = Magic
	h.Version = Version
	h.HeaderLen = HeaderSize
	h.PayloadLen = uint64(len(f.Payload))
	dst = AppendHeader(dst, h)
	return append(dst, f.Payload...), nil
}

// WriteFrame encodes f and hands it to w in a single Write.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	buf, err := Append(make([]byte, 0, int(HeaderSize)+len(f.Payload)), f, limits)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// AppendHeader writes h verbatim, without filling or checking any field.
func AppendHeader(dst []byte, h Header) []byte {
	dst = binary.BigEndian.AppendUint32(dst, h.Magic)
	dst = binary.BigEndian.AppendUint16(dst, h.Version)
	dst = binary.BigEndian.AppendUint16(dst, h.HeaderLen)
	dst = binary.BigEndian.AppendUint64(dst, h.MessageID)
	dst = binary.BigEndian.AppendUint32(dst, h.MessageType)
	dst = binary.BigEndian.AppendUint32(dst, h.Flags)
	return binary.BigEndian.AppendUint64(dst, h.PayloadLen)
}

func ParseHeader(b []byte) (Header, error) {
	if len(b) < int(HeaderSize) {
		return Header{}, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, len(b), HeaderSize)
	}
	be := binary.BigEndian
	return Header{
		Magic:       be.Uint32(b),
		Version:     be.Uint16(b[4:]),
		HeaderLen:   be.Uint16(b[6:]),
		MessageID:   be.Uint64(b[8:]),
		MessageType: be.Uint32(b[16:]),
		Flags:       be.Uint32(b[20:]),
		PayloadLen:  be.Uint64(b[24:]),
	}, nil
}
