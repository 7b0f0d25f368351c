package link

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/a11ybridge/internal/protocol/frame"
	"github.com/danmuck/a11ybridge/internal/protocol/schema"
	"github.com/danmuck/a11ybridge/internal/semantics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyResponded = errors.New("link: message already answered")
	ErrLinkClosed       = errors.New("link: closed")
)

// MessageHandler handles one inbound channel message. The link answers with
// an empty body when the handler returns without calling Respond.
type MessageHandler func(msg Message, r *Responder)

// UpdateHandler receives the decodable records of one semantics.update
// frame in wire order, plus one error per record that was skipped.
type UpdateHandler func(nodes []semantics.RawNode, errs []error)

// Link serves one engine connection. Frames are handled serially on the
// goroutine running Serve.
type Link struct {
	conn   net.Conn
	reader *bufio.Reader
	cfg    Config
	log    zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]MessageHandler
	onUpdate UpdateHandler

	wmu    sync.Mutex
	closed atomic.Bool

	framesRead atomic.Uint64
}

func New(conn net.Conn, cfg Config) *Link {
	remote := "pipe"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Link{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		cfg:      cfg.WithDefaults(),
		log:      log.With().Str("component", "link").Str("remote", remote).Logger(),
		handlers: make(map[string]MessageHandler),
	}
}

// SetMessageHandler installs h for channel. A nil h removes the handler.
func (l *Link) SetMessageHandler(channel string, h MessageHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == nil {
		delete(l.handlers, channel)
		return
	}
	l.handlers[channel] = h
}

// SetUpdateHandler installs the semantics.update sink. A nil h drops updates.
func (l *Link) SetUpdateHandler(h UpdateHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onUpdate = h
}

// FramesRead reports how many frames Serve has decoded.
func (l *Link) FramesRead() uint64 {
	return l.framesRead.Load()
}

// Serve reads frames until the peer closes the stream, ctx is done, or the
// stream can no longer be framed. A clean close returns nil.
func (l *Link) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.Close()
	})
	defer stop()

	for {
		if l.cfg.ReadTimeout > 0 {
			_ = l.conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
		}
		fr, err := frame.ReadFrame(l.reader, l.cfg.Limits)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || l.closed.Load() {
				return nil
			}
			return err
		}
		l.framesRead.Add(1)

		switch fr.Header.MessageType {
		case schema.MsgSemanticsUpdate:
			l.dispatchUpdate(fr)
		case schema.MsgChannelMessage:
			l.dispatchMessage(fr)
		default:
			l.log.Warn().
				Uint32("message_type", fr.Header.MessageType).
				Uint64("message_id", fr.Header.MessageID).
				Msg("link: unexpected message type, skipping frame")
		}
	}
}

func (l *Link) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.conn.Close()
}

func (l *Link) dispatchUpdate(fr frame.Frame) {
	nodes, errs, err := DecodeUpdateFrame(fr)
	if err != nil {
		l.log.Warn().Err(err).Uint64("message_id", fr.Header.MessageID).Msg("link: decode semantics update")
		return
	}
	l.mu.RLock()
	h := l.onUpdate
	l.mu.RUnlock()
	if h == nil {
		l.log.Debug().Int("records", len(nodes)).Msg("link: no update handler, dropping batch")
		return
	}
	h(nodes, errs)
}

func (l *Link) dispatchMessage(fr frame.Frame) {
	r := &Responder{link: l, messageID: fr.Header.MessageID}
	msg, err := DecodeMessageFrame(fr)
	if err != nil {
		l.log.Warn().Err(err).Uint64("message_id", fr.Header.MessageID).Msg("link: decode channel message")
		l.answerEmpty(r)
		return
	}

	l.mu.RLock()
	h := l.handlers[msg.Channel]
	l.mu.RUnlock()
	if h == nil {
		l.log.Debug().Str("channel", msg.Channel).Msg("link: no handler for channel")
		l.answerEmpty(r)
		return
	}
	h(msg, r)
	if !r.done.Load() {
		l.answerEmpty(r)
	}
}

func (l *Link) answerEmpty(r *Responder) {
	if err := r.Respond(nil); err != nil && !errors.Is(err, ErrAlreadyResponded) {
		l.log.Warn().Err(err).Uint64("message_id", r.messageID).Msg("link: write empty response")
	}
}

func (l *Link) writeFrame(payload []byte) error {
	if l.closed.Load() {
		return ErrLinkClosed
	}
	l.wmu.Lock()
	defer l.wmu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout))
	_, err := l.conn.Write(payload)
	return err
}

// Responder answers exactly one inbound channel message.
type Responder struct {
	link      *Link
	messageID uint64
	done      atomic.Bool
}

// MessageID is the id the response frame will carry.
func (r *Responder) MessageID() uint64 {
	return r.messageID
}

// Respond sends body as the response. Only the first call writes.
func (r *Responder) Respond(body []byte) error {
	if r.done.Swap(true) {
		return ErrAlreadyResponded
	}
	payload, err := EncodeResponseFrame(r.messageID, body, r.link.cfg.Limits)
	if err != nil {
		return err
	}
	return r.link.writeFrame(payload)
}
