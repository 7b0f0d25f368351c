package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/a11ybridge/internal/events"
	"github.com/danmuck/a11ybridge/internal/logging"
	"github.com/danmuck/a11ybridge/internal/protocol/codec"
	"github.com/danmuck/a11ybridge/internal/protocol/frame"
	"github.com/danmuck/a11ybridge/internal/protocol/link"
	"github.com/danmuck/a11ybridge/internal/protocol/schema"
	"github.com/danmuck/a11ybridge/internal/semantics"
	"github.com/rs/zerolog/log"
)

type options struct {
	input       string
	channel     string
	events      bool
	maxPayload  uint64
	stopOnError bool
}

type summary struct {
	frames   int
	nodes    int
	batches  int
	messages int
	skipped  int
}

func main() {
	opts := options{}
	flag.StringVar(&opts.input, "input", "-", "captured frame stream (- for stdin)")
	flag.StringVar(&opts.channel, "channel", "flutter/accessibility", "channel whose messages are routed")
	flag.BoolVar(&opts.events, "events", true, "route channel messages and print the resulting events")
	flag.Uint64Var(&opts.maxPayload, "max-payload", frame.DefaultLimits().MaxPayloadBytes, "maximum frame payload bytes")
	flag.BoolVar(&opts.stopOnError, "strict", false, "fail on the first undecodable record or message")
	flag.Parse()

	logging.ConfigureRuntime()

	in := io.Reader(os.Stdin)
	if opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "semdump: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	sum, err := run(in, os.Stdout, opts)
	fmt.Fprintf(os.Stderr, "semdump: frames=%d nodes=%d batches=%d messages=%d skipped=%d\n",
		sum.frames, sum.nodes, sum.batches, sum.messages, sum.skipped)
	if err != nil {
		fmt.Fprintf(os.Stderr, "semdump: %v\n", err)
		os.Exit(1)
	}
}

// run prints every decoded node and routed event in the stream to w.
func run(r io.Reader, w io.Writer, opts options) (summary, error) {
	limits := frame.DefaultLimits()
	if opts.maxPayload > 0 {
		limits.MaxPayloadBytes = opts.maxPayload
	}
	router := events.NewRouter(events.WithLogger(log.Logger), events.WithHandler(printHandler{w: w}))
	reader := bufio.NewReader(r)

	var sum summary
	for {
		fr, err := frame.ReadFrame(reader, limits)
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", sum.frames+1, err)
		}
		sum.frames++

		switch fr.Header.MessageType {
		case schema.MsgSemanticsUpdate:
			if err := dumpUpdate(w, fr, &sum, opts); err != nil {
				return sum, err
			}
		case schema.MsgChannelMessage:
			if err := dumpMessage(w, fr, router, &sum, opts); err != nil {
				return sum, err
			}
		case schema.MsgChannelResponse:
			body, err := link.DecodeResponseFrame(fr)
			if err != nil {
				sum.skipped++
				fmt.Fprintf(w, "response %d: %v\n", fr.Header.MessageID, err)
				continue
			}
			fmt.Fprintf(w, "response %d: %d bytes\n", fr.Header.MessageID, len(body))
		default:
			sum.skipped++
			fmt.Fprintf(w, "frame %d: unknown message type %d\n", fr.Header.MessageID, fr.Header.MessageType)
		}
	}
}

func dumpUpdate(w io.Writer, fr frame.Frame, sum *summary, opts options) error {
	nodes, errs, err := link.DecodeUpdateFrame(fr)
	if err != nil {
		return fmt.Errorf("update %d: %w", fr.Header.MessageID, err)
	}
	for _, recErr := range errs {
		if opts.stopOnError {
			return fmt.Errorf("update %d: %w", fr.Header.MessageID, recErr)
		}
		sum.skipped++
		fmt.Fprintf(w, "update %d: skipped %v\n", fr.Header.MessageID, recErr)
	}
	for _, raw := range nodes {
		node, end := semantics.Decode(raw)
		if end {
			sum.batches++
			fmt.Fprintf(w, "--- batch end (generation %d) ---\n", sum.batches)
			continue
		}
		sum.nodes++
		semantics.Dump(w, node)
	}
	return nil
}

func dumpMessage(w io.Writer, fr frame.Frame, router *events.Router, sum *summary, opts options) error {
	msg, err := link.DecodeMessageFrame(fr)
	if err != nil {
		return fmt.Errorf("message %d: %w", fr.Header.MessageID, err)
	}
	sum.messages++
	if !opts.events || msg.Channel != opts.channel {
		fmt.Fprintf(w, "message %d channel=%s: %d bytes\n", fr.Header.MessageID, msg.Channel, len(msg.Body))
		return nil
	}
	value, err := codec.Decode(msg.Body)
	if err != nil {
		if opts.stopOnError {
			return fmt.Errorf("message %d: %w", fr.Header.MessageID, err)
		}
		sum.skipped++
		fmt.Fprintf(w, "message %d: undecodable body: %v\n", fr.Header.MessageID, err)
		return nil
	}
	res := router.Route(value)
	switch res.Outcome {
	case events.OutcomeRouted:
	case events.OutcomeUnknown:
		fmt.Fprintf(w, "message %d: %v\n", fr.Header.MessageID, res.Event)
	default:
		sum.skipped++
		fmt.Fprintf(w, "message %d: malformed %v\n", fr.Header.MessageID, value)
	}
	return nil
}

// printHandler writes one line per routed event.
type printHandler struct {
	w io.Writer
}

func (h printHandler) Announce(e events.Announce) codec.Value   { return h.print(e) }
func (h printHandler) Tap(e events.Tap) codec.Value             { return h.print(e) }
func (h printHandler) LongPress(e events.LongPress) codec.Value { return h.print(e) }
func (h printHandler) Tooltip(e events.Tooltip) codec.Value     { return h.print(e) }

func (h printHandler) print(e events.Event) codec.Value {
	fmt.Fprintf(h.w, "event %s\n", e)
	return codec.Null()
}
