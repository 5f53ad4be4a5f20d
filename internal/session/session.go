// Package session terminates the AES-framed RESP3 client wire: one
// goroutine reads and dispatches commands, a second drains a bounded
// per-client write queue so responses and pub/sub pushes leave in
// enqueue order.
package session

import (
	"bufio"
	"bytes"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"ripcache/internal/crypto"
	"ripcache/internal/dispatch"
	"ripcache/internal/resp"
)

// writeQueueSize bounds the per-client outbound queue so a slow reader
// cannot grow memory without limit; when the queue is full, enqueue
// closes the session.
const writeQueueSize = 256

// Session owns one client connection: its AES framer, dispatch
// context, and the ClientState the dispatcher and pub/sub broker
// consult for auth and subscription bookkeeping.
type Session struct {
	conn   net.Conn
	framer *crypto.Framer
	ctx    *dispatch.Context
	state  *dispatch.ClientState
	log    *logrus.Entry

	writeCh chan resp.Value
	done    chan struct{}
	once    sync.Once
}

// New wraps an accepted connection. Serve must be called to run it.
func New(conn net.Conn, framer *crypto.Framer, ctx *dispatch.Context, log *logrus.Entry) *Session {
	return &Session{
		conn:    conn,
		framer:  framer,
		ctx:     ctx,
		log:     log,
		writeCh: make(chan resp.Value, writeQueueSize),
		done:    make(chan struct{}),
	}
}

// Serve reads frames until the connection errors or closes, dispatching
// each decoded command and enqueueing its response on the write loop.
func (s *Session) Serve() {
	defer s.teardown()

	state := &dispatch.ClientState{}
	state.Deliver = s.enqueue
	s.state = state

	go s.writeLoop()

	for {
		plaintext, err := crypto.ReadFrame(s.conn, s.framer)
		if err != nil {
			return
		}
		req, err := resp.Decode(bufio.NewReader(bytes.NewReader(plaintext)))
		if err != nil {
			s.enqueue(resp.Errorf("ERR", "Protocol error: %v", err))
			return
		}
		if req.Kind != resp.KindArray || len(req.Items) == 0 {
			s.enqueue(resp.Errorf("ERR", "invalid request"))
			continue
		}
		name, _ := req.Items[0].AsString()
		result := dispatch.Dispatch(s.ctx, state, name, req.Items[1:])
		s.enqueue(result)
	}
}

// enqueue pushes a response or pub/sub push frame onto the write
// queue. A frame for a session already tearing down is dropped. A full
// queue closes the session instead of blocking: enqueue runs on broker
// and cluster goroutines, and stalling those on one slow client would
// hold up delivery to everyone else; closing also never skips a frame
// mid-stream, preserving per-client ordering.
func (s *Session) enqueue(v resp.Value) {
	select {
	case s.writeCh <- v:
	case <-s.done:
	default:
		s.log.Warn("session: write queue full, closing slow client")
		s.teardown()
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case v := <-s.writeCh:
			var buf bytes.Buffer
			if err := resp.Encode(&buf, v); err != nil {
				s.log.WithError(err).Warn("session: encode response failed")
				return
			}
			if err := s.framer.WriteFrame(s.conn, buf.Bytes()); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) teardown() {
	s.once.Do(func() {
		close(s.done)
		if s.ctx.Broker != nil && s.state != nil {
			s.ctx.Broker.Teardown(s.state)
		}
		s.conn.Close()
	})
}
