package session

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"ripcache/internal/crypto"
	"ripcache/internal/dispatch"
)

// Listener accepts client connections on the configured client address,
// enforcing max_clients and handing each accepted connection to its own
// Session goroutine.
type Listener struct {
	ln         net.Listener
	framer     *crypto.Framer
	ctx        *dispatch.Context
	log        *logrus.Entry
	maxClients int64

	active atomic.Int64

	mu      sync.Mutex
	closing bool
}

func NewListener(addr string, framer *crypto.Framer, ctx *dispatch.Context, maxClients int64, log *logrus.Entry) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, framer: framer, ctx: ctx, maxClients: maxClients, log: log}, nil
}

func (l *Listener) Addr() string { return l.ln.Addr().String() }

// Serve accepts connections until the listener is closed.
func (l *Listener) Serve() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			l.mu.Lock()
			closing := l.closing
			l.mu.Unlock()
			if closing {
				return
			}
			continue
		}

		if l.maxClients > 0 && l.active.Load() >= l.maxClients {
			conn.Close()
			continue
		}

		l.active.Add(1)
		go func() {
			defer l.active.Add(-1)
			sess := New(conn, l.framer, l.ctx, l.log.WithField("client", conn.RemoteAddr().String()))
			sess.Serve()
		}()
	}
}

// Close stops accepting new connections; in-flight sessions drain on
// their own.
func (l *Listener) Close() error {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()
	return l.ln.Close()
}
