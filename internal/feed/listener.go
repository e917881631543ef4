package feed

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/strataxr/anchord/internal/monitoring"
	"github.com/strataxr/anchord/internal/session"
)

// UDPListener receives observation datagrams from the host sensing
// layer and forwards them into the session bridge. It manages the UDP
// socket, per-datagram parsing, and periodic statistics.
type UDPListener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	buffer      []byte
	bridge      *session.Bridge

	localAddr atomic.Pointer[net.UDPAddr]

	// Counters are written on the receive goroutine and read by the
	// stats goroutine.
	packets   atomic.Uint64
	malformed atomic.Uint64
}

// UDPListenerConfig contains configuration options for the listener.
type UDPListenerConfig struct {
	Address     string
	RcvBuf      int
	LogInterval time.Duration
}

// NewUDPListener creates a listener feeding the given bridge.
func NewUDPListener(bridge *session.Bridge, config UDPListenerConfig) *UDPListener {
	if config.RcvBuf == 0 {
		config.RcvBuf = 1 << 20
	}
	if config.LogInterval == 0 {
		config.LogInterval = 30 * time.Second
	}
	return &UDPListener{
		address:     config.Address,
		rcvBuf:      config.RcvBuf,
		logInterval: config.LogInterval,
		buffer:      make([]byte, 4096), // a frame's planes fit well under this
		bridge:      bridge,
	}
}

// LocalAddr returns the bound feed address, or nil until Start has
// opened the socket. Mainly useful with a ":0" listen address.
func (l *UDPListener) LocalAddr() *net.UDPAddr {
	return l.localAddr.Load()
}

// Start listens for datagrams until the context is cancelled or an
// unrecoverable socket error occurs.
func (l *UDPListener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("resolve feed address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen on feed address: %w", err)
	}
	defer conn.Close()
	l.localAddr.Store(conn.LocalAddr().(*net.UDPAddr))

	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		log.Printf("failed to set feed receive buffer to %d bytes: %v", l.rcvBuf, err)
	}

	log.Printf("listening for observation feed on %s", conn.LocalAddr())
	go l.statsLogging(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Print("observation feed shutting down")
			return ctx.Err()
		default:
			// Short read deadline so context cancellation is noticed.
			if err := conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
				log.Printf("error setting feed read deadline: %v", err)
				continue
			}

			n, _, err := conn.ReadFromUDP(l.buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				log.Printf("error reading feed datagram: %v", err)
				continue
			}

			if err := l.handleDatagram(ctx, l.buffer[:n]); err != nil {
				monitoring.Logf("error handling feed datagram: %v", err)
			}
		}
	}
}

// handleDatagram parses one datagram and routes it into the bridge. A
// malformed datagram is counted and dropped; it never stops the feed.
func (l *UDPListener) handleDatagram(ctx context.Context, data []byte) error {
	l.packets.Add(1)

	m, err := ParseMessage(data)
	if err != nil {
		l.malformed.Add(1)
		monitoring.FeedPackets.WithLabelValues("malformed").Inc()
		return err
	}
	monitoring.FeedPackets.WithLabelValues("ok").Inc()

	switch m.Type {
	case TypePlanes:
		return l.bridge.IngestPlaneObservations(ctx, m.Observations())
	case TypeCamera:
		return l.bridge.UpdateCameraPose(ctx, m.Pose())
	case TypeTap:
		// Taps normally arrive over the HTTP API where the result can
		// be returned; a feed tap is fire-and-forget, so just log the
		// outcome.
		result, err := l.bridge.IngestTap(ctx, m.Ray(), session.ObjectKind(m.Tap.Kind), m.Tap.Size)
		if err != nil {
			return err
		}
		monitoring.Logf("feed tap resolved: outcome=%s object=%s", result.Outcome, result.ObjectID)
		return nil
	}
	return nil
}

func (l *UDPListener) statsLogging(ctx context.Context) {
	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("feed stats: packets=%d malformed=%d", l.packets.Load(), l.malformed.Load())
		}
	}
}
