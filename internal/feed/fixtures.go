package feed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"
)

// FixtureReplayer feeds recorded observation messages from a file
// instead of a live UDP socket, one JSON message per line. Used in dev
// mode so the daemon can run without an AR host attached.
type FixtureReplayer struct {
	path     string
	interval time.Duration
	loop     bool
	listener *UDPListener
}

// NewFixtureReplayer creates a replayer that pushes fixture messages
// through the same datagram handling path as the live listener.
func NewFixtureReplayer(listener *UDPListener, path string, interval time.Duration, loop bool) *FixtureReplayer {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &FixtureReplayer{
		path:     path,
		interval: interval,
		loop:     loop,
		listener: listener,
	}
}

// Start replays the fixture file until it is exhausted (or forever
// when looping) or the context is cancelled.
func (r *FixtureReplayer) Start(ctx context.Context) error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read fixtures file: %w", err)
	}

	log.Printf("replaying observation fixtures from %s", r.path)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 || line[0] == '#' {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if err := r.listener.handleDatagram(ctx, line); err != nil {
				log.Printf("fixture message dropped: %v", err)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("scan fixtures file: %w", err)
		}
		if !r.loop {
			return nil
		}
	}
}
