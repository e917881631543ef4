//go:build pcap
// +build pcap

// Command feed-replay replays a captured observation feed from a PCAP
// file to a running daemon, respecting original packet timing. Capture
// a session with tcpdump on the feed port, then replay it for
// debugging without the AR host attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

var (
	pcapFile = flag.String("pcap", "", "PCAP file to replay (required)")
	feedPort = flag.Int("port", 9601, "Feed port the capture was taken on")
	target   = flag.String("target", "localhost:9601", "Daemon feed address to replay to")
	speed    = flag.Float64("speed", 1.0, "Replay speed multiplier (1.0 = real-time)")
)

func main() {
	flag.Parse()
	if *pcapFile == "" {
		log.Fatal("a PCAP file is required")
	}
	if *speed <= 0 {
		*speed = 1.0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := replay(ctx); err != nil && err != context.Canceled {
		log.Fatalf("replay failed: %v", err)
	}
}

func replay(ctx context.Context) error {
	handle, err := pcap.OpenOffline(*pcapFile)
	if err != nil {
		return fmt.Errorf("open PCAP file %s: %w", *pcapFile, err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("udp port %d", *feedPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("set BPF filter %q: %w", filter, err)
	}

	addr, err := net.ResolveUDPAddr("udp", *target)
	if err != nil {
		return fmt.Errorf("resolve target: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("dial target: %w", err)
	}
	defer conn.Close()

	log.Printf("replaying %s to %s (filter %q, speed %.1fx)", *pcapFile, *target, filter, *speed)

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	var firstPacket time.Time
	replayStart := time.Now()
	sent := 0

	for packet := range source.Packets() {
		select {
		case <-ctx.Done():
			log.Printf("replay interrupted after %d datagrams", sent)
			return ctx.Err()
		default:
		}

		transport := packet.TransportLayer()
		if transport == nil {
			continue
		}
		payload := transport.LayerPayload()
		if len(payload) == 0 {
			continue
		}

		// Pace to the capture's own timing.
		captured := packet.Metadata().Timestamp
		if firstPacket.IsZero() {
			firstPacket = captured
		} else {
			offset := time.Duration(float64(captured.Sub(firstPacket)) / *speed)
			if wait := offset - time.Since(replayStart); wait > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
		}

		if _, err := conn.Write(payload); err != nil {
			return fmt.Errorf("send datagram: %w", err)
		}
		sent++
	}

	log.Printf("replayed %d datagrams in %s", sent, time.Since(replayStart).Round(time.Millisecond))
	return nil
}
