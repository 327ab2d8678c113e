// Command udp_sink receives datagrams on a local port and reports the
// receive rate, so packetfire can be exercised without a remote target.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"github.com/torosent/packetfire/internal/payload"
)

type counters struct {
	datagrams atomic.Uint64
	bytes     atomic.Uint64
	foreign   atomic.Uint64 // datagrams with bytes outside the payload charset
}

func (c *counters) observe(b []byte) {
	c.datagrams.Add(1)
	c.bytes.Add(uint64(len(b)))
	if !inCharset(b) {
		c.foreign.Add(1)
	}
}

func inCharset(b []byte) bool {
	for _, ch := range b {
		if !isCharsetByte(ch) {
			return false
		}
	}
	return true
}

var charsetTable = func() (t [256]bool) {
	for i := 0; i < len(payload.Charset); i++ {
		t[payload.Charset[i]] = true
	}
	return t
}()

func isCharsetByte(ch byte) bool { return charsetTable[ch] }

func main() {
	addr := pflag.StringP("listen", "l", "127.0.0.1:9999", "UDP address to listen on")
	interval := pflag.DurationP("interval", "i", time.Second, "Reporting interval")
	readBuffer := pflag.Int("read-buffer", 4<<20, "Socket receive buffer size in bytes")
	pflag.Parse()

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.TimeOnly}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, *addr, *readBuffer, *interval, log); err != nil {
		log.Error("udp sink failed", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, readBuffer int, interval time.Duration, log *slog.Logger) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if udp, ok := conn.(*net.UDPConn); ok && readBuffer > 0 {
		if err := udp.SetReadBuffer(readBuffer); err != nil {
			log.Warn("could not set read buffer", "error", err)
		}
	}
	context.AfterFunc(ctx, func() { conn.Close() })
	log.Info("udp sink listening", "address", conn.LocalAddr().String())

	var c counters
	go report(ctx, &c, interval, log)

	buf := make([]byte, 65535)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info("udp sink stopped",
					"datagrams", c.datagrams.Load(),
					"bytes", c.bytes.Load(),
					"foreign", c.foreign.Load(),
				)
				return nil
			}
			return err
		}
		c.observe(buf[:n])
	}
}

func report(ctx context.Context, c *counters, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var lastDatagrams, lastBytes uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d, b := c.datagrams.Load(), c.bytes.Load()
			secs := interval.Seconds()
			log.Info("receiving",
				"pps", float64(d-lastDatagrams)/secs,
				"mbit_s", float64(b-lastBytes)*8/1e6/secs,
				"total", d,
			)
			lastDatagrams, lastBytes = d, b
		}
	}
}
