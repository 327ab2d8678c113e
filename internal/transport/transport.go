// Package transport opens the per-worker outbound UDP sockets.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// ErrShortWrite is reported when the kernel accepted fewer bytes than the
// datagram carried.
var ErrShortWrite = errors.New("short write")

// Conn is a socket connected to a single destination.
type Conn interface {
	Write(b []byte) (int, error)
	Close() error
}

// Dialer opens a Conn to target. Implementations must be safe for concurrent
// use; each worker dials its own socket.
type Dialer interface {
	Dial(ctx context.Context, target netip.AddrPort) (Conn, error)
}

// UDPDialer opens connected UDP sockets. Zero-valued options leave the
// kernel defaults in place.
type UDPDialer struct {
	WriteBuffer int // SO_SNDBUF in bytes
	TTL         int // IPv4 TTL or IPv6 hop limit
	TOS         int // IPv4 TOS or IPv6 traffic class
}

// Dial implements Dialer.
func (d UDPDialer) Dial(ctx context.Context, target netip.AddrPort) (Conn, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("dial: invalid target %v", target)
	}
	target = netip.AddrPortFrom(target.Addr().Unmap(), target.Port())

	network := "udp4"
	if target.Addr().Is6() {
		network = "udp6"
	}

	var nd net.Dialer
	c, err := nd.DialContext(ctx, network, target.String())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	conn, ok := c.(*net.UDPConn)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("dial %s: unexpected connection type %T", target, c)
	}
	if err := d.configure(conn, target.Addr().Is4()); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (d UDPDialer) configure(conn *net.UDPConn, v4 bool) error {
	if d.WriteBuffer > 0 {
		if err := conn.SetWriteBuffer(d.WriteBuffer); err != nil {
			return fmt.Errorf("set write buffer: %w", err)
		}
	}
	if d.TTL <= 0 && d.TOS <= 0 {
		return nil
	}

	if v4 {
		pc := ipv4.NewConn(conn)
		if d.TTL > 0 {
			if err := pc.SetTTL(d.TTL); err != nil {
				return fmt.Errorf("set ttl: %w", err)
			}
		}
		if d.TOS > 0 {
			if err := pc.SetTOS(d.TOS); err != nil {
				return fmt.Errorf("set tos: %w", err)
			}
		}
		return nil
	}

	pc := ipv6.NewConn(conn)
	if d.TTL > 0 {
		if err := pc.SetHopLimit(d.TTL); err != nil {
			return fmt.Errorf("set hop limit: %w", err)
		}
	}
	if d.TOS > 0 {
		if err := pc.SetTrafficClass(d.TOS); err != nil {
			return fmt.Errorf("set traffic class: %w", err)
		}
	}
	return nil
}

// Check folds the result of a datagram write into a single error. A write
// that did not hand every byte to the kernel is a failure.
func Check(n, want int, err error) error {
	if err != nil {
		return err
	}
	if n < want {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, want)
	}
	return nil
}
