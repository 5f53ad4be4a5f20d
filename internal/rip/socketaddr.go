package rip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// SocketAddr is the wire representation of a peer/client address:
// kind(1)=4|6 | ip(4 or 16 bytes) | port(2), big-endian.
type SocketAddr struct {
	IP   net.IP
	Port uint16
}

var ErrBadSocketAddr = errors.New("rip: malformed socket address")

// ParseSocketAddr parses a "host:port" string, as read from redis.conf,
// into a SocketAddr.
func ParseSocketAddr(hostport string) (SocketAddr, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return SocketAddr{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return SocketAddr{}, err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return SocketAddr{}, fmt.Errorf("rip: cannot resolve %q: %w", host, err)
		}
		ip = ips[0]
	}
	return SocketAddr{IP: ip, Port: uint16(port)}, nil
}

func (a SocketAddr) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
}

func (a SocketAddr) is4() bool {
	return a.IP.To4() != nil && !strings.Contains(a.IP.String(), ":")
}

func (a SocketAddr) encode(w io.Writer) error {
	if a.is4() {
		if _, err := w.Write([]byte{4}); err != nil {
			return err
		}
		if _, err := w.Write(a.IP.To4()); err != nil {
			return err
		}
	} else {
		ip16 := a.IP.To16()
		if ip16 == nil {
			return ErrBadSocketAddr
		}
		if _, err := w.Write([]byte{6}); err != nil {
			return err
		}
		if _, err := w.Write(ip16); err != nil {
			return err
		}
	}
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], a.Port)
	_, err := w.Write(portBuf[:])
	return err
}

func decodeSocketAddr(r io.Reader) (SocketAddr, error) {
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return SocketAddr{}, err
	}
	var ipLen int
	switch kind[0] {
	case 4:
		ipLen = 4
	case 6:
		ipLen = 16
	default:
		return SocketAddr{}, ErrBadSocketAddr
	}
	ipBuf := make([]byte, ipLen)
	if _, err := io.ReadFull(r, ipBuf); err != nil {
		return SocketAddr{}, err
	}
	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return SocketAddr{}, err
	}
	return SocketAddr{IP: net.IP(ipBuf), Port: binary.BigEndian.Uint16(portBuf[:])}, nil
}
