// Package addr provides the Address type used to route povms messages to a queue,
// together with its self-describing stream encoding.
//
// An address stream is a sequence of tagged forms. Each form starts with a one
// byte kind tag followed by a kind specific body:
//
//	tag 1  system address: 1 byte length, then length bytes queue id (big endian)
//	tag 4  IPv4 address (4 bytes) + port (2 bytes, big endian)
//	tag 6  IPv6 address (16 bytes) + port (2 bytes, big endian)
//
// A reader steps over system forms of a foreign id width. At the first unknown
// tag it gives up and ignores the rest of the stream, which then reads as the
// invalid address. The zero Address is the invalid address and is streamed as a
// system address with queue id 0.
package addr

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Kind is the one byte tag of an address form
type Kind uint8

const (
	KindInvalid Kind = 0
	KindSystem  Kind = 1
	KindIPv4    Kind = 4
	KindIPv6    Kind = 6
)

const (
	systemIDSize   = 8
	systemFormSize = 2 + systemIDSize
	ipv4FormSize   = 1 + 4 + 2
	ipv6FormSize   = 1 + 16 + 2
)

// Address identifies a destination queue. It is comparable and cheap to copy.
type Address struct {
	kind  Kind
	queue uint64
	net   netip.AddrPort
}

// Invalid is the address that routes nowhere
var Invalid = Address{}

// System returns the in-process address of the queue with the given id
func System(queue uint64) Address {
	if queue == 0 {
		return Invalid
	}
	return Address{kind: KindSystem, queue: queue}
}

// Net returns a network address. IPv4 mapped IPv6 addresses are unmapped first.
func Net(ap netip.AddrPort) Address {
	if !ap.IsValid() {
		return Invalid
	}
	ip := ap.Addr().Unmap()
	if ip.Is4() {
		return Address{kind: KindIPv4, net: netip.AddrPortFrom(ip, ap.Port())}
	}
	return Address{kind: KindIPv6, net: ap}
}

// Kind returns the address kind
func (a Address) Kind() Kind { return a.kind }

// Queue returns the queue id of a system address (0 otherwise)
func (a Address) Queue() uint64 { return a.queue }

// AddrPort returns the network endpoint of an IPv4/IPv6 address
func (a Address) AddrPort() netip.AddrPort { return a.net }

// IsValid reports whether the address routes anywhere
func (a Address) IsValid() bool { return a.kind != KindInvalid }

func (a Address) String() string {
	switch a.kind {
	case KindSystem:
		return fmt.Sprintf("queue:%d", a.queue)
	case KindIPv4, KindIPv6:
		return a.net.String()
	default:
		return "invalid"
	}
}

// Parse is the inverse of String
func Parse(s string) (Address, error) {
	if s == "invalid" || s == "" {
		return Invalid, nil
	}
	if rest, ok := strings.CutPrefix(s, "queue:"); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Invalid, fmt.Errorf("invalid queue address %q: %w", s, err)
		}
		return System(id), nil
	}
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Invalid, fmt.Errorf("invalid network address %q: %w", s, err)
	}
	return Net(ap), nil
}

// --------------------------------------------------------------------------
// Stream encoding
// --------------------------------------------------------------------------

// StreamSize returns the number of bytes WriteStream produces for a
func (a Address) StreamSize() int {
	switch a.kind {
	case KindIPv4:
		return ipv4FormSize
	case KindIPv6:
		return ipv6FormSize
	default:
		return systemFormSize
	}
}

// WriteStream encodes a into buf and returns the number of bytes written.
// It returns 0 if buf is too small.
func (a Address) WriteStream(buf []byte) int {
	size := a.StreamSize()
	if len(buf) < size {
		return 0
	}

	switch a.kind {
	case KindIPv4:
		buf[0] = byte(KindIPv4)
		ip := a.net.Addr().As4()
		copy(buf[1:5], ip[:])
		binary.BigEndian.PutUint16(buf[5:7], a.net.Port())
	case KindIPv6:
		buf[0] = byte(KindIPv6)
		ip := a.net.Addr().As16()
		copy(buf[1:17], ip[:])
		binary.BigEndian.PutUint16(buf[17:19], a.net.Port())
	default:
		buf[0] = byte(KindSystem)
		buf[1] = systemIDSize
		binary.BigEndian.PutUint64(buf[2:10], a.queue)
	}
	return size
}

// ReadStream decodes the first understood address form found in buf. System
// forms of a foreign width are stepped over. An unknown tag or a truncated form
// ends the scan and the rest of buf is ignored, yielding Invalid.
func ReadStream(buf []byte) Address {
	for len(buf) > 0 {
		switch Kind(buf[0]) {
		case KindSystem:
			if len(buf) < 2 {
				return Invalid
			}
			n := int(buf[1])
			if len(buf) < 2+n {
				return Invalid
			}
			if n == systemIDSize {
				return System(binary.BigEndian.Uint64(buf[2:10]))
			}
			// foreign system address width
			buf = buf[2+n:]
		case KindIPv4:
			if len(buf) < ipv4FormSize {
				return Invalid
			}
			ip := netip.AddrFrom4([4]byte(buf[1:5]))
			return Net(netip.AddrPortFrom(ip, binary.BigEndian.Uint16(buf[5:7])))
		case KindIPv6:
			if len(buf) < ipv6FormSize {
				return Invalid
			}
			ip := netip.AddrFrom16([16]byte(buf[1:17]))
			return Net(netip.AddrPortFrom(ip, binary.BigEndian.Uint16(buf[17:19])))
		default:
			return Invalid
		}
	}
	return Invalid
}
