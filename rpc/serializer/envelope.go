package serializer

import (
	"fmt"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

const (
	// Signature starts every transmitted unit
	Signature = "POVRAYMS"

	// ProtocolVersion is the only version this codec accepts
	ProtocolVersion int32 = 0x0351

	// HeaderSize is the number of bytes CheckMessageHeader needs
	HeaderSize = 16

	// fixed part in front of the message object: header, mode, count, msgsize
	envelopeFixed = HeaderSize + 4 + 4 + 4
)

// Envelope is one decoded transmitted unit
type Envelope struct {
	Mode   int32
	Msg    *store.Object
	Result *store.Object // nil when the unit carried the message only
}

// CheckMessageHeader inspects the first HeaderSize bytes of a unit and returns
// the total unit size it announces. A streaming transport calls it to learn
// how many bytes to collect before handing the unit to ReadEnvelope.
//
//	fewer than HeaderSize bytes -> errcode.IncompleteData
//	wrong signature             -> errcode.CannotHandleData
//	wrong version               -> errcode.Version
//	total below HeaderSize      -> errcode.InvalidDataSize
func (s *Stream) CheckMessageHeader(buf []byte) (int, error) {
	if len(buf) < HeaderSize {
		return 0, errcode.IncompleteData
	}
	if string(buf[0:8]) != Signature {
		return 0, errcode.CannotHandleData
	}
	if v := s.order.int32(buf[8:12]); v != ProtocolVersion {
		return 0, fmt.Errorf("protocol version %#04x: %w", v, errcode.Version)
	}
	total := int(s.order.int32(buf[12:16]))
	if total < HeaderSize {
		return total, errcode.InvalidDataSize
	}
	return total, nil
}

// EnvelopeSize returns the unit size WriteEnvelope produces
func (s *Stream) EnvelopeSize(msg, result *store.Object) int {
	n := envelopeFixed + s.ObjectSize(msg)
	if result != nil {
		n += 4 + s.ObjectSize(result)
	}
	return n
}

// WriteEnvelope builds a complete unit carrying msg and, if not nil, result
func (s *Stream) WriteEnvelope(mode int32, msg, result *store.Object) ([]byte, error) {
	if msg == nil {
		return nil, errcode.Param
	}
	msgSize := s.ObjectSize(msg)
	total := s.EnvelopeSize(msg, result)
	count := int32(1)
	if result != nil {
		count = 2
	}

	o := s.order
	buf := make([]byte, total)
	copy(buf[0:8], Signature)
	o.putInt32(buf[8:12], ProtocolVersion)
	o.putInt32(buf[12:16], int32(total))
	o.putInt32(buf[16:20], mode)
	o.putInt32(buf[20:24], count)
	o.putInt32(buf[24:28], int32(msgSize))

	off := envelopeFixed
	n, err := s.WriteObject(msg, buf[off:])
	if err != nil {
		return nil, fmt.Errorf("writing message: %w", err)
	}
	off += n

	if result != nil {
		o.putInt32(buf[off:off+4], int32(s.ObjectSize(result)))
		off += 4
		n, err := s.WriteObject(result, buf[off:])
		if err != nil {
			return nil, fmt.Errorf("writing result: %w", err)
		}
		off += n
	}
	return buf[:off], nil
}

// ReadEnvelope decodes a complete unit. The declared total size must match
// len(buf) exactly.
func (s *Stream) ReadEnvelope(buf []byte) (*Envelope, error) {
	total, err := s.CheckMessageHeader(buf)
	if err != nil {
		return nil, err
	}
	if total != len(buf) || len(buf) < envelopeFixed {
		return nil, fmt.Errorf("unit declares %d bytes, got %d: %w", total, len(buf), errcode.InvalidDataSize)
	}

	o := s.order
	env := &Envelope{Mode: o.int32(buf[16:20])}
	count := o.int32(buf[20:24])
	if count != 1 && count != 2 {
		return nil, fmt.Errorf("object count %d: %w", count, errcode.CannotHandleData)
	}

	off := envelopeFixed
	msgSize := int(o.int32(buf[24:28]))
	msg, n, err := s.ReadObject(buf[off:])
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	if n != msgSize {
		return nil, fmt.Errorf("message declares %d bytes, decoded %d: %w", msgSize, n, errcode.InvalidDataSize)
	}
	env.Msg = msg
	off += n

	if count == 2 {
		if len(buf) < off+4 {
			return nil, errcode.InvalidDataSize
		}
		resultSize := int(o.int32(buf[off : off+4]))
		off += 4
		result, n, err := s.ReadObject(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("reading result: %w", err)
		}
		if n != resultSize {
			return nil, fmt.Errorf("result declares %d bytes, decoded %d: %w", resultSize, n, errcode.InvalidDataSize)
		}
		env.Result = result
		off += n
	}

	if off != len(buf) {
		return nil, fmt.Errorf("%d trailing bytes: %w", len(buf)-off, errcode.InvalidDataSize)
	}
	return env, nil
}

// CheckMessageHeader validates a unit header using the host tables
func CheckMessageHeader(buf []byte) (int, error) {
	return NewStream(nil).CheckMessageHeader(buf)
}
