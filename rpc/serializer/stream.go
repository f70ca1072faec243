package serializer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

// attrHeaderSize is the type code plus the size field in front of every attribute
const attrHeaderSize = 8

// maxNesting bounds the recursion depth when decoding untrusted streams
const maxNesting = 64

// MaxAttributeBody bounds the body of a single attribute read by ReadObjectFrom
const MaxAttributeBody = 64 << 20

// Stream is the recursive binary codec for attributes. It is stateless apart
// from the order tables and safe for concurrent use.
type Stream struct {
	order *OrderTables
}

// NewStream creates a codec using the given tables, nil selects the host tables
func NewStream(order *OrderTables) *Stream {
	if order == nil {
		order = HostOrderTables()
	}
	return &Stream{order: order}
}

// --------------------------------------------------------------------------
// Size
// --------------------------------------------------------------------------

// Size returns the exact number of bytes Write produces for a
func (s *Stream) Size(a store.Attribute) int {
	n := attrHeaderSize
	switch v := a.Value().(type) {
	case *store.Object:
		for _, child := range v.All() {
			n += 4 + s.Size(child)
		}
	case *store.List:
		for _, item := range v.All() {
			n += s.Size(item)
		}
	case int32, float32, store.Type:
		n += 4
	case int64, float64:
		n += 8
	case bool:
		n += 1
	case string:
		n += len(v)
	case []uint16:
		n += 2 * len(v)
	case addr.Address:
		n += v.StreamSize()
	case []int32:
		n += 4 * len(v)
	case []int64:
		n += 8 * len(v)
	case []float32:
		n += 4 * len(v)
	case []store.Type:
		n += 4 * len(v)
	case []byte:
		n += len(v)
	}
	return n
}

// --------------------------------------------------------------------------
// Write
// --------------------------------------------------------------------------

// Write encodes a into buf and returns the number of bytes written. If buf
// cannot hold the whole attribute nothing is written and errcode.InvalidDataSize
// is returned together with 0.
func (s *Stream) Write(a store.Attribute, buf []byte) (int, error) {
	size := s.Size(a)
	if len(buf) < size {
		return 0, errcode.InvalidDataSize
	}
	n := s.write(a, buf)
	if n != size {
		return 0, fmt.Errorf("stream size mismatch (%d != %d): %w", n, size, errcode.InvalidDataSize)
	}
	return n, nil
}

// write assumes buf is large enough, which Write has checked
func (s *Stream) write(a store.Attribute, buf []byte) int {
	o := s.order
	o.putType(buf[0:4], uint32(a.Type()))
	body := buf[attrHeaderSize:]
	n := 0

	switch v := a.Value().(type) {
	case *store.Object:
		o.putInt32(buf[4:8], int32(v.Len()))
		for key, child := range v.All() {
			o.putType(body[n:n+4], uint32(key))
			n += 4
			n += s.write(child, body[n:])
		}
	case *store.List:
		o.putInt32(buf[4:8], int32(v.Count()))
		for _, item := range v.All() {
			n += s.write(item, body[n:])
		}
	case int32:
		o.putInt32(buf[4:8], 4)
		o.putInt32(body, v)
		n = 4
	case int64:
		o.putInt32(buf[4:8], 8)
		o.putInt64(body, v)
		n = 8
	case float32:
		o.putInt32(buf[4:8], 4)
		o.putFloat32(body, v)
		n = 4
	case float64:
		o.putInt32(buf[4:8], 8)
		o.putFloat64(body, v)
		n = 8
	case bool:
		o.putInt32(buf[4:8], 1)
		body[0] = 0x00
		if v {
			body[0] = 0xFF
		}
		n = 1
	case store.Type:
		o.putInt32(buf[4:8], 4)
		o.putType(body, uint32(v))
		n = 4
	case string:
		o.putInt32(buf[4:8], int32(len(v)))
		n = copy(body, v)
	case []uint16:
		o.putInt32(buf[4:8], int32(2*len(v)))
		for _, u := range v {
			o.putUCS2(body[n:n+2], u)
			n += 2
		}
	case addr.Address:
		o.putInt32(buf[4:8], int32(v.StreamSize()))
		n = v.WriteStream(body)
	case []int32:
		o.putInt32(buf[4:8], int32(len(v)))
		for _, e := range v {
			o.putInt32(body[n:n+4], e)
			n += 4
		}
	case []int64:
		o.putInt32(buf[4:8], int32(len(v)))
		for _, e := range v {
			o.putInt64(body[n:n+8], e)
			n += 8
		}
	case []float32:
		o.putInt32(buf[4:8], int32(len(v)))
		for _, e := range v {
			o.putFloat32(body[n:n+4], e)
			n += 4
		}
	case []store.Type:
		o.putInt32(buf[4:8], int32(len(v)))
		for _, e := range v {
			o.putType(body[n:n+4], uint32(e))
			n += 4
		}
	case []byte:
		o.putInt32(buf[4:8], int32(len(v)))
		n = copy(body, v)
	default:
		o.putInt32(buf[4:8], 0)
	}
	return attrHeaderSize + n
}

// --------------------------------------------------------------------------
// Read
// --------------------------------------------------------------------------

// Read decodes one attribute from the front of buf and returns it together
// with the number of bytes consumed. Truncated input fails with
// errcode.InvalidDataSize, declared counts are checked against the remaining
// bytes before anything is allocated.
func (s *Stream) Read(buf []byte) (store.Attribute, int, error) {
	return s.read(buf, 0)
}

func (s *Stream) read(buf []byte, depth int) (store.Attribute, int, error) {
	if depth > maxNesting {
		return store.Null(), 0, fmt.Errorf("nesting deeper than %d: %w", maxNesting, errcode.CannotHandleData)
	}
	if len(buf) < attrHeaderSize {
		return store.Null(), 0, errcode.InvalidDataSize
	}

	o := s.order
	typ := store.Type(o.typ(buf[0:4]))
	size := int(o.int32(buf[4:8]))
	if size < 0 {
		return store.Null(), 0, fmt.Errorf("negative size %d for %s: %w", size, typ, errcode.InvalidDataSize)
	}
	body := buf[attrHeaderSize:]

	// need checks that the body holds at least n more bytes
	need := func(n int) error {
		if n < 0 || n > len(body) {
			return fmt.Errorf("%s needs %d bytes, %d left: %w", typ, n, len(body), errcode.InvalidDataSize)
		}
		return nil
	}
	// fixed checks the declared size of a scalar
	fixed := func(n int) error {
		if size != n {
			return fmt.Errorf("%s declares size %d, expected %d: %w", typ, size, n, errcode.InvalidDataSize)
		}
		return need(n)
	}

	switch typ {
	case store.TypeObject, store.TypeResult, store.TypeLockedObject:
		// every child needs at least its key and an attribute header
		if err := need(size * (4 + attrHeaderSize)); err != nil {
			return store.Null(), 0, err
		}
		kind := typ
		if kind == store.TypeLockedObject {
			kind = store.TypeObject
		}
		obj := store.Empty(kind)
		n := 0
		for i := 0; i < size; i++ {
			if err := need(n + 4); err != nil {
				return store.Null(), 0, err
			}
			key := store.Type(o.typ(body[n : n+4]))
			n += 4
			child, m, err := s.read(body[n:], depth+1)
			if err != nil {
				return store.Null(), 0, err
			}
			n += m
			if err := obj.Add(key, child); err != nil {
				return store.Null(), 0, err
			}
		}
		return store.Nested(obj), attrHeaderSize + n, nil

	case store.TypeList:
		if err := need(size * attrHeaderSize); err != nil {
			return store.Null(), 0, err
		}
		list := store.NewList()
		n := 0
		for i := 0; i < size; i++ {
			item, m, err := s.read(body[n:], depth+1)
			if err != nil {
				return store.Null(), 0, err
			}
			n += m
			list.Append(item)
		}
		return store.ListOf(list), attrHeaderSize + n, nil

	case store.TypeCString:
		if err := need(size); err != nil {
			return store.Null(), 0, err
		}
		return store.CString(string(body[:size])), attrHeaderSize + size, nil

	case store.TypeUCS2String:
		if size%2 != 0 {
			return store.Null(), 0, fmt.Errorf("odd UCS-2 byte count %d: %w", size, errcode.InvalidDataSize)
		}
		if err := need(size); err != nil {
			return store.Null(), 0, err
		}
		units := make([]uint16, size/2)
		for i := range units {
			units[i] = o.ucs2(body[2*i : 2*i+2])
		}
		return store.UCS2Units(units), attrHeaderSize + size, nil

	case store.TypeInt:
		if err := fixed(4); err != nil {
			return store.Null(), 0, err
		}
		return store.Int(o.int32(body)), attrHeaderSize + 4, nil

	case store.TypeLong:
		if err := fixed(8); err != nil {
			return store.Null(), 0, err
		}
		return store.Long(o.int64(body)), attrHeaderSize + 8, nil

	case store.TypeFloat:
		if err := fixed(4); err != nil {
			return store.Null(), 0, err
		}
		return store.Float(o.float32(body)), attrHeaderSize + 4, nil

	case store.TypeDouble:
		if err := fixed(8); err != nil {
			return store.Null(), 0, err
		}
		return store.Double(o.float64(body)), attrHeaderSize + 8, nil

	case store.TypeBool:
		if err := fixed(1); err != nil {
			return store.Null(), 0, err
		}
		return store.Bool(body[0] != 0), attrHeaderSize + 1, nil

	case store.TypeType:
		if err := fixed(4); err != nil {
			return store.Null(), 0, err
		}
		return store.TypeCode(store.Type(o.typ(body))), attrHeaderSize + 4, nil

	case store.TypeAddress:
		if err := need(size); err != nil {
			return store.Null(), 0, err
		}
		return store.Addr(addr.ReadStream(body[:size])), attrHeaderSize + size, nil

	case store.TypeIntVector:
		if err := need(4 * size); err != nil {
			return store.Null(), 0, err
		}
		v := make([]int32, size)
		for i := range v {
			v[i] = o.int32(body[4*i:])
		}
		return store.IntVector(v...), attrHeaderSize + 4*size, nil

	case store.TypeLongVector:
		if err := need(8 * size); err != nil {
			return store.Null(), 0, err
		}
		v := make([]int64, size)
		for i := range v {
			v[i] = o.int64(body[8*i:])
		}
		return store.LongVector(v...), attrHeaderSize + 8*size, nil

	case store.TypeFloatVector:
		if err := need(4 * size); err != nil {
			return store.Null(), 0, err
		}
		v := make([]float32, size)
		for i := range v {
			v[i] = o.float32(body[4*i:])
		}
		return store.FloatVector(v...), attrHeaderSize + 4*size, nil

	case store.TypeTypeVector:
		if err := need(4 * size); err != nil {
			return store.Null(), 0, err
		}
		v := make([]store.Type, size)
		for i := range v {
			v[i] = store.Type(o.typ(body[4*i:]))
		}
		return store.TypeVector(v...), attrHeaderSize + 4*size, nil

	case store.TypeNull:
		if err := need(size); err != nil {
			return store.Null(), 0, err
		}
		return store.Null(), attrHeaderSize + size, nil

	default:
		if err := need(size); err != nil {
			return store.Null(), 0, err
		}
		return store.Raw(typ, body[:size]), attrHeaderSize + size, nil
	}
}

// --------------------------------------------------------------------------
// Object streaming
// --------------------------------------------------------------------------

// ObjectSize returns the stream size of o
func (s *Stream) ObjectSize(o *store.Object) int {
	if o == nil {
		return 0
	}
	return s.Size(store.Nested(o))
}

// WriteObject encodes o into buf. A locked object is rejected with errcode.NotNow.
func (s *Stream) WriteObject(o *store.Object, buf []byte) (int, error) {
	if o == nil {
		return 0, errcode.Param
	}
	if o.Locked() {
		return 0, errcode.NotNow
	}
	return s.Write(store.Nested(o), buf)
}

// ReadObject decodes an object from the front of buf. Streams that start with
// any other attribute kind are rejected with errcode.DataType.
func (s *Stream) ReadObject(buf []byte) (*store.Object, int, error) {
	a, n, err := s.Read(buf)
	if err != nil {
		return nil, 0, err
	}
	obj, err := a.Object()
	if err != nil {
		return nil, 0, fmt.Errorf("stream holds %s, not an object: %w", a.Type(), errcode.DataType)
	}
	return obj, n, nil
}

// WriteObjectTo encodes o and writes it to w in one call
func (s *Stream) WriteObjectTo(w io.Writer, o *store.Object) (int64, error) {
	buf := make([]byte, s.ObjectSize(o))
	n, err := s.WriteObject(o, buf)
	if err != nil {
		return 0, err
	}
	m, err := w.Write(buf[:n])
	return int64(m), err
}

// ReadObjectFrom reads exactly one object from r. The attribute header is read
// first to learn the child count, the remainder is read attribute by attribute.
func (s *Stream) ReadObjectFrom(r io.Reader) (*store.Object, int64, error) {
	buf, err := s.readAttributeBytes(r, 0)
	if err != nil {
		// io.EOF only marks a clean end before the first byte
		if len(buf) > 0 && errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, int64(len(buf)), err
	}
	obj, _, err := s.ReadObject(buf)
	return obj, int64(len(buf)), err
}

// readAttributeBytes collects the raw bytes of one attribute from r
func (s *Stream) readAttributeBytes(r io.Reader, depth int) ([]byte, error) {
	if depth > maxNesting {
		return nil, errcode.CannotHandleData
	}
	hdr := make([]byte, attrHeaderSize)
	if n, err := io.ReadFull(r, hdr); err != nil {
		return hdr[:n], err
	}
	typ := store.Type(s.order.typ(hdr[0:4]))
	size := int(s.order.int32(hdr[4:8]))
	if size < 0 {
		return hdr, errcode.InvalidDataSize
	}

	var bodyLen int
	switch typ {
	case store.TypeObject, store.TypeResult, store.TypeLockedObject:
		out := hdr
		for i := 0; i < size; i++ {
			key := make([]byte, 4)
			if _, err := io.ReadFull(r, key); err != nil {
				return out, err
			}
			out = append(out, key...)
			child, err := s.readAttributeBytes(r, depth+1)
			out = append(out, child...)
			if err != nil {
				return out, err
			}
		}
		return out, nil
	case store.TypeList:
		out := hdr
		for i := 0; i < size; i++ {
			item, err := s.readAttributeBytes(r, depth+1)
			out = append(out, item...)
			if err != nil {
				return out, err
			}
		}
		return out, nil
	case store.TypeIntVector, store.TypeFloatVector, store.TypeTypeVector:
		bodyLen = 4 * size
	case store.TypeLongVector:
		bodyLen = 8 * size
	default:
		bodyLen = size
	}

	if bodyLen > MaxAttributeBody {
		return hdr, fmt.Errorf("%s body of %d bytes exceeds limit: %w", typ, bodyLen, errcode.InvalidDataSize)
	}

	// grow with the bytes that actually arrive, not with the announced size
	out := bytes.NewBuffer(hdr)
	if _, err := io.CopyN(out, r, int64(bodyLen)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return out.Bytes(), err
	}
	return out.Bytes(), nil
}

// --------------------------------------------------------------------------
// Package level helpers using the host tables
// --------------------------------------------------------------------------

// ObjectStreamSize returns the stream size of o using the host tables
func ObjectStreamSize(o *store.Object) int {
	return NewStream(nil).ObjectSize(o)
}

// ObjectStreamWrite encodes o into buf using the host tables
func ObjectStreamWrite(o *store.Object, buf []byte) (int, error) {
	return NewStream(nil).WriteObject(o, buf)
}

// ObjectStreamRead decodes an object from buf using the host tables
func ObjectStreamRead(buf []byte) (*store.Object, int, error) {
	return NewStream(nil).ReadObject(buf)
}
