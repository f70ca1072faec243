package serializer

import (
	"encoding/binary"
	"math"
	"sync"
)

// OrderTables describe how the bytes of a native fixed width value are
// permuted into wire order. Each table maps a wire position to the native
// position holding the byte that belongs there.
//
// The tables are derived by writing a probe value with distinct bytes through
// the host byte order and locating each wire byte in the result, so the codec
// needs no knowledge of the concrete host layout. The wire order itself is
// big endian: the probe 0x01020304 appears on the wire as 01 02 03 04.
type OrderTables struct {
	native binary.ByteOrder

	int32Order [4]int
	int64Order [8]int
	floatOrder [4]int
	typeOrder  [4]int
	ucs2Order  [2]int
}

var (
	probe16 = uint16(0x0102)
	probe32 = uint32(0x01020304)
	probe64 = uint64(0x0102030405060708)
)

// NewOrderTables probes the given native byte order
func NewOrderTables(native binary.ByteOrder) *OrderTables {
	t := &OrderTables{native: native}

	var b4 [4]byte
	native.PutUint32(b4[:], probe32)
	t.int32Order = locate4(b4)
	t.typeOrder = locate4(b4)

	// floats are stored through their IEEE bit pattern
	native.PutUint32(b4[:], math.Float32bits(math.Float32frombits(probe32)))
	t.floatOrder = locate4(b4)

	var b8 [8]byte
	native.PutUint64(b8[:], probe64)
	for w := range t.int64Order {
		t.int64Order[w] = indexOf(b8[:], byte(w+1))
	}

	var b2 [2]byte
	native.PutUint16(b2[:], probe16)
	for w := range t.ucs2Order {
		t.ucs2Order[w] = indexOf(b2[:], byte(w+1))
	}
	return t
}

func locate4(native [4]byte) [4]int {
	var order [4]int
	for w := range order {
		order[w] = indexOf(native[:], byte(w+1))
	}
	return order
}

func indexOf(b []byte, v byte) int {
	for i := range b {
		if b[i] == v {
			return i
		}
	}
	panic("byte order probe failed")
}

// hostTables are probed once per process
var hostTables = sync.OnceValue(func() *OrderTables {
	return NewOrderTables(binary.NativeEndian)
})

// HostOrderTables returns the tables of the running host
func HostOrderTables() *OrderTables {
	return hostTables()
}

// Native returns the byte order the tables were probed from
func (t *OrderTables) Native() binary.ByteOrder {
	return t.native
}

// --------------------------------------------------------------------------
// Table driven conversion
// --------------------------------------------------------------------------

func (t *OrderTables) putInt32(dst []byte, v int32) {
	var n [4]byte
	t.native.PutUint32(n[:], uint32(v))
	for w, i := range t.int32Order {
		dst[w] = n[i]
	}
}

func (t *OrderTables) int32(src []byte) int32 {
	var n [4]byte
	for w, i := range t.int32Order {
		n[i] = src[w]
	}
	return int32(t.native.Uint32(n[:]))
}

func (t *OrderTables) putInt64(dst []byte, v int64) {
	var n [8]byte
	t.native.PutUint64(n[:], uint64(v))
	for w, i := range t.int64Order {
		dst[w] = n[i]
	}
}

func (t *OrderTables) int64(src []byte) int64 {
	var n [8]byte
	for w, i := range t.int64Order {
		n[i] = src[w]
	}
	return int64(t.native.Uint64(n[:]))
}

func (t *OrderTables) putFloat32(dst []byte, v float32) {
	var n [4]byte
	t.native.PutUint32(n[:], math.Float32bits(v))
	for w, i := range t.floatOrder {
		dst[w] = n[i]
	}
}

func (t *OrderTables) float32(src []byte) float32 {
	var n [4]byte
	for w, i := range t.floatOrder {
		n[i] = src[w]
	}
	return math.Float32frombits(t.native.Uint32(n[:]))
}

// doubles travel in the 64 bit integer order
func (t *OrderTables) putFloat64(dst []byte, v float64) {
	t.putInt64(dst, int64(math.Float64bits(v)))
}

func (t *OrderTables) float64(src []byte) float64 {
	return math.Float64frombits(uint64(t.int64(src)))
}

func (t *OrderTables) putType(dst []byte, v uint32) {
	var n [4]byte
	t.native.PutUint32(n[:], v)
	for w, i := range t.typeOrder {
		dst[w] = n[i]
	}
}

func (t *OrderTables) typ(src []byte) uint32 {
	var n [4]byte
	for w, i := range t.typeOrder {
		n[i] = src[w]
	}
	return t.native.Uint32(n[:])
}

func (t *OrderTables) putUCS2(dst []byte, v uint16) {
	var n [2]byte
	t.native.PutUint16(n[:], v)
	for w, i := range t.ucs2Order {
		dst[w] = n[i]
	}
}

func (t *OrderTables) ucs2(src []byte) uint16 {
	var n [2]byte
	for w, i := range t.ucs2Order {
		n[i] = src[w]
	}
	return t.native.Uint16(n[:])
}
