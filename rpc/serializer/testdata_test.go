package serializer

import (
	"encoding/binary"
	"net/netip"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/store"
)

var (
	classTest = store.MakeType("TEST")
	idPing    = store.MakeType("PING")
	keyVal1   = store.MakeType("VAL1")
	keyMCLA   = store.MakeType("MCLA")
	keyMIDE   = store.MakeType("MIDE")
)

// mixedEndian stores 16 bit halves little endian but orders the halves of
// wider values big endian (the classic PDP-11 layout)
type mixedEndian struct{}

func (mixedEndian) Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

func (mixedEndian) PutUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

func (m mixedEndian) Uint32(b []byte) uint32 {
	return uint32(m.Uint16(b[0:2]))<<16 | uint32(m.Uint16(b[2:4]))
}

func (m mixedEndian) PutUint32(b []byte, v uint32) {
	m.PutUint16(b[0:2], uint16(v>>16))
	m.PutUint16(b[2:4], uint16(v))
}

func (m mixedEndian) Uint64(b []byte) uint64 {
	return uint64(m.Uint32(b[0:4]))<<32 | uint64(m.Uint32(b[4:8]))
}

func (m mixedEndian) PutUint64(b []byte, v uint64) {
	m.PutUint32(b[0:4], uint32(v>>32))
	m.PutUint32(b[4:8], uint32(v))
}

func (mixedEndian) String() string { return "MixedEndian" }

// testOrders simulates hosts with different native byte orders
var testOrders = map[string]binary.ByteOrder{
	"BigEndian":    binary.BigEndian,
	"LittleEndian": binary.LittleEndian,
	"MixedEndian":  mixedEndian{},
}

// pingMessage builds the TEST/PING message with VAL1 = 42
func pingMessage() *store.Object {
	msg := store.New(classTest)
	_ = msg.SetType(keyMCLA, classTest)
	_ = msg.SetType(keyMIDE, idPing)
	_ = msg.SetInt(keyVal1, 42)
	return msg
}

// richObject builds a tree holding every attribute kind
func richObject() *store.Object {
	o := store.New(classTest)
	_ = o.SetInt(store.MakeType("INT4"), -123456)
	_ = o.SetLong(store.MakeType("INT8"), 1<<40+7)
	_ = o.SetFloat(store.MakeType("FLT4"), 3.25)
	_ = o.SetDouble(store.MakeType("FLT8"), -2.5e-300)
	_ = o.SetBool(store.MakeType("BOOT"), true)
	_ = o.SetBool(store.MakeType("BOOF"), false)
	_ = o.SetType(store.MakeType("TYPE"), store.MakeType("ABCD"))
	_ = o.SetString(store.MakeType("CSTR"), "hello povms")
	_ = o.SetString(store.MakeType("EMPT"), "")
	_ = o.SetUCS2String(store.MakeType("U2ST"), "Grüße 世界 \U0001F600")
	_ = o.SetAddress(store.MakeType("ADR1"), addr.System(7))
	_ = o.SetAddress(store.MakeType("ADR4"), addr.Net(netip.MustParseAddrPort("192.168.0.1:4711")))
	_ = o.SetAddress(store.MakeType("ADR6"), addr.Net(netip.MustParseAddrPort("[2001:db8::5]:80")))
	_ = o.SetAddress(store.MakeType("ADR0"), addr.Invalid)
	_ = o.Set(store.MakeType("VIN4"), store.IntVector(1, -2, 3))
	_ = o.Set(store.MakeType("VIN8"), store.LongVector(-1<<50, 0, 5))
	_ = o.Set(store.MakeType("VFL4"), store.FloatVector(0.5, -1.75))
	_ = o.Set(store.MakeType("VTYP"), store.TypeVector(store.TypeInt, store.TypeList))
	_ = o.Set(store.MakeType("VNIL"), store.IntVector())
	_ = o.Set(store.MakeType("XTRA"), store.Raw(store.MakeType("XTRA"), []byte{1, 2, 3}))
	_ = o.Set(store.MakeType("NULL"), store.Null())

	sub := store.New(store.MakeType("SUBC"))
	_ = sub.SetString(store.MakeType("NAME"), "nested")
	inner := store.NewResult(store.MakeType("DEEP"))
	_ = inner.SetInt(keyVal1, 1)
	_ = sub.SetObject(store.MakeType("DEEP"), inner)
	_ = o.SetObject(store.MakeType("SUBO"), sub)

	list := store.NewList(store.Int(1), store.CString("two"), store.Bool(true))
	list.Append(store.ListOf(store.NewList(store.Double(4))))
	_ = o.SetList(store.MakeType("LIST"), list)

	// duplicate keys survive the round trip
	_ = o.Add(keyVal1, store.Int(1))
	_ = o.Add(keyVal1, store.Int(2))
	return o
}
