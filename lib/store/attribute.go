package store

import (
	"unicode/utf16"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
)

// Attribute is a single tagged value. The payload kept in val depends on typ:
//
//	TypeInt          int32
//	TypeLong         int64
//	TypeFloat        float32
//	TypeDouble       float64
//	TypeBool         bool
//	TypeType         Type
//	TypeCString      string
//	TypeUCS2String   []uint16
//	TypeAddress      addr.Address
//	TypeList         *List
//	TypeObject       *Object (also TypeResult)
//	TypeIntVector    []int32
//	TypeLongVector   []int64
//	TypeFloatVector  []float32
//	TypeTypeVector   []Type
//	anything else    []byte
//
// The zero Attribute has type TypeNull and no payload. An Attribute owns its
// payload: once handed to Object.Set or List.Append the caller must not keep
// using it. Use Clone for an independent copy.
type Attribute struct {
	typ Type
	val interface{}
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

func Int(v int32) Attribute { return Attribute{typ: TypeInt, val: v} }
func Long(v int64) Attribute { return Attribute{typ: TypeLong, val: v} }
func Float(v float32) Attribute { return Attribute{typ: TypeFloat, val: v} }
func Double(v float64) Attribute { return Attribute{typ: TypeDouble, val: v} }
func Bool(v bool) Attribute { return Attribute{typ: TypeBool, val: v} }
func TypeCode(v Type) Attribute { return Attribute{typ: TypeType, val: v} }
func CString(v string) Attribute { return Attribute{typ: TypeCString, val: v} }
func Addr(v addr.Address) Attribute { return Attribute{typ: TypeAddress, val: v} }

// UCS2 encodes a Go string as UCS-2 code units. Characters outside the basic
// multilingual plane become surrogate pairs.
func UCS2(v string) Attribute {
	return Attribute{typ: TypeUCS2String, val: utf16.Encode([]rune(v))}
}

// UCS2Units wraps raw UCS-2 code units
func UCS2Units(v []uint16) Attribute {
	return Attribute{typ: TypeUCS2String, val: append([]uint16{}, v...)}
}

func IntVector(v ...int32) Attribute {
	return Attribute{typ: TypeIntVector, val: append([]int32{}, v...)}
}

func LongVector(v ...int64) Attribute {
	return Attribute{typ: TypeLongVector, val: append([]int64{}, v...)}
}

func FloatVector(v ...float32) Attribute {
	return Attribute{typ: TypeFloatVector, val: append([]float32{}, v...)}
}

func TypeVector(v ...Type) Attribute {
	return Attribute{typ: TypeTypeVector, val: append([]Type{}, v...)}
}

// Nested wraps an object. The attribute takes ownership of o.
func Nested(o *Object) Attribute {
	if o == nil {
		o = newObject(TypeObject)
	}
	return Attribute{typ: o.typ, val: o}
}

// ListOf wraps a list. The attribute takes ownership of l.
func ListOf(l *List) Attribute {
	if l == nil {
		l = NewList()
	}
	return Attribute{typ: TypeList, val: l}
}

// Raw creates an attribute of an arbitrary (extension) type carrying opaque bytes
func Raw(t Type, data []byte) Attribute {
	return Attribute{typ: t, val: append([]byte{}, data...)}
}

// Null returns an empty attribute
func Null() Attribute { return Attribute{typ: TypeNull} }

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// Type returns the kind of the attribute
func (a Attribute) Type() Type {
	if a.typ == 0 {
		return TypeNull
	}
	return a.typ
}

// Size returns the in-memory size of the payload. Scalars report their byte
// width, strings include the terminator (one byte, two for UCS-2), vectors
// report bytes and lists/objects report their element count.
func (a Attribute) Size() int {
	switch v := a.val.(type) {
	case int32, float32, Type:
		return 4
	case int64, float64:
		return 8
	case bool:
		return 1
	case string:
		return len(v) + 1
	case []uint16:
		return 2*len(v) + 2
	case addr.Address:
		return 8
	case *List:
		return v.Count()
	case *Object:
		return len(v.nodes)
	case []int32:
		return 4 * len(v)
	case []int64:
		return 8 * len(v)
	case []float32:
		return 4 * len(v)
	case []Type:
		return 4 * len(v)
	case []byte:
		return len(v)
	default:
		return 0
	}
}

// Clone returns a deep copy of a
func (a Attribute) Clone() Attribute {
	switch v := a.val.(type) {
	case []uint16:
		return Attribute{typ: a.typ, val: append([]uint16{}, v...)}
	case []int32:
		return Attribute{typ: a.typ, val: append([]int32{}, v...)}
	case []int64:
		return Attribute{typ: a.typ, val: append([]int64{}, v...)}
	case []float32:
		return Attribute{typ: a.typ, val: append([]float32{}, v...)}
	case []Type:
		return Attribute{typ: a.typ, val: append([]Type{}, v...)}
	case []byte:
		return Attribute{typ: a.typ, val: append([]byte{}, v...)}
	case *List:
		return Attribute{typ: a.typ, val: v.clone()}
	case *Object:
		return Attribute{typ: a.typ, val: v.clone()}
	default:
		// value types
		return a
	}
}

// release drops the payload and returns the number of attribute nodes it held,
// the attribute itself included
func (a *Attribute) release() int {
	n := 1
	switch v := a.val.(type) {
	case *List:
		n += v.release()
	case *Object:
		n += v.release()
	}
	a.val = nil
	a.typ = TypeNull
	return n
}

// --------------------------------------------------------------------------
// Typed getters
// --------------------------------------------------------------------------

func (a Attribute) Int() (int32, error) {
	v, ok := a.val.(int32)
	if !ok || a.typ != TypeInt {
		return 0, errcode.DataType
	}
	return v, nil
}

func (a Attribute) Long() (int64, error) {
	v, ok := a.val.(int64)
	if !ok || a.typ != TypeLong {
		return 0, errcode.DataType
	}
	return v, nil
}

func (a Attribute) Float() (float32, error) {
	v, ok := a.val.(float32)
	if !ok || a.typ != TypeFloat {
		return 0, errcode.DataType
	}
	return v, nil
}

func (a Attribute) Double() (float64, error) {
	v, ok := a.val.(float64)
	if !ok || a.typ != TypeDouble {
		return 0, errcode.DataType
	}
	return v, nil
}

func (a Attribute) Bool() (bool, error) {
	v, ok := a.val.(bool)
	if !ok || a.typ != TypeBool {
		return false, errcode.DataType
	}
	return v, nil
}

func (a Attribute) TypeCode() (Type, error) {
	v, ok := a.val.(Type)
	if !ok || a.typ != TypeType {
		return 0, errcode.DataType
	}
	return v, nil
}

// CString returns the value of a byte string attribute
func (a Attribute) CString() (string, error) {
	v, ok := a.val.(string)
	if !ok || a.typ != TypeCString {
		return "", errcode.DataType
	}
	return v, nil
}

// UCS2 decodes the UCS-2 code units into a Go string
func (a Attribute) UCS2() (string, error) {
	v, err := a.UCS2Units()
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(v)), nil
}

// UCS2Units returns a copy of the raw code units
func (a Attribute) UCS2Units() ([]uint16, error) {
	v, ok := a.val.([]uint16)
	if !ok || a.typ != TypeUCS2String {
		return nil, errcode.DataType
	}
	return append([]uint16{}, v...), nil
}

func (a Attribute) Addr() (addr.Address, error) {
	v, ok := a.val.(addr.Address)
	if !ok || a.typ != TypeAddress {
		return addr.Invalid, errcode.DataType
	}
	return v, nil
}

func (a Attribute) IntVector() ([]int32, error) {
	v, ok := a.val.([]int32)
	if !ok {
		return nil, errcode.DataType
	}
	return append([]int32{}, v...), nil
}

func (a Attribute) LongVector() ([]int64, error) {
	v, ok := a.val.([]int64)
	if !ok {
		return nil, errcode.DataType
	}
	return append([]int64{}, v...), nil
}

func (a Attribute) FloatVector() ([]float32, error) {
	v, ok := a.val.([]float32)
	if !ok {
		return nil, errcode.DataType
	}
	return append([]float32{}, v...), nil
}

func (a Attribute) TypeVector() ([]Type, error) {
	v, ok := a.val.([]Type)
	if !ok {
		return nil, errcode.DataType
	}
	return append([]Type{}, v...), nil
}

// Object returns the wrapped object. The attribute keeps owning it.
func (a Attribute) Object() (*Object, error) {
	v, ok := a.val.(*Object)
	if !ok {
		return nil, errcode.DataType
	}
	return v, nil
}

// List returns the wrapped list. The attribute keeps owning it.
func (a Attribute) List() (*List, error) {
	v, ok := a.val.(*List)
	if !ok {
		return nil, errcode.DataType
	}
	return v, nil
}

// Bytes returns a copy of the opaque payload of an extension type
func (a Attribute) Bytes() ([]byte, error) {
	v, ok := a.val.([]byte)
	if !ok {
		return nil, errcode.DataType
	}
	return append([]byte{}, v...), nil
}

// Value exposes the raw payload, mainly for codecs and debugging
func (a Attribute) Value() interface{} { return a.val }
