package serializer

import (
	"fmt"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

// portableAttr is a self describing mirror of an attribute tree built from
// plain Go values, so generic encoders (json, gob) can carry povms objects.
// Exactly one payload field is used, selected by Type.
type portableAttr struct {
	Key    string         `json:"key,omitempty"`
	Type   string         `json:"type"`
	Int    int64          `json:"int,omitempty"`
	Float  float64        `json:"float,omitempty"`
	Bool   bool           `json:"bool,omitempty"`
	Text   string         `json:"text,omitempty"`
	Ints   []int64        `json:"ints,omitempty"`
	Floats []float64      `json:"floats,omitempty"`
	Units  []uint16       `json:"units,omitempty"`
	Bytes  []byte         `json:"bytes,omitempty"`
	Items  []portableAttr `json:"items,omitempty"`
}

func toPortable(a store.Attribute) portableAttr {
	p := portableAttr{Type: a.Type().String()}

	switch v := a.Value().(type) {
	case *store.Object:
		p.Items = make([]portableAttr, 0, v.Len())
		for key, child := range v.All() {
			c := toPortable(child)
			c.Key = key.String()
			p.Items = append(p.Items, c)
		}
	case *store.List:
		p.Items = make([]portableAttr, 0, v.Count())
		for _, item := range v.All() {
			p.Items = append(p.Items, toPortable(item))
		}
	case int32:
		p.Int = int64(v)
	case int64:
		p.Int = v
	case float32:
		p.Float = float64(v)
	case float64:
		p.Float = v
	case bool:
		p.Bool = v
	case store.Type:
		p.Text = v.String()
	case string:
		p.Text = v
	case []uint16:
		p.Units = append([]uint16{}, v...)
	case addr.Address:
		p.Text = v.String()
	case []int32:
		for _, e := range v {
			p.Ints = append(p.Ints, int64(e))
		}
	case []int64:
		p.Ints = append([]int64{}, v...)
	case []float32:
		for _, e := range v {
			p.Floats = append(p.Floats, float64(e))
		}
	case []store.Type:
		for _, e := range v {
			p.Ints = append(p.Ints, int64(e))
		}
	case []byte:
		p.Bytes = append([]byte{}, v...)
	}
	return p
}

func fromPortable(p portableAttr) (store.Attribute, error) {
	typ, err := store.ParseType(p.Type)
	if err != nil {
		return store.Null(), fmt.Errorf("%v: %w", err, errcode.CannotHandleData)
	}

	switch typ {
	case store.TypeObject, store.TypeResult, store.TypeLockedObject:
		kind := typ
		if kind == store.TypeLockedObject {
			kind = store.TypeObject
		}
		obj := store.Empty(kind)
		for _, c := range p.Items {
			key, err := store.ParseType(c.Key)
			if err != nil {
				return store.Null(), fmt.Errorf("%v: %w", err, errcode.CannotHandleData)
			}
			child, err := fromPortable(c)
			if err != nil {
				return store.Null(), err
			}
			if err := obj.Add(key, child); err != nil {
				return store.Null(), err
			}
		}
		return store.Nested(obj), nil
	case store.TypeList:
		list := store.NewList()
		for _, c := range p.Items {
			item, err := fromPortable(c)
			if err != nil {
				return store.Null(), err
			}
			list.Append(item)
		}
		return store.ListOf(list), nil
	case store.TypeInt:
		return store.Int(int32(p.Int)), nil
	case store.TypeLong:
		return store.Long(p.Int), nil
	case store.TypeFloat:
		return store.Float(float32(p.Float)), nil
	case store.TypeDouble:
		return store.Double(p.Float), nil
	case store.TypeBool:
		return store.Bool(p.Bool), nil
	case store.TypeType:
		t, err := store.ParseType(p.Text)
		if err != nil {
			return store.Null(), fmt.Errorf("%v: %w", err, errcode.CannotHandleData)
		}
		return store.TypeCode(t), nil
	case store.TypeCString:
		return store.CString(p.Text), nil
	case store.TypeUCS2String:
		return store.UCS2Units(p.Units), nil
	case store.TypeAddress:
		a, err := addr.Parse(p.Text)
		if err != nil {
			return store.Null(), fmt.Errorf("%v: %w", err, errcode.CannotHandleData)
		}
		return store.Addr(a), nil
	case store.TypeIntVector:
		v := make([]int32, len(p.Ints))
		for i, e := range p.Ints {
			v[i] = int32(e)
		}
		return store.IntVector(v...), nil
	case store.TypeLongVector:
		return store.LongVector(p.Ints...), nil
	case store.TypeFloatVector:
		v := make([]float32, len(p.Floats))
		for i, e := range p.Floats {
			v[i] = float32(e)
		}
		return store.FloatVector(v...), nil
	case store.TypeTypeVector:
		v := make([]store.Type, len(p.Ints))
		for i, e := range p.Ints {
			v[i] = store.Type(e)
		}
		return store.TypeVector(v...), nil
	case store.TypeNull:
		return store.Null(), nil
	default:
		return store.Raw(typ, p.Bytes), nil
	}
}

// objectFromPortable unwraps the root of a decoded tree
func objectFromPortable(p portableAttr) (*store.Object, error) {
	a, err := fromPortable(p)
	if err != nil {
		return nil, err
	}
	obj, err := a.Object()
	if err != nil {
		return nil, fmt.Errorf("root is %s, not an object: %w", a.Type(), errcode.DataType)
	}
	return obj, nil
}
