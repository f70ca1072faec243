package store

import (
	"iter"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
)

// node is one key/value pair of an Object
type node struct {
	key  Type
	attr Attribute
}

// Object is an ordered collection of keyed attributes.
//
// Keys are not required to be unique: Set replaces the first child with a
// matching key, Get and Remove act on the first match, and decoding keeps
// whatever the peer sent. Children keep their insertion order.
//
// Every accessor marks the object as locked for the duration of the call. An
// accessor invoked on the same object while it is locked (for example from the
// callback passed to Walk) fails with errcode.NotNow and leaves the object
// untouched. The lock is a reentrancy guard only, an Object must not be used
// from several goroutines at once.
type Object struct {
	typ    Type
	locked bool
	nodes  []node
}

func newObject(t Type) *Object {
	return &Object{typ: t}
}

// New creates an empty object of the given class. The class is stored as a
// TypeType attribute under KeyObjectClass.
func New(class Type) *Object {
	o := newObject(TypeObject)
	o.nodes = append(o.nodes, node{key: KeyObjectClass, attr: TypeCode(class)})
	return o
}

// Empty creates an object of the given kind (TypeObject or TypeResult) with no
// children, not even a class
func Empty(kind Type) *Object {
	if kind != TypeResult {
		kind = TypeObject
	}
	return newObject(kind)
}

// NewResult creates an empty result object of the given class
func NewResult(class Type) *Object {
	o := New(class)
	o.typ = TypeResult
	return o
}

// Type returns TypeObject or TypeResult, or TypeLockedObject while an
// accessor is running on o
func (o *Object) Type() Type {
	if o.locked {
		return TypeLockedObject
	}
	return o.typ
}

// Kind returns the stored kind, TypeObject or TypeResult, regardless of the lock
func (o *Object) Kind() Type {
	return o.typ
}

// Class returns the object class set by New, 0 if none is set
func (o *Object) Class() Type {
	return o.TryGetType(KeyObjectClass, 0)
}

func (o *Object) class() Type {
	if i := o.find(KeyObjectClass); i >= 0 {
		if t, ok := o.nodes[i].attr.val.(Type); ok {
			return t
		}
	}
	return 0
}

// --------------------------------------------------------------------------
// Locking
// --------------------------------------------------------------------------

func (o *Object) lock() error {
	if o == nil {
		return errcode.NullPointer
	}
	if o.locked {
		return errcode.NotNow
	}
	o.locked = true
	return nil
}

func (o *Object) unlock() {
	o.locked = false
}

// Locked reports whether an accessor is currently running on o
func (o *Object) Locked() bool {
	return o != nil && o.locked
}

// find returns the index of the first child with the given key or -1
func (o *Object) find(key Type) int {
	for i := range o.nodes {
		if o.nodes[i].key == key {
			return i
		}
	}
	return -1
}

// --------------------------------------------------------------------------
// Core operations
// --------------------------------------------------------------------------

// Set stores attr under key. An existing child with the same key is released
// and replaced in place, otherwise the child is appended. o takes ownership of
// attr. An attribute that contains o itself is rejected with errcode.Param.
func (o *Object) Set(key Type, attr Attribute) error {
	if err := o.lock(); err != nil {
		return err
	}
	defer o.unlock()

	if attr.typ == 0 {
		attr.typ = TypeNull
	}
	if contains(attr, o) {
		return errcode.Param
	}
	if i := o.find(key); i >= 0 {
		o.nodes[i].attr.release()
		o.nodes[i].attr = attr
		return nil
	}
	o.nodes = append(o.nodes, node{key: key, attr: attr})
	return nil
}

// Add appends attr under key without looking for an existing child. Decoders
// use it to keep duplicate keys exactly as received.
func (o *Object) Add(key Type, attr Attribute) error {
	if err := o.lock(); err != nil {
		return err
	}
	defer o.unlock()

	if attr.typ == 0 {
		attr.typ = TypeNull
	}
	if contains(attr, o) {
		return errcode.Param
	}
	o.nodes = append(o.nodes, node{key: key, attr: attr})
	return nil
}

// contains reports whether o is reachable from a. Storing such an attribute
// in o would make the tree cyclic.
func contains(a Attribute, o *Object) bool {
	switch v := a.val.(type) {
	case *Object:
		if v == o {
			return true
		}
		for _, n := range v.nodes {
			if contains(n.attr, o) {
				return true
			}
		}
	case *List:
		for _, item := range v.items {
			if contains(item, o) {
				return true
			}
		}
	}
	return false
}

// Get returns a deep copy of the child stored under key.
// It fails with errcode.Param if the key does not exist.
func (o *Object) Get(key Type) (Attribute, error) {
	if err := o.lock(); err != nil {
		return Attribute{}, err
	}
	defer o.unlock()

	i := o.find(key)
	if i < 0 {
		return Attribute{}, errcode.Param
	}
	return o.nodes[i].attr.Clone(), nil
}

// Remove releases the child stored under key
func (o *Object) Remove(key Type) error {
	if err := o.lock(); err != nil {
		return err
	}
	defer o.unlock()

	i := o.find(key)
	if i < 0 {
		return errcode.Param
	}
	o.nodes[i].attr.release()
	o.nodes = append(o.nodes[:i], o.nodes[i+1:]...)
	return nil
}

// Exist reports whether a child with the given key exists
func (o *Object) Exist(key Type) (bool, error) {
	if err := o.lock(); err != nil {
		return false, err
	}
	defer o.unlock()

	return o.find(key) >= 0, nil
}

// Count returns the number of children
func (o *Object) Count() (int, error) {
	if err := o.lock(); err != nil {
		return 0, err
	}
	defer o.unlock()

	return len(o.nodes), nil
}

// Keys returns the keys of all children in order
func (o *Object) Keys() ([]Type, error) {
	if err := o.lock(); err != nil {
		return nil, err
	}
	defer o.unlock()

	keys := make([]Type, len(o.nodes))
	for i := range o.nodes {
		keys[i] = o.nodes[i].key
	}
	return keys, nil
}

// Walk calls fn for every child in order while o is locked. The attribute
// passed to fn is the stored one, not a copy, and must not be retained.
// Walk stops at the first error fn returns and passes it on.
func (o *Object) Walk(fn func(key Type, attr Attribute) error) error {
	if err := o.lock(); err != nil {
		return err
	}
	defer o.unlock()

	for i := range o.nodes {
		if err := fn(o.nodes[i].key, o.nodes[i].attr); err != nil {
			return err
		}
	}
	return nil
}

// All iterates over the children without locking o. The loop body must not
// modify o, the attributes are the stored ones and must not be retained.
func (o *Object) All() iter.Seq2[Type, Attribute] {
	return func(yield func(Type, Attribute) bool) {
		for i := range o.nodes {
			if !yield(o.nodes[i].key, o.nodes[i].attr) {
				return
			}
		}
	}
}

// Len returns the number of children without locking o
func (o *Object) Len() int {
	return len(o.nodes)
}

// Delete releases every child (recursively) and returns the number of
// attributes that were released. A deleted object is empty, deleting it again
// releases nothing.
func (o *Object) Delete() (int, error) {
	if err := o.lock(); err != nil {
		return 0, err
	}
	defer o.unlock()

	return o.release(), nil
}

func (o *Object) release() int {
	n := 0
	for i := range o.nodes {
		n += o.nodes[i].attr.release()
	}
	o.nodes = nil
	return n
}

// Clone returns a deep copy of o
func (o *Object) Clone() (*Object, error) {
	if err := o.lock(); err != nil {
		return nil, err
	}
	defer o.unlock()

	return o.clone(), nil
}

func (o *Object) clone() *Object {
	c := &Object{typ: o.typ, nodes: make([]node, len(o.nodes))}
	for i := range o.nodes {
		c.nodes[i] = node{key: o.nodes[i].key, attr: o.nodes[i].attr.Clone()}
	}
	return c
}

// Copy replaces the contents of dst with a deep copy of src
func Copy(src, dst *Object) error {
	if src == dst {
		return errcode.Param
	}
	if err := src.lock(); err != nil {
		return err
	}
	defer src.unlock()
	if err := dst.lock(); err != nil {
		return err
	}
	defer dst.unlock()

	dst.release()
	dst.typ = src.typ
	dst.nodes = src.clone().nodes
	return nil
}

// Merge deep copies every child of src into dst using Set semantics.
// Both objects must have the same class, otherwise errcode.DataType is returned.
func Merge(src, dst *Object) error {
	if src == dst {
		return errcode.Param
	}
	if src == nil || dst == nil {
		return errcode.NullPointer
	}
	if err := src.lock(); err != nil {
		return err
	}
	defer src.unlock()
	if err := dst.lock(); err != nil {
		return err
	}
	defer dst.unlock()

	if src.class() != dst.class() {
		return errcode.DataType
	}
	for _, n := range src.nodes {
		if n.key == KeyObjectClass {
			continue
		}
		a := n.attr.Clone()
		if i := dst.find(n.key); i >= 0 {
			dst.nodes[i].attr.release()
			dst.nodes[i].attr = a
		} else {
			dst.nodes = append(dst.nodes, node{key: n.key, attr: a})
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Typed accessors
// --------------------------------------------------------------------------

func (o *Object) SetInt(key Type, v int32) error { return o.Set(key, Int(v)) }
func (o *Object) SetLong(key Type, v int64) error { return o.Set(key, Long(v)) }
func (o *Object) SetFloat(key Type, v float32) error { return o.Set(key, Float(v)) }
func (o *Object) SetDouble(key Type, v float64) error { return o.Set(key, Double(v)) }
func (o *Object) SetBool(key Type, v bool) error { return o.Set(key, Bool(v)) }
func (o *Object) SetType(key Type, v Type) error { return o.Set(key, TypeCode(v)) }
func (o *Object) SetString(key Type, v string) error { return o.Set(key, CString(v)) }
func (o *Object) SetUCS2String(key Type, v string) error { return o.Set(key, UCS2(v)) }
func (o *Object) SetAddress(key Type, v addr.Address) error { return o.Set(key, Addr(v)) }

// SetObject stores v under key, o takes ownership of v
func (o *Object) SetObject(key Type, v *Object) error { return o.Set(key, Nested(v)) }

// SetList stores v under key, o takes ownership of v
func (o *Object) SetList(key Type, v *List) error { return o.Set(key, ListOf(v)) }

func (o *Object) GetInt(key Type) (int32, error) {
	a, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	return a.Int()
}

func (o *Object) GetLong(key Type) (int64, error) {
	a, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	return a.Long()
}

func (o *Object) GetFloat(key Type) (float32, error) {
	a, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	return a.Float()
}

func (o *Object) GetDouble(key Type) (float64, error) {
	a, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	return a.Double()
}

func (o *Object) GetBool(key Type) (bool, error) {
	a, err := o.Get(key)
	if err != nil {
		return false, err
	}
	return a.Bool()
}

func (o *Object) GetType(key Type) (Type, error) {
	a, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	return a.TypeCode()
}

func (o *Object) GetString(key Type) (string, error) {
	a, err := o.Get(key)
	if err != nil {
		return "", err
	}
	return a.CString()
}

func (o *Object) GetUCS2String(key Type) (string, error) {
	a, err := o.Get(key)
	if err != nil {
		return "", err
	}
	return a.UCS2()
}

func (o *Object) GetAddress(key Type) (addr.Address, error) {
	a, err := o.Get(key)
	if err != nil {
		return addr.Invalid, err
	}
	return a.Addr()
}

// GetObject returns a deep copy of the object stored under key
func (o *Object) GetObject(key Type) (*Object, error) {
	a, err := o.Get(key)
	if err != nil {
		return nil, err
	}
	return a.Object()
}

// GetList returns a deep copy of the list stored under key
func (o *Object) GetList(key Type) (*List, error) {
	a, err := o.Get(key)
	if err != nil {
		return nil, err
	}
	return a.List()
}

// TryGetInt returns the int stored under key or def if it is missing or of another kind
func (o *Object) TryGetInt(key Type, def int32) int32 {
	if v, err := o.GetInt(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetLong(key Type, def int64) int64 {
	if v, err := o.GetLong(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetFloat(key Type, def float32) float32 {
	if v, err := o.GetFloat(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetDouble(key Type, def float64) float64 {
	if v, err := o.GetDouble(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetBool(key Type, def bool) bool {
	if v, err := o.GetBool(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetType(key Type, def Type) Type {
	if v, err := o.GetType(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetString(key Type, def string) string {
	if v, err := o.GetString(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetUCS2String(key Type, def string) string {
	if v, err := o.GetUCS2String(key); err == nil {
		return v
	}
	return def
}

func (o *Object) TryGetAddress(key Type, def addr.Address) addr.Address {
	if v, err := o.GetAddress(key); err == nil {
		return v
	}
	return def
}
