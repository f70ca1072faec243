package store

import "reflect"

// Equal reports whether two attributes are deeply equal. Floats compare by
// value, so NaN never equals NaN.
func Equal(a, b Attribute) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.val.(type) {
	case *Object:
		bv, ok := b.val.(*Object)
		return ok && EqualObjects(av, bv)
	case *List:
		bv, ok := b.val.(*List)
		if !ok || av.Count() != bv.Count() {
			return false
		}
		for i := range av.items {
			if !Equal(av.items[i], bv.items[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(normalize(a.val), normalize(b.val))
	}
}

// EqualObjects reports whether two objects have the same kind and the same
// children in the same order
func EqualObjects(a, b *Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.typ != b.typ || len(a.nodes) != len(b.nodes) {
		return false
	}
	for i := range a.nodes {
		if a.nodes[i].key != b.nodes[i].key || !Equal(a.nodes[i].attr, b.nodes[i].attr) {
			return false
		}
	}
	return true
}

// normalize maps empty slices to nil so that an empty vector read from the
// wire equals an empty vector built in memory
func normalize(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Len() == 0 {
		return nil
	}
	return v
}
