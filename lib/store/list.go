package store

import (
	"iter"
	"slices"

	"github.com/ValentinKolb/povms/lib/errcode"
)

// List is an ordered sequence of attributes. Items may be of different kinds.
// Positions are 0-based.
type List struct {
	items []Attribute
}

// NewList creates a list holding the given items. The list takes ownership of them.
func NewList(items ...Attribute) *List {
	return &List{items: append([]Attribute{}, items...)}
}

// Count returns the number of items
func (l *List) Count() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Append adds attr at the end, the list takes ownership of attr
func (l *List) Append(attr Attribute) {
	if attr.typ == 0 {
		attr.typ = TypeNull
	}
	l.items = append(l.items, attr)
}

// AppendN appends n independent copies of attr
func (l *List) AppendN(n int, attr Attribute) error {
	if n < 0 {
		return errcode.Param
	}
	if attr.typ == 0 {
		attr.typ = TypeNull
	}
	l.items = slices.Grow(l.items, n)
	for i := 0; i < n; i++ {
		l.items = append(l.items, attr.Clone())
	}
	return nil
}

// GetNth returns a deep copy of the item at position i
func (l *List) GetNth(i int) (Attribute, error) {
	if i < 0 || i >= l.Count() {
		return Attribute{}, errcode.Param
	}
	return l.items[i].Clone(), nil
}

// SetNth releases the item at position i and stores attr in its place
func (l *List) SetNth(i int, attr Attribute) error {
	if i < 0 || i >= l.Count() {
		return errcode.Param
	}
	if attr.typ == 0 {
		attr.typ = TypeNull
	}
	l.items[i].release()
	l.items[i] = attr
	return nil
}

// RemoveNth releases the item at position i and closes the gap
func (l *List) RemoveNth(i int) error {
	if i < 0 || i >= l.Count() {
		return errcode.Param
	}
	l.items[i].release()
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Remove releases the last item
func (l *List) Remove() error {
	return l.RemoveNth(l.Count() - 1)
}

// Clear releases all items and returns how many attributes were released
func (l *List) Clear() int {
	if l == nil {
		return 0
	}
	return l.release()
}

// Each calls fn for every item in order. The attribute is the stored one and
// must not be retained.
func (l *List) Each(fn func(i int, attr Attribute) error) error {
	if l == nil {
		return nil
	}
	for i := range l.items {
		if err := fn(i, l.items[i]); err != nil {
			return err
		}
	}
	return nil
}

// All iterates over the items in order
func (l *List) All() iter.Seq2[int, Attribute] {
	return func(yield func(int, Attribute) bool) {
		if l == nil {
			return
		}
		for i := range l.items {
			if !yield(i, l.items[i]) {
				return
			}
		}
	}
}

func (l *List) release() int {
	n := 0
	for i := range l.items {
		n += l.items[i].release()
	}
	l.items = nil
	return n
}

func (l *List) clone() *List {
	c := &List{items: make([]Attribute, len(l.items))}
	for i := range l.items {
		c.items[i] = l.items[i].Clone()
	}
	return c
}
