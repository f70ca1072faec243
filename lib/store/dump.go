package store

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human readable representation of o to w
func Dump(w io.Writer, o *Object) error {
	if o == nil {
		_, err := fmt.Fprintln(w, "<nil>")
		return err
	}
	d := dumper{w: w}
	d.object(o, 0)
	return d.err
}

// DumpAttribute writes a human readable representation of a to w
func DumpAttribute(w io.Writer, a Attribute) error {
	d := dumper{w: w}
	d.attr(a, 0)
	d.printf("\n")
	return d.err
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) printf(format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

func (d *dumper) object(o *Object, depth int) {
	indent := strings.Repeat("  ", depth)
	d.printf("%s (%d)\n", o.typ, len(o.nodes))
	for _, n := range o.nodes {
		d.printf("%s  %s = ", indent, n.key)
		d.attr(n.attr, depth+1)
		if _, nested := n.attr.val.(*Object); !nested {
			d.printf("\n")
		}
	}
}

func (d *dumper) attr(a Attribute, depth int) {
	switch v := a.val.(type) {
	case *Object:
		d.object(v, depth)
	case *List:
		indent := strings.Repeat("  ", depth)
		d.printf("%s [%d]", a.Type(), v.Count())
		for i, item := range v.items {
			d.printf("\n%s  %d: ", indent, i)
			d.attr(item, depth+1)
		}
	case string:
		d.printf("%s %q", a.Type(), v)
	case []uint16:
		s, _ := a.UCS2()
		d.printf("%s %q", a.Type(), s)
	case []byte:
		d.printf("%s %d bytes % x", a.Type(), len(v), v)
	case nil:
		d.printf("%s", a.Type())
	default:
		d.printf("%s %v", a.Type(), v)
	}
}
