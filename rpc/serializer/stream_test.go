package serializer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

func TestOrderTablesProduceBigEndianWire(t *testing.T) {
	for name, order := range testOrders {
		t.Run(name, func(t *testing.T) {
			s := NewStream(NewOrderTables(order))

			buf := make([]byte, 12)
			if _, err := s.Write(store.Int(0x01020304), buf); err != nil {
				t.Fatal(err)
			}
			want := []byte{'I', 'N', 'T', '4', 0, 0, 0, 4, 1, 2, 3, 4}
			if !bytes.Equal(buf, want) {
				t.Errorf("int stream = % x, want % x", buf, want)
			}

			buf = make([]byte, 16)
			if _, err := s.Write(store.Long(0x0102030405060708), buf); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf[8:], []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
				t.Errorf("long body = % x", buf[8:])
			}

			buf = make([]byte, 12)
			if _, err := s.Write(store.UCS2Units([]uint16{0x0102, 0x0304}), buf); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf[4:], []byte{0, 0, 0, 4, 1, 2, 3, 4}) {
				t.Errorf("ucs2 stream = % x", buf[4:])
			}
		})
	}
}

func TestRoundTripAcrossHostOrders(t *testing.T) {
	for writerName, writerOrder := range testOrders {
		for readerName, readerOrder := range testOrders {
			t.Run(writerName+"->"+readerName, func(t *testing.T) {
				w := NewStream(NewOrderTables(writerOrder))
				r := NewStream(NewOrderTables(readerOrder))

				obj := richObject()
				buf := make([]byte, w.ObjectSize(obj))
				n, err := w.WriteObject(obj, buf)
				if err != nil {
					t.Fatalf("write: %v", err)
				}

				got, m, err := r.ReadObject(buf[:n])
				if err != nil {
					t.Fatalf("read: %v", err)
				}
				if m != n {
					t.Errorf("read consumed %d bytes, written %d", m, n)
				}
				if !store.EqualObjects(obj, got) {
					var a, b bytes.Buffer
					_ = store.Dump(&a, obj)
					_ = store.Dump(&b, got)
					t.Errorf("round trip mismatch\nwant:\n%s\ngot:\n%s", a.String(), b.String())
				}
			})
		}
	}
}

func TestSizeAgreesWithWrite(t *testing.T) {
	s := NewStream(nil)
	obj := richObject()
	for key, attr := range obj.All() {
		t.Run(key.String(), func(t *testing.T) {
			buf := make([]byte, s.Size(attr)+16)
			n, err := s.Write(attr, buf)
			if err != nil {
				t.Fatal(err)
			}
			if n != s.Size(attr) {
				t.Errorf("Write produced %d bytes, Size says %d", n, s.Size(attr))
			}
		})
	}
	if n := s.ObjectSize(obj); n != s.Size(store.Nested(obj)) {
		t.Errorf("ObjectSize %d differs from Size %d", n, s.Size(store.Nested(obj)))
	}
}

func TestStringsOmitTerminatorOnWire(t *testing.T) {
	s := NewStream(nil)
	a := store.CString("abc")
	if a.Size() != 4 {
		t.Errorf("in-memory size = %d, want 4", a.Size())
	}
	buf := make([]byte, s.Size(a))
	if _, err := s.Write(a, buf); err != nil {
		t.Fatal(err)
	}
	if len(buf) != 8+3 || buf[7] != 3 {
		t.Errorf("unexpected stream % x", buf)
	}

	u := store.UCS2("ab")
	if u.Size() != 6 {
		t.Errorf("in-memory UCS-2 size = %d, want 6", u.Size())
	}
	if s.Size(u) != 8+4 {
		t.Errorf("UCS-2 stream size = %d, want 12", s.Size(u))
	}
}

func TestBoolEncoding(t *testing.T) {
	s := NewStream(nil)
	buf := make([]byte, 9)
	if _, err := s.Write(store.Bool(true), buf); err != nil {
		t.Fatal(err)
	}
	if buf[8] != 0xFF {
		t.Errorf("true encoded as %#x", buf[8])
	}

	// any non zero byte reads as true
	buf[8] = 0x01
	a, _, err := s.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := a.Bool(); !v {
		t.Error("expected true for 0x01")
	}
	buf[8] = 0x00
	a, _, _ = s.Read(buf)
	if v, _ := a.Bool(); v {
		t.Error("expected false for 0x00")
	}
}

func TestWriteShortBuffer(t *testing.T) {
	s := NewStream(nil)
	obj := pingMessage()
	buf := make([]byte, s.ObjectSize(obj)-1)
	n, err := s.WriteObject(obj, buf)
	if n != 0 || !errors.Is(err, errcode.InvalidDataSize) {
		t.Errorf("expected (0, InvalidDataSize), got (%d, %v)", n, err)
	}
}

func TestReadRejectsTruncatedInput(t *testing.T) {
	s := NewStream(nil)
	obj := richObject()
	buf := make([]byte, s.ObjectSize(obj))
	if _, err := s.WriteObject(obj, buf); err != nil {
		t.Fatal(err)
	}
	for _, cut := range []int{0, 4, 7, 8, 20, len(buf) / 2, len(buf) - 1} {
		if _, _, err := s.ReadObject(buf[:cut]); !errors.Is(err, errcode.InvalidDataSize) {
			t.Errorf("cut at %d: expected InvalidDataSize, got %v", cut, err)
		}
	}
}

func TestReadRejectsBogusCounts(t *testing.T) {
	s := NewStream(nil)
	tests := map[string][]byte{
		"huge object count": {'O', 'B', 'J', 'E', 0x7f, 0xff, 0xff, 0xff},
		"negative size":     {'C', 'S', 'T', 'R', 0xff, 0xff, 0xff, 0xff},
		"odd ucs2 size":     {'U', '2', 'S', 'T', 0, 0, 0, 3, 0, 'a', 0},
		"bad int size":      {'I', 'N', 'T', '4', 0, 0, 0, 2, 0, 1},
	}
	for name, buf := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.Read(buf); !errors.Is(err, errcode.InvalidDataSize) {
				t.Errorf("expected InvalidDataSize, got %v", err)
			}
		})
	}
}

func TestReadObjectRejectsScalars(t *testing.T) {
	s := NewStream(nil)
	buf := make([]byte, 12)
	_, _ = s.Write(store.Int(1), buf)
	if _, _, err := s.ReadObject(buf); !errors.Is(err, errcode.DataType) {
		t.Errorf("expected DataType, got %v", err)
	}
}

func TestWriteLockedObject(t *testing.T) {
	s := NewStream(nil)
	obj := pingMessage()
	err := obj.Walk(func(store.Type, store.Attribute) error {
		_, err := s.WriteObject(obj, make([]byte, 1024))
		return err
	})
	if !errors.Is(err, errcode.NotNow) {
		t.Errorf("expected NotNow, got %v", err)
	}
}

func TestObjectReaderWriter(t *testing.T) {
	s := NewStream(NewOrderTables(binary.LittleEndian))
	var pipe bytes.Buffer
	first, second := richObject(), pingMessage()

	if _, err := s.WriteObjectTo(&pipe, first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteObjectTo(&pipe, second); err != nil {
		t.Fatal(err)
	}

	for i, want := range []*store.Object{first, second} {
		got, _, err := s.ReadObjectFrom(&pipe)
		if err != nil {
			t.Fatalf("object %d: %v", i, err)
		}
		if !store.EqualObjects(want, got) {
			t.Errorf("object %d differs after reading from stream", i)
		}
	}
	if pipe.Len() != 0 {
		t.Errorf("%d bytes left in pipe", pipe.Len())
	}
}

func TestPingScenarioRoundTrip(t *testing.T) {
	msg := pingMessage()
	buf := make([]byte, ObjectStreamSize(msg))
	if _, err := ObjectStreamWrite(msg, buf); err != nil {
		t.Fatal(err)
	}
	got, _, err := ObjectStreamRead(buf)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := got.GetInt(keyVal1); err != nil || v != 42 {
		t.Errorf("VAL1 = %d, %v", v, err)
	}
	if c, _ := got.GetType(keyMCLA); c != classTest {
		t.Errorf("class = %s", c)
	}
	if id, _ := got.GetType(keyMIDE); id != idPing {
		t.Errorf("id = %s", id)
	}
}

func BenchmarkStreamWrite(b *testing.B) {
	s := NewStream(nil)
	obj := richObject()
	buf := make([]byte, s.ObjectSize(obj))
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.WriteObject(obj, buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStreamRead(b *testing.B) {
	s := NewStream(nil)
	obj := richObject()
	buf := make([]byte, s.ObjectSize(obj))
	if _, err := s.WriteObject(obj, buf); err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := s.ReadObject(buf); err != nil {
			b.Fatal(err)
		}
	}
}

func TestObjectReaderEndOfStream(t *testing.T) {
	s := NewStream(nil)
	var buf bytes.Buffer
	if _, err := s.WriteObjectTo(&buf, richObject()); err != nil {
		t.Fatal(err)
	}
	full := buf.Bytes()

	if _, _, err := s.ReadObjectFrom(bytes.NewReader(nil)); err != io.EOF {
		t.Errorf("empty stream: expected io.EOF, got %v", err)
	}
	for _, cut := range []int{3, attrHeaderSize, len(full) - 1} {
		_, _, err := s.ReadObjectFrom(bytes.NewReader(full[:cut]))
		if err == nil || errors.Is(err, io.EOF) {
			t.Errorf("truncated at %d: expected unexpected EOF, got %v", cut, err)
		}
	}
}

func TestObjectReaderHugeDeclaredSize(t *testing.T) {
	s := NewStream(nil)

	tests := map[string][]byte{
		"long vector": {'O', 'B', 'J', 'E', 0, 0, 0, 1, 'K', 'E', 'Y', '1', 'V', 'I', 'N', '8', 0x7f, 0xff, 0xff, 0xff, 1, 2, 3, 4},
		"raw bytes":   {'O', 'B', 'J', 'E', 0, 0, 0, 1, 'K', 'E', 'Y', '1', 'X', 'T', 'R', 'A', 0x7f, 0xff, 0xff, 0xff, 1, 2},
		"short body":  {'O', 'B', 'J', 'E', 0, 0, 0, 1, 'K', 'E', 'Y', '1', 'C', 'S', 'T', 'R', 0, 0, 1, 0, 'a', 'b'},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.ReadObjectFrom(bytes.NewReader(data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errcode.InvalidDataSize) && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}

	// a declared size above the limit is rejected before reading the body
	_, _, err := s.ReadObjectFrom(bytes.NewReader(tests["long vector"]))
	if !errors.Is(err, errcode.InvalidDataSize) {
		t.Errorf("long vector: expected InvalidDataSize, got %v", err)
	}
}
