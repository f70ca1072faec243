package serializer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IObjectSerializer{
	"JSON":   func() IObjectSerializer { return NewJSONSerializer(false) },
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// TestSerializerRoundTrip tests that objects can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	objects := map[string]*store.Object{
		"ping":   pingMessage(),
		"rich":   richObject(),
		"empty":  store.Empty(store.TypeObject),
		"result": store.NewResult(classTest),
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()
			for objName, obj := range objects {
				data, err := s.Serialize(obj)
				if err != nil {
					t.Errorf("%s: failed to serialize: %v", objName, err)
					continue
				}
				got, err := s.Deserialize(data)
				if err != nil {
					t.Errorf("%s: failed to deserialize: %v", objName, err)
					continue
				}
				if !store.EqualObjects(obj, got) {
					var a, b bytes.Buffer
					_ = store.Dump(&a, obj)
					_ = store.Dump(&b, got)
					t.Errorf("%s: mismatch\nwant:\n%s\ngot:\n%s", objName, a.String(), b.String())
				}
			}
		})
	}
}

// TestSerializerRejectsGarbage tests that invalid input is reported, not silently accepted
func TestSerializerRejectsGarbage(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			if _, err := factory().Deserialize([]byte("definitely not an object")); err == nil {
				t.Error("expected error for garbage input")
			}
			if _, err := factory().Serialize(nil); !errors.Is(err, errcode.Param) {
				t.Errorf("expected Param for nil object, got %v", err)
			}
		})
	}
}

func TestJSONIsReadable(t *testing.T) {
	data, err := NewJSONSerializer(true).Serialize(pingMessage())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type": "OBJE"`, `"key": "VAL1"`, `"int": 42`, `"text": "PING"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("json output lacks %s:\n%s", want, data)
		}
	}
}

func TestBinarySerializerRejectsTrailingBytes(t *testing.T) {
	s := NewBinarySerializer()
	data, err := s.Serialize(pingMessage())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deserialize(append(data, 0)); !errors.Is(err, errcode.InvalidDataSize) {
		t.Errorf("expected InvalidDataSize, got %v", err)
	}
}

// BenchmarkSerializers compares the serializers on the rich test object
func BenchmarkSerializers(b *testing.B) {
	obj := richObject()
	for name, factory := range testSerializers {
		s := factory()
		data, err := s.Serialize(obj)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name+"/Serialize", func(b *testing.B) {
			b.ReportMetric(float64(len(data)), "bytes/op")
			for i := 0; i < b.N; i++ {
				if _, err := s.Serialize(obj); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(name+"/Deserialize", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := s.Deserialize(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
