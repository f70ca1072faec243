package store

import (
	"errors"
	"net/netip"
	"reflect"
	"testing"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
)

var (
	classTest = MakeType("TEST")
	keyVal1   = MakeType("VAL1")
	keyVal2   = MakeType("VAL2")
	keySub    = MakeType("SUBO")
	keyList   = MakeType("LIST")
)

func TestTypeCodes(t *testing.T) {
	tests := map[string]Type{
		"OBJE": TypeObject,
		"LOCK": TypeLockedObject,
		"RESU": TypeResult,
		"INT4": TypeInt,
		"INT8": TypeLong,
		"FLT4": TypeFloat,
		"CSTR": TypeCString,
		"U2ST": TypeUCS2String,
		"****": TypeWildCard,
		"OCLA": KeyObjectClass,
	}
	for s, want := range tests {
		t.Run(s, func(t *testing.T) {
			if got := MakeType(s); got != want {
				t.Errorf("MakeType(%q) = %#x, want %#x", s, uint32(got), uint32(want))
			}
			if want.String() != s {
				t.Errorf("String() = %q, want %q", want.String(), s)
			}
		})
	}

	if MakeType("AB").String() != "AB  " {
		t.Errorf("short codes should be space padded, got %q", MakeType("AB").String())
	}
	if _, err := ParseType("TOOLONG"); err == nil {
		t.Error("expected error for long type code")
	}
	if Type(1).String() != "0x00000001" {
		t.Errorf("unexpected string for non printable code: %q", Type(1).String())
	}
}

func TestNewSetsClass(t *testing.T) {
	o := New(classTest)
	if o.Class() != classTest {
		t.Errorf("Class() = %s, want %s", o.Class(), classTest)
	}
	if o.Type() != TypeObject {
		t.Errorf("Type() = %s, want OBJE", o.Type())
	}
	if n, _ := o.Count(); n != 1 {
		t.Errorf("new object should hold only its class, got %d children", n)
	}
	if NewResult(classTest).Type() != TypeResult {
		t.Error("NewResult should create a RESU object")
	}
}

func TestSetGet(t *testing.T) {
	o := New(classTest)

	if err := o.SetInt(keyVal1, 42); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}
	if v, err := o.GetInt(keyVal1); err != nil || v != 42 {
		t.Fatalf("GetInt = %d, %v; want 42, nil", v, err)
	}

	// last write wins, position is kept
	_ = o.SetInt(keyVal2, 1)
	_ = o.SetString(keyVal1, "replaced")
	if v, err := o.GetString(keyVal1); err != nil || v != "replaced" {
		t.Errorf("GetString = %q, %v", v, err)
	}
	keys, _ := o.Keys()
	if !reflect.DeepEqual(keys, []Type{KeyObjectClass, keyVal1, keyVal2}) {
		t.Errorf("unexpected key order %v", keys)
	}

	if _, err := o.GetInt(keyVal1); !errors.Is(err, errcode.DataType) {
		t.Errorf("expected DataType for kind mismatch, got %v", err)
	}
	if _, err := o.Get(MakeType("NONE")); !errors.Is(err, errcode.Param) {
		t.Errorf("expected Param for missing key, got %v", err)
	}
}

func TestTypedAccessors(t *testing.T) {
	o := New(classTest)
	ap := addr.Net(netip.MustParseAddrPort("10.1.2.3:99"))

	_ = o.SetLong(MakeType("LONG"), -1<<40)
	_ = o.SetFloat(MakeType("FLOT"), 1.5)
	_ = o.SetDouble(MakeType("DBLE"), 2.25)
	_ = o.SetBool(MakeType("BOOL"), true)
	_ = o.SetType(MakeType("TYPE"), classTest)
	_ = o.SetUCS2String(MakeType("UCS2"), "Grüße ✓")
	_ = o.SetAddress(MakeType("ADDR"), ap)

	if v, _ := o.GetLong(MakeType("LONG")); v != -1<<40 {
		t.Errorf("GetLong = %d", v)
	}
	if v, _ := o.GetFloat(MakeType("FLOT")); v != 1.5 {
		t.Errorf("GetFloat = %v", v)
	}
	if v, _ := o.GetDouble(MakeType("DBLE")); v != 2.25 {
		t.Errorf("GetDouble = %v", v)
	}
	if v, _ := o.GetBool(MakeType("BOOL")); !v {
		t.Error("GetBool = false")
	}
	if v, _ := o.GetType(MakeType("TYPE")); v != classTest {
		t.Errorf("GetType = %s", v)
	}
	if v, _ := o.GetUCS2String(MakeType("UCS2")); v != "Grüße ✓" {
		t.Errorf("GetUCS2String = %q", v)
	}
	if v, _ := o.GetAddress(MakeType("ADDR")); v != ap {
		t.Errorf("GetAddress = %v", v)
	}

	// TryGet falls back on missing keys and kind mismatches
	if v := o.TryGetInt(MakeType("LONG"), 7); v != 7 {
		t.Errorf("TryGetInt on a long = %d, want default", v)
	}
	if v := o.TryGetString(MakeType("NONE"), "def"); v != "def" {
		t.Errorf("TryGetString = %q, want default", v)
	}
	if v := o.TryGetDouble(MakeType("DBLE"), 0); v != 2.25 {
		t.Errorf("TryGetDouble = %v", v)
	}
}

func TestGetReturnsDeepCopy(t *testing.T) {
	o := New(classTest)
	sub := New(keySub)
	_ = sub.SetInt(keyVal1, 1)
	_ = o.SetObject(keySub, sub)

	c, err := o.GetObject(keySub)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	_ = c.SetInt(keyVal1, 99)

	again, _ := o.GetObject(keySub)
	if v, _ := again.GetInt(keyVal1); v != 1 {
		t.Errorf("modifying a copy changed the stored object, got %d", v)
	}
}

func TestRemoveExistCount(t *testing.T) {
	o := New(classTest)
	_ = o.SetInt(keyVal1, 1)
	_ = o.SetInt(keyVal2, 2)

	if ok, _ := o.Exist(keyVal1); !ok {
		t.Error("VAL1 should exist")
	}
	if err := o.Remove(keyVal1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := o.Exist(keyVal1); ok {
		t.Error("VAL1 should be gone")
	}
	if err := o.Remove(keyVal1); !errors.Is(err, errcode.Param) {
		t.Errorf("removing a missing key should fail with Param, got %v", err)
	}
	if n, _ := o.Count(); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestReentrantAccessIsRejected(t *testing.T) {
	o := New(classTest)
	_ = o.SetInt(keyVal1, 42)

	var getErr, setErr, countErr error
	var sawLocked bool
	err := o.Walk(func(key Type, attr Attribute) error {
		_, getErr = o.Get(keyVal1)
		setErr = o.SetInt(keyVal2, 1)
		_, countErr = o.Count()
		sawLocked = o.Type() == TypeLockedObject
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	for name, e := range map[string]error{"get": getErr, "set": setErr, "count": countErr} {
		if !errors.Is(e, errcode.NotNow) {
			t.Errorf("%s inside Walk: got %v, want NotNow", name, e)
		}
	}
	if !sawLocked {
		t.Error("object should report LOCK while walked")
	}

	// the object is intact and usable again
	if v, err := o.GetInt(keyVal1); err != nil || v != 42 {
		t.Errorf("GetInt after walk = %d, %v", v, err)
	}
	if ok, _ := o.Exist(keyVal2); ok {
		t.Error("rejected Set must not modify the object")
	}
	if o.Type() != TypeObject {
		t.Errorf("Type after walk = %s", o.Type())
	}
}

func TestWalkStopsOnError(t *testing.T) {
	o := New(classTest)
	_ = o.SetInt(keyVal1, 1)
	_ = o.SetInt(keyVal2, 2)

	stop := errors.New("stop")
	visited := 0
	err := o.Walk(func(Type, Attribute) error {
		visited++
		return stop
	})
	if !errors.Is(err, stop) || visited != 1 {
		t.Errorf("Walk returned %v after %d visits", err, visited)
	}
}

func TestCopyAndMerge(t *testing.T) {
	src := New(classTest)
	_ = src.SetInt(keyVal1, 1)
	_ = src.SetString(keyVal2, "two")

	dst := New(MakeType("OTHR"))
	_ = dst.SetInt(MakeType("KEEP"), 5)

	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if !EqualObjects(src, dst) {
		t.Error("Copy should make dst equal to src")
	}
	if err := Copy(src, src); !errors.Is(err, errcode.Param) {
		t.Errorf("Copy onto itself: got %v, want Param", err)
	}

	// merge is additive and replaces existing keys
	target := New(classTest)
	_ = target.SetInt(MakeType("KEEP"), 5)
	_ = target.SetInt(keyVal1, 100)
	if err := Merge(src, target); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if v, _ := target.GetInt(keyVal1); v != 1 {
		t.Errorf("merged VAL1 = %d, want 1", v)
	}
	if v, _ := target.GetInt(MakeType("KEEP")); v != 5 {
		t.Errorf("merge should keep existing children, KEEP = %d", v)
	}
	if n, _ := target.Count(); n != 4 {
		t.Errorf("merged object has %d children, want 4", n)
	}

	if err := Merge(src, New(MakeType("OTHR"))); !errors.Is(err, errcode.DataType) {
		t.Errorf("Merge across classes: got %v, want DataType", err)
	}
}

func TestDeleteReleasesEveryAttribute(t *testing.T) {
	o := New(classTest) // OCLA
	_ = o.SetInt(keyVal1, 42)

	sub := New(keySub) // nested object + its OCLA
	_ = sub.SetString(keyVal1, "x")
	_ = o.SetObject(keySub, sub)

	_ = o.SetList(keyList, NewList(Int(1), Int(2), Int(3))) // list + 3 items

	// OCLA, VAL1, SUBO, SUBO.OCLA, SUBO.VAL1, LIST, 3 items
	const want = 9

	n, err := o.Delete()
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != want {
		t.Errorf("Delete released %d attributes, want %d", n, want)
	}
	if c, _ := o.Count(); c != 0 {
		t.Errorf("deleted object still has %d children", c)
	}

	n, err = o.Delete()
	if err != nil || n != 0 {
		t.Errorf("second Delete = %d, %v; want 0, nil", n, err)
	}
}

func TestAttributeSize(t *testing.T) {
	tests := map[string]struct {
		attr Attribute
		want int
	}{
		"int":     {Int(1), 4},
		"long":    {Long(1), 8},
		"bool":    {Bool(true), 1},
		"cstring": {CString("abc"), 4},
		"ucs2":    {UCS2("ab"), 6},
		"vector":  {IntVector(1, 2, 3), 12},
		"list":    {ListOf(NewList(Int(1), Int(2))), 2},
		"raw":     {Raw(MakeType("BLOB"), []byte{1, 2, 3}), 3},
		"null":    {Null(), 0},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.attr.Size(); got != tc.want {
				t.Errorf("Size() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSetRejectsCycles(t *testing.T) {
	o := New(classTest)
	if err := o.SetObject(keySub, o); !errors.Is(err, errcode.Param) {
		t.Errorf("SetObject(self): got %v, want Param", err)
	}
	if err := o.Add(keySub, Nested(o)); !errors.Is(err, errcode.Param) {
		t.Errorf("Add(self): got %v, want Param", err)
	}
	if err := o.SetList(keyList, NewList(Int(1), Nested(o))); !errors.Is(err, errcode.Param) {
		t.Errorf("SetList containing self: got %v, want Param", err)
	}

	// indirect cycle through a child
	child := New(classTest)
	if err := o.SetObject(keySub, child); err != nil {
		t.Fatal(err)
	}
	if err := child.SetObject(keySub, o); !errors.Is(err, errcode.Param) {
		t.Errorf("SetObject(parent): got %v, want Param", err)
	}

	// the tree is still finite
	if _, err := o.Clone(); err != nil {
		t.Fatal(err)
	}
	if n, _ := o.Count(); n != 2 {
		t.Errorf("Count = %d, want 2 (OCLA and SUBO)", n)
	}
}
