package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/povms"
	"github.com/ValentinKolb/povms/rpc/server"
	"github.com/ValentinKolb/povms/rpc/transport/local"
)

var (
	classTest = store.MakeType("TEST")
	idFail    = store.MakeType("FAIL")
	idSlow    = store.MakeType("SLOW")
)

// testAdapter fails every FAIL message with DataType and never answers SLOW in time
type testAdapter struct{}

func (testAdapter) Class() store.Type { return classTest }

func (testAdapter) Handle(msg, result *store.Object, _ common.Mode) error {
	id, _ := common.MessageIdentifier(msg)
	switch id {
	case idFail:
		return errcode.DataType
	case idSlow:
		time.Sleep(1500 * time.Millisecond)
		return nil
	}
	return errcode.CannotHandleData
}

// setup starts a worker and returns a client on a second context
func setup(t *testing.T) (*Client, addr.Address) {
	t.Helper()
	registry := local.NewRegistry()

	open := func(name string) *povms.Context {
		config := common.DefaultContextConfig(name)
		config.PollInterval = 10 * time.Millisecond
		c, err := povms.OpenContextIn(registry, config)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = c.CloseContext() })
		return c
	}

	w := server.NewWorker(open("worker"))
	_ = w.Register(server.NewPingAdapter())
	_ = w.Register(testAdapter{})
	stdctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Serve(stdctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return New(open("client")), w.Address()
}

func TestPing(t *testing.T) {
	c, dst := setup(t)
	for _, v := range []int32{0, 42, -7} {
		got, err := c.Ping(dst, v)
		if err != nil {
			t.Fatalf("Ping(%d): %v", v, err)
		}
		if got != v+1 {
			t.Errorf("Ping(%d) = %d", v, got)
		}
	}
}

func TestEcho(t *testing.T) {
	c, dst := setup(t)

	payload := store.Empty(store.TypeObject)
	_ = payload.SetString(store.MakeType("TEXT"), "render me")
	_ = payload.Set(store.MakeType("VECT"), store.FloatVector(1, 2, 3))
	_ = payload.SetDouble(store.MakeType("GAMA"), 2.2)

	echoed, err := c.Echo(dst, payload)
	if err != nil {
		t.Fatal(err)
	}
	if !store.EqualObjects(payload, echoed) {
		t.Error("echoed payload differs")
	}
}

func TestCallErrors(t *testing.T) {
	c, dst := setup(t)

	tests := map[string]struct {
		msg        *store.Object
		dst        addr.Address
		want       errcode.Code
		wantResult bool
	}{
		"handler error":       {common.NewMessage(classTest, idFail), dst, errcode.DataType, true},
		"unknown message":     {common.NewMessage(classTest, store.MakeType("NOPE")), dst, errcode.CannotHandleData, true},
		"unknown destination": {common.NewMessage(classTest, idFail), addr.System(1 << 40), errcode.Param, false},
		"missing class":       {store.New(classTest), dst, errcode.Param, false},
		"nil message":         {nil, dst, errcode.Param, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := c.Call(tc.dst, tc.msg)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if (result != nil) != tc.wantResult {
				t.Errorf("result present = %v, want %v", result != nil, tc.wantResult)
			}
		})
	}
}

func TestCallTimeout(t *testing.T) {
	c, dst := setup(t)

	start := time.Now()
	_, err := c.WithTimeout(time.Second).Call(dst, common.NewMessage(classTest, idSlow))
	if !errors.Is(err, errcode.Timeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 1400*time.Millisecond {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestPost(t *testing.T) {
	c, dst := setup(t)

	if err := c.Post(dst, nil); !errors.Is(err, errcode.Param) {
		t.Errorf("nil message: expected Param, got %v", err)
	}
	msg := common.NewMessage(common.ClassSystem, common.IDPing)
	if err := c.Post(dst, msg); err != nil {
		t.Fatal(err)
	}
	// the worker is still responsive after the fire and forget message
	if _, err := c.Ping(dst, 1); err != nil {
		t.Error(err)
	}
}
