package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/povms"
	"github.com/ValentinKolb/povms/rpc/transport"
	"github.com/ValentinKolb/povms/rpc/transport/local"
)

func TestSampleDumpUnits(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSamples(&buf, 3, 10, false); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	n, err := dumpUnits(&buf, &out, "text")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("dumped %d units, want 3", n)
	}
	text := out.String()
	for _, want := range []string{"# unit 0", "# unit 2", "sample 12"} {
		if !strings.Contains(text, want) {
			t.Errorf("output misses %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "# result") {
		t.Error("samples carry no result")
	}
}

func TestSampleDumpObjectsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSamples(&buf, 2, 1, true); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	n, err := dumpObjects(&buf, &out, "json")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("dumped %d objects, want 2", n)
	}
	if !strings.Contains(out.String(), "sample 2") {
		t.Errorf("output misses second sample:\n%s", out.String())
	}
}

func TestDumpTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSamples(&buf, 2, 1, false); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()-3]

	n, err := dumpUnits(bytes.NewReader(data), &bytes.Buffer{}, "text")
	if !errors.Is(err, errcode.IncompleteData) {
		t.Errorf("expected IncompleteData, got %v", err)
	}
	if n != 1 {
		t.Errorf("dumped %d units before the error, want 1", n)
	}
}

func TestDumpInvalidFormat(t *testing.T) {
	if _, err := dumpUnits(&bytes.Buffer{}, &bytes.Buffer{}, "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := writeSamples(&bytes.Buffer{}, -1, 0, false); err == nil {
		t.Error("expected error for negative count")
	}
}

func openReplayContext(t *testing.T, capacity int, classes ...string) (*povms.Context, transport.IQueue, *bytes.Buffer) {
	t.Helper()
	registry := local.NewRegistry()
	config := common.DefaultContextConfig("replay")
	config.QueueCapacity = capacity
	config.PollInterval = 10 * time.Millisecond
	c, err := povms.OpenContextIn(registry, config)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.CloseContext() })

	var out bytes.Buffer
	for _, class := range classes {
		if err := c.InstallReceiver(store.MakeType(class), povms.Wildcard, printReceiver, &out); err != nil {
			t.Fatal(err)
		}
	}
	q, err := registry.Lookup(c.Address())
	if err != nil {
		t.Fatal(err)
	}
	return c, q, &out
}

func TestReplayUnits(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSamples(&buf, 20, 100, false); err != nil {
		t.Fatal(err)
	}

	// a small queue makes the forwarder wait for the dispatcher
	c, q, out := openReplayContext(t, 2, "TEST")
	stats, err := replayUnits(context.Background(), &buf, c, q)
	if err != nil {
		t.Fatal(err)
	}
	if stats.forwarded != 20 || stats.handled != 20 || stats.failed != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	for _, want := range []string{"TEST/PING", "sample 100", "sample 119"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q", want)
		}
	}
}

func TestReplayUnitsWithoutReceiver(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSamples(&buf, 3, 0, false); err != nil {
		t.Fatal(err)
	}

	c, q, _ := openReplayContext(t, 0, "SYST")
	stats, err := replayUnits(context.Background(), &buf, c, q)
	if err != nil {
		t.Fatal(err)
	}
	if stats.forwarded != 3 || stats.handled != 0 || stats.failed != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestReplayUnitsTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSamples(&buf, 2, 0, false); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()-1]

	c, q, _ := openReplayContext(t, 0, "TEST")
	stats, err := replayUnits(context.Background(), bytes.NewReader(data), c, q)
	if !errors.Is(err, errcode.IncompleteData) {
		t.Errorf("expected IncompleteData, got %v", err)
	}
	if stats.forwarded != 1 || stats.handled != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
