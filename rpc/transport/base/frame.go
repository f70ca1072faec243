package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"time"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/ValentinKolb/povms/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// MaxUnitSize bounds the units ReadUnit accepts from a byte stream
const MaxUnitSize = 64 << 20

// WriteUnits writes complete units to w. Every unit header is validated first,
// then all units are handed to the writer in a single net.Buffers call.
func WriteUnits(w io.Writer, units ...[]byte) error {
	for i, unit := range units {
		total, err := serializer.CheckMessageHeader(unit)
		if err != nil {
			return fmt.Errorf("unit %d: %w", i, err)
		}
		if total != len(unit) {
			return fmt.Errorf("unit %d declares %d bytes, has %d: %w", i, total, len(unit), errcode.InvalidDataSize)
		}
	}
	// WriteTo consumes the buffers, keep the caller's slice intact
	b := append(net.Buffers(nil), units...)
	_, err := b.WriteTo(w)
	return err
}

// ReadUnit reads the next unit from r. The header is read first to learn the
// total size, then the remainder. A clean end of stream before the first
// header byte is reported as io.EOF, a stream ending inside a unit as
// errcode.IncompleteData.
func ReadUnit(r io.Reader) ([]byte, error) {
	header := make([]byte, serializer.HeaderSize)
	if n, err := io.ReadFull(r, header); err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading unit header: %w", errcode.IncompleteData)
	}

	total, err := serializer.CheckMessageHeader(header)
	if err != nil {
		return nil, err
	}
	if total > MaxUnitSize {
		return nil, fmt.Errorf("unit of %d bytes exceeds limit: %w", total, errcode.InvalidDataSize)
	}

	unit := make([]byte, total)
	copy(unit, header)
	if _, err := io.ReadFull(r, unit[serializer.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("reading unit body: %w", errcode.IncompleteData)
	}
	return unit, nil
}

// Forward reads units from r and enqueues them into q until r is exhausted or
// ctx is cancelled. A full queue is retried with exponential backoff. It
// returns the number of forwarded units.
func Forward(ctx context.Context, r io.Reader, q transport.IQueue) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		unit, err := ReadUnit(r)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		if err := enqueueWithBackoff(ctx, q, unit); err != nil {
			return n, err
		}
		n++
	}
}

// enqueueWithBackoff retries QueueFull with a jittered, doubling delay
func enqueueWithBackoff(ctx context.Context, q transport.IQueue, unit []byte) error {
	backoff := time.Millisecond
	for attempt := 1; ; attempt++ {
		err := q.Enqueue(unit)
		if !errors.Is(err, errcode.QueueFull) {
			return err
		}
		Logger.Debugf("queue %v full, attempt %d", q.Address(), attempt)

		// jitter of +-10%
		jitter := time.Duration(float64(backoff) * (0.9 + 0.2*rand.Float64()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter):
		}
		if backoff < 100*time.Millisecond {
			backoff *= 2
		}
	}
}
