// Package utils holds small helpers shared by the commands and the status
// server.
package utils

import (
	"context"
	"math/rand"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/c2h5oh/datasize"
)

// SleepContext sleeps for d, or until the context is done. In the latter
// case it returns the context error.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Jitter returns d changed by a random amount of at most fraction*d in
// either direction. A fraction outside (0, 1] returns d unchanged.
func Jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || fraction > 1 || d <= 0 {
		return d
	}
	delta := time.Duration(fraction * float64(d) * (2*rand.Float64() - 1))
	return d + delta
}

// PollJitter is the fraction used by SleepJitter
const PollJitter = 0.2

// SleepJitter is SleepContext with a PollJitter random component, so that
// instances polling the same storage spread out.
func SleepJitter(ctx context.Context, d time.Duration) error {
	return SleepContext(ctx, Jitter(d, PollJitter))
}

// MemStats describes the effect of ReleaseMemory.
type MemStats struct {
	Duration   time.Duration
	HeapBefore datasize.ByteSize
	HeapAfter  datasize.ByteSize
	Released   datasize.ByteSize // returned to the OS
}

// Freed returns how much of the heap was freed.
func (m MemStats) Freed() datasize.ByteSize {
	if m.HeapBefore < m.HeapAfter {
		return 0
	}
	return m.HeapBefore - m.HeapAfter
}

// ReleaseMemory collects garbage and returns as much memory as possible
// to the OS. Importing a cache file allocates all of it at once, which
// would otherwise stay in the process until the next import.
func ReleaseMemory() MemStats {
	var before, after runtime.MemStats
	t0 := time.Now()
	runtime.ReadMemStats(&before)
	debug.FreeOSMemory()
	runtime.ReadMemStats(&after)
	var released uint64
	if after.HeapReleased > before.HeapReleased {
		released = after.HeapReleased - before.HeapReleased
	}
	return MemStats{
		Duration:   time.Since(t0).Round(time.Millisecond),
		HeapBefore: datasize.ByteSize(before.HeapAlloc),
		HeapAfter:  datasize.ByteSize(after.HeapAlloc),
		Released:   datasize.ByteSize(released),
	}
}
