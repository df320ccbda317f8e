// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// STREAMING BUFFER TESTS
// =============================================================================

func TestStreamingBufferFlushBySize(t *testing.T) {
	sb := NewStreamingBuffer()

	// Below both thresholds: nothing to flush.
	sb.Write("A")
	sb.Write("B")
	if content, ok := sb.Flush(); ok {
		t.Errorf("Flush before thresholds returned %q", content)
	}

	// Reaching the batch size forces a flush regardless of elapsed time.
	for i := 0; i < defaultBatchSize; i++ {
		sb.Write("x")
	}
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("Flush after batch threshold returned nothing")
	}
	if len(content) != defaultBatchSize+2 {
		t.Errorf("Flushed %d bytes, want %d", len(content), defaultBatchSize+2)
	}
}

func TestStreamingBufferFlushByTime(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("A")
	if content, ok := sb.Flush(); ok {
		t.Errorf("Flush before interval returned %q", content)
	}

	time.Sleep(defaultFlushEvery + 5*time.Millisecond)

	content, ok := sb.Flush()
	if !ok {
		t.Fatal("Flush after interval returned nothing")
	}
	if content != "A" {
		t.Errorf("Flushed %q, want %q", content, "A")
	}
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("Test")
	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("ForceFlush returned nothing")
	}
	if content != "Test" {
		t.Errorf("ForceFlush returned %q, want %q", content, "Test")
	}

	if content, ok := sb.ForceFlush(); ok {
		t.Errorf("Second ForceFlush returned %q, want nothing", content)
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("discard me")
	sb.Reset()

	if content, ok := sb.ForceFlush(); ok {
		t.Errorf("ForceFlush after Reset returned %q", content)
	}
}

func TestStreamingBufferConcurrentWrites(t *testing.T) {
	sb := NewStreamingBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sb.Write(fmt.Sprintf("%d", n))
			}
		}(i)
	}
	wg.Wait()

	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("ForceFlush returned nothing after concurrent writes")
	}
	if len(content) != 800 {
		t.Errorf("Flushed %d bytes, want 800", len(content))
	}
}

func TestStreamingBufferOrderPreserved(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("one ")
	sb.Write("two ")
	sb.Write("three")

	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("ForceFlush returned nothing")
	}
	if content != "one two three" {
		t.Errorf("ForceFlush returned %q, want %q", content, "one two three")
	}
}
