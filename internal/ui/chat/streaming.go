// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches streamed chunks for rendering. The network
// goroutine writes as fast as chunks arrive; the update loop flushes on a
// tick, so the viewport repaints at a capped frame rate instead of once per
// chunk.
type StreamingBuffer struct {
	mu        sync.Mutex
	buffer    strings.Builder
	lastFlush time.Time

	batchSize int           // chunks per forced flush
	minFlush  time.Duration // min time between flushes
	chunks    int
}

const (
	defaultBatchSize  = 15
	defaultFlushEvery = 33 * time.Millisecond // ~30fps
)

// NewStreamingBuffer creates a buffer with the default batching settings.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{
		batchSize: defaultBatchSize,
		minFlush:  defaultFlushEvery,
		lastFlush: time.Now(),
	}
}

// Write adds a chunk. Called from the streaming goroutine.
func (sb *StreamingBuffer) Write(chunk string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(chunk)
	sb.chunks++
}

// Flush returns accumulated content when a flush is due: either enough
// chunks piled up or enough time passed. Called from the update loop.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.chunks < sb.batchSize && time.Since(sb.lastFlush) < sb.minFlush {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush returns everything buffered regardless of thresholds. Used
// when the stream completes.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Reset discards buffered content. Used when a stream is cancelled.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.chunks = 0
	sb.lastFlush = time.Now()
}

// drainLocked extracts and resets. Caller holds the lock.
func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.chunks = 0
	sb.lastFlush = time.Now()
	return content
}

// streamTickCmd drives flushes while a stream is active.
func streamTickCmd() tea.Cmd {
	return tea.Tick(defaultFlushEvery, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
