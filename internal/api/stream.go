// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// streamReadSize is the read buffer for streamed response bodies. Chunks
// are delivered to the callback as they arrive, so the size only bounds a
// single delivery, not latency.
const streamReadSize = 4096

// ChunkFunc receives one decoded text fragment. It is called on the
// goroutine that invoked StreamChat, in arrival order, never concurrently
// with itself.
type ChunkFunc func(chunk string)

// StreamChat runs a query against the document index and streams the answer
// as it is generated. Each decoded fragment is passed to onChunk before the
// next network read, and the accumulated full text is returned on success.
//
// The response body is decoded incrementally using the charset declared in
// the Content-Type header (UTF-8 when absent). Decoder state carries across
// network reads, so a multi-byte character split between two chunks is
// reassembled rather than corrupted. An undecodable byte sequence aborts
// the stream with a DecodeError.
//
// Cancelling ctx stops the stream: no further onChunk calls are made and
// the error wraps ErrCancelled. The partial text is discarded; callers
// wanting it must retain what onChunk already delivered. The request is
// attempted exactly once.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest, onChunk ChunkFunc) (string, error) {
	if req.Query == "" {
		return "", ErrEmptyQuestion
	}
	req.Stream = true

	payload, err := json.Marshal(req)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("encode request: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errorFromResponse(resp)
	}

	charset, reader, err := decodingReader(resp)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	buf := make([]byte, streamReadSize)
	for {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}

		n, err := reader.Read(buf)
		if n > 0 {
			// Re-check after a potentially long blocking read so a
			// cancelled stream never reaches the callback.
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			chunk := string(buf[:n])
			full.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		if err == io.EOF {
			return full.String(), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			if errors.Is(err, encoding.ErrInvalidUTF8) {
				return "", &DecodeError{Encoding: charset, Err: err}
			}
			return "", &TransportError{Err: err}
		}
	}
}

// decodingReader wraps the response body with an incremental decoder for
// the charset declared in the Content-Type header. The returned reader
// yields UTF-8 text and keeps decoder state across reads. An unrecognized
// charset is a DecodeError up front, before any bytes are consumed.
func decodingReader(resp *http.Response) (string, io.Reader, error) {
	charset := "utf-8"
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if cs := params["charset"]; cs != "" {
				charset = strings.ToLower(cs)
			}
		}
	}

	if charset == "utf-8" || charset == "utf8" {
		// Already the native encoding; just reject invalid sequences.
		// The validator holds partial runes until the next read
		// completes them.
		return charset, transform.NewReader(resp.Body, encoding.UTF8Validator), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return charset, nil, &DecodeError{Encoding: charset, Err: err}
	}
	return charset, transform.NewReader(resp.Body, enc.NewDecoder()), nil
}
