// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the orgrag backend. It covers the
// conversation endpoints (list, create, fetch, send), document sources
// (list, upload), direct chat with optional streaming, and health/stats.
//
// Every operation takes a context and is attempted exactly once; the caller
// owns retry policy. Failures surface as *TransportError (request or server
// failure, with a user-displayable detail message), *DecodeError (response
// body unusable), or ErrCancelled (context cancelled mid-stream).
package api
