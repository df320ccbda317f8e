// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the client-side chat session state and the
// operations that mutate it: loading and selecting conversations, sending
// messages, toggling document sources, switching query modes, and
// uploading documents.
//
// The manager is safe for concurrent use. Network calls run outside its
// lock, so UI accessors never block on I/O. One send at a time: while a
// submission is in flight, further sends return ErrBusy. Refresh failures
// keep the previous data rather than blanking the view.
package session
