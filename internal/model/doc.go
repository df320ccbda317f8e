// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the client-side data structures for the orgrag
// chat client: conversations, messages, knowledge sources, and query modes.
//
// The JSON tags on these types match the backend wire format, so API
// responses decode directly into them. All types are plain values; mutation
// rules (append-only message logs, server-owned titles) are enforced by the
// session manager, not here.
package model
