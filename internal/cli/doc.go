// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the non-TUI command handlers for orgrag.

Two commands live here:

  - "orgrag ask" streams a single direct query against the document index
    to stdout. On a TTY the answer renders as markdown; piped it stays
    plain so scripts can consume it.

  - "orgrag chat" is a line-oriented REPL over stored conversations with
    liner history, for environments where the full TUI is unwanted.

Terminal helpers (TTY detection, width, NO_COLOR handling) back both
commands.
*/
package cli
