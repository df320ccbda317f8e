// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest auto-uploads documents from a watched directory to the
// backend's ingestion endpoint. A SQLite manifest records content hashes of
// shipped files so restarts and repeated events do not duplicate uploads;
// uploads are debounced and rate limited.
package ingest
