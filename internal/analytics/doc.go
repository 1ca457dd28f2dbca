// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analytics records usage events and ships them to the backend.
//
// Events are spooled durably in a local SQLite database and flushed in
// batches on an interval. A failed flush leaves the batch spooled for the
// next pass, so nothing is lost to a flaky connection. Recording is off by
// default and gated by config; when disabled the Recorder is a no-op.
package analytics
