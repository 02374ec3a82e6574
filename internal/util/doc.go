// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the parley application.
//
// String helpers handle UTF-8 safely: TruncateRunes cuts by character
// count, TruncateWidth and StringWidth account for double-width (CJK)
// characters via go-runewidth.
//
// AtomicWriteFile writes files crash-safely (temp file + fsync + rename)
// and backs the config save path.
//
//	display := util.TruncateRunes(longText, 50)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
