// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

// IntToString formats an integer without fmt, for hot render paths.
// Handles zero and negative values; math.MinInt64 is special-cased
// because its negation overflows.
func IntToString(n int) string {
	if n == 0 {
		return "0"
	}
	if n == -9223372036854775808 {
		return "-9223372036854775808"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	if negative {
		return "-" + string(digits)
	}
	return string(digits)
}
