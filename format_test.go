// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

package cfimageworker

import "testing"

func TestNegotiateFormat(t *testing.T) {
	tests := []struct {
		accept string
		want   Format
	}{
		// absent or unhelpful header falls back to jpeg
		{"", FormatJPEG},
		{"*/*", FormatJPEG},
		{"image/png,image/gif", FormatJPEG},

		{"image/webp", FormatWebP},
		{"image/avif", FormatAVIF},

		// avif wins over webp regardless of order
		{"image/avif,image/webp,image/*", FormatAVIF},
		{"image/webp,image/avif", FormatAVIF},

		// typical browser Accept header
		{"text/html,application/xhtml+xml,image/avif,image/webp,*/*;q=0.8", FormatAVIF},
		{"text/html,image/webp,*/*;q=0.8", FormatWebP},
	}

	for _, tt := range tests {
		if got := NegotiateFormat(tt.accept); got != tt.want {
			t.Errorf("NegotiateFormat(%q) returned %v, want %v", tt.accept, got, tt.want)
		}
	}
}
