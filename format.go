// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

package cfimageworker

import "strings"

const (
	mimeAVIF = "image/avif"
	mimeWebP = "image/webp"
)

// NegotiateFormat selects the output encoding advertised by the client's
// Accept header. AVIF wins over WebP; anything else, including an absent
// header, falls back to JPEG. Exactly one of the three concrete formats is
// returned, never FormatAuto.
func NegotiateFormat(accept string) Format {
	if strings.Contains(accept, mimeAVIF) {
		return FormatAVIF
	}
	if strings.Contains(accept, mimeWebP) {
		return FormatWebP
	}
	return FormatJPEG
}
