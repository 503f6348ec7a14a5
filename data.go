// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

package cfimageworker

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Fit describes how an image is resized relative to the requested
// dimensions.
type Fit string

const (
	FitScaleDown Fit = "scale-down"
	FitContain   Fit = "contain"
	FitCover     Fit = "cover"
	FitCrop      Fit = "crop"
	FitPad       Fit = "pad"
)

func validFit(s string) bool {
	switch Fit(s) {
	case FitScaleDown, FitContain, FitCover, FitCrop, FitPad:
		return true
	}
	return false
}

// Format is an image output encoding. FormatAuto is only ever a transient
// initial value; content negotiation replaces it with a concrete encoding
// before the delegated call is issued.
type Format string

const (
	FormatAuto Format = "auto"
	FormatAVIF Format = "avif"
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
)

// Options specifies the transformation directives attached to the delegated
// fetch/transform call. The JSON encoding is the directive bundle the
// transform service expects: fit, width, quality, and format are always
// present, height only when set.
type Options struct {
	Fit     Fit    `json:"fit"`
	Width   int    `json:"width"`
	Height  int    `json:"height,omitempty"`
	Quality int    `json:"quality"`
	Format  Format `json:"format"`
}

// DefaultOptions returns the options applied when a request carries no
// overrides. Returned by value so no mutable record is ever shared across
// requests.
func DefaultOptions() Options {
	return Options{
		Fit:     FitScaleDown,
		Width:   800,
		Quality: 85,
		Format:  FormatAuto,
	}
}

func (o Options) String() string {
	return fmt.Sprintf("%dx%d,%s,q%d,%s", o.Width, o.Height, o.Fit, o.Quality, o.Format)
}

// ErrorKind classifies pipeline failures so each stage's rejection stays
// distinguishable until it is folded into the client-facing response.
type ErrorKind int

const (
	// KindMissingTarget reports a request with no url query parameter.
	KindMissingTarget ErrorKind = iota

	// KindForbiddenOrigin reports a target URL outside the allowed origin.
	KindForbiddenOrigin

	// KindInvalidOption reports a malformed numeric query override.
	KindInvalidOption

	// KindDelegateFailure reports a failed delegated fetch/transform call.
	KindDelegateFailure

	// KindUnexpected covers everything else.
	KindUnexpected
)

// RequestError reports a pipeline failure. Kind selects the status code and
// the literal client-facing body; Err holds the underlying cause, which is
// logged but never exposed to the client.
type RequestError struct {
	Kind  ErrorKind
	Param string // offending query parameter, for KindInvalidOption
	Err   error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindMissingTarget:
		return "missing url query parameter"
	case KindForbiddenOrigin:
		return "target URL is not for an allowed origin"
	case KindInvalidOption:
		if e.Err != nil {
			return fmt.Sprintf("invalid %s parameter: %v", e.Param, e.Err)
		}
		return fmt.Sprintf("invalid %s parameter", e.Param)
	case KindDelegateFailure:
		return fmt.Sprintf("delegated transform failed: %v", e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unexpected error"
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status for the error kind.
func (e *RequestError) StatusCode() int {
	switch e.Kind {
	case KindMissingTarget, KindInvalidOption:
		return http.StatusBadRequest
	case KindForbiddenOrigin:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the literal client-facing body for the error.
func (e *RequestError) Message() string {
	switch e.Kind {
	case KindMissingTarget:
		return "Please provide an image URL in the `url` query parameter."
	case KindForbiddenOrigin:
		return "Not an allowed origin."
	case KindInvalidOption:
		return fmt.Sprintf("Invalid value for query parameter %q.", e.Param)
	default:
		return "Error processing image request."
	}
}

// ValidateTarget extracts the remote image URL from the request and checks
// it against the allowed origin prefix. The check is a plain string prefix
// match, not a URL-authority comparison. An empty prefix allows any target.
func ValidateTarget(r *http.Request, allowedOrigin string) (string, error) {
	target := r.URL.Query().Get("url")
	if target == "" {
		return "", &RequestError{Kind: KindMissingTarget}
	}
	if !strings.HasPrefix(target, allowedOrigin) {
		return "", &RequestError{Kind: KindForbiddenOrigin}
	}
	return target, nil
}

// ResolveOptions builds a complete Options record from defaults plus query
// overrides. The defaults value is never mutated; a fresh record is
// returned per call. Malformed or out-of-range numeric values are rejected
// with KindInvalidOption. Unrecognized fit values are ignored and the
// default fit is retained.
func ResolveOptions(defaults Options, query url.Values) (Options, error) {
	o := defaults

	if v := query.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Options{}, &RequestError{Kind: KindInvalidOption, Param: "width", Err: err}
		}
		o.Width = n
	}
	if v := query.Get("height"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Options{}, &RequestError{Kind: KindInvalidOption, Param: "height", Err: err}
		}
		o.Height = n
	}
	if v := query.Get("quality"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return Options{}, &RequestError{Kind: KindInvalidOption, Param: "quality", Err: err}
		}
		o.Quality = n
	}
	if v := query.Get("fit"); validFit(v) {
		o.Fit = Fit(v)
	}

	return o, nil
}
