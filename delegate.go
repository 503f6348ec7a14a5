// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

package cfimageworker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// TransformOptionsHeader carries the JSON directive bundle on requests sent
// to the transform service.
const TransformOptionsHeader = "Image-Transform-Options"

// OutgoingImageRequest is the delegated fetch/transform call: the validated
// target URL plus the inbound request's method, headers, and body,
// forwarded unchanged, and the fully resolved transformation options.
type OutgoingImageRequest struct {
	Target  string
	Method  string
	Header  http.Header
	Body    io.Reader
	Options Options
}

// A Delegate performs the remote fetch-and-transform call. It is the
// pipeline's only network-bound operation; everything else is in-memory
// computation.
type Delegate interface {
	Transform(ctx context.Context, req *OutgoingImageRequest) (*http.Response, error)
}

// HTTPDelegate invokes an HTTP transform service by requesting the target
// URL directly, with the directive bundle attached as a request header the
// fronting transform layer understands.
type HTTPDelegate struct {
	// Client issues the outbound request. If nil, http.DefaultClient is
	// used. Wrap the transport in an httpcache.Transport to cache
	// delegate responses.
	Client *http.Client
}

// Transform implements the Delegate interface.
func (d *HTTPDelegate) Transform(ctx context.Context, req *OutgoingImageRequest) (*http.Response, error) {
	out, err := http.NewRequestWithContext(ctx, req.Method, req.Target, req.Body)
	if err != nil {
		return nil, &RequestError{Kind: KindDelegateFailure, Err: err}
	}

	for key, values := range req.Header {
		out.Header[key] = values
	}

	directives, err := json.Marshal(req.Options)
	if err != nil {
		return nil, &RequestError{Kind: KindDelegateFailure, Err: err}
	}
	out.Header.Set(TransformOptionsHeader, string(directives))

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(out)
	if err != nil {
		return nil, &RequestError{Kind: KindDelegateFailure, Err: err}
	}
	return resp, nil
}
