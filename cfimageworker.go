// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

// Package cfimageworker provides an edge request interceptor that rewrites
// requests for remote images into delegated calls against an external image
// transformation service.  For typical use of creating and using a Proxy,
// see cmd/cfimageworker/main.go.
package cfimageworker

import (
	"errors"
	"io"
	"net/http"
	"time"

	aia "github.com/fcjr/aia-transport-go"
	"github.com/golang/glog"
	"github.com/gregjones/httpcache"
)

// CacheControl is the directive forced onto every successful response,
// overwriting whatever the origin or the transform service set.
const CacheControl = "public, max-age=31536000"

// Proxy intercepts image requests. Each request runs a single linear
// pipeline: target validation, option resolution, format negotiation, the
// delegated fetch/transform call, and cache-header rewriting. The only
// state shared across requests is read-only configuration.
type Proxy struct {
	// Delegate performs the delegated fetch/transform call.
	Delegate Delegate

	// AllowedOrigin is the prefix a target URL must start with to be
	// proxied. An empty prefix allows all targets.
	AllowedOrigin string

	// Defaults are the transformation options applied before query
	// overrides. The zero value means DefaultOptions().
	Defaults Options

	// Verbose enables per-request logging.
	Verbose bool
}

// NewProxy constructs a new proxy. The provided http RoundTripper is used
// for delegated fetches; if nil, a transport that chases AIA intermediate
// certificates is used. If cache is nil, delegate responses are not cached.
func NewProxy(transport http.RoundTripper, cache Cache) *Proxy {
	if transport == nil {
		tr, err := aia.NewTransport()
		if err != nil {
			transport = http.DefaultTransport
		} else {
			transport = tr
		}
	}
	if cache == nil {
		cache = NopCache
	}

	client := new(http.Client)
	client.Transport = &httpcache.Transport{
		Transport:           transport,
		Cache:               cache,
		MarkCachedResponses: true,
	}

	return &Proxy{
		Delegate: &HTTPDelegate{Client: client},
		Defaults: DefaultOptions(),
	}
}

// ServeHTTP handles image requests.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/favicon.ico" {
		return // ignore favicon requests
	}

	start := time.Now()
	defer func() {
		httpRequestsResponseTime.Observe(time.Since(start).Seconds())
	}()

	target, err := ValidateTarget(r, p.AllowedOrigin)
	if err != nil {
		p.handleError(w, r, err)
		return
	}

	opts, err := ResolveOptions(p.defaults(), r.URL.Query())
	if err != nil {
		p.handleError(w, r, err)
		return
	}
	opts.Format = NegotiateFormat(r.Header.Get("Accept"))

	if p.Verbose {
		glog.Infof("request for image: %v (options: %v)", target, opts)
	}

	resp, err := p.Delegate.Transform(r.Context(), &OutgoingImageRequest{
		Target:  target,
		Method:  r.Method,
		Header:  r.Header,
		Body:    r.Body,
		Options: opts,
	})
	if err != nil {
		p.handleError(w, r, err)
		return
	}
	defer resp.Body.Close()

	finishResponse(w, resp)
}

func (p *Proxy) defaults() Options {
	if p.Defaults == (Options{}) {
		return DefaultOptions()
	}
	return p.Defaults
}

// handleError folds a pipeline failure into one of the fixed client-facing
// responses. Underlying error detail is logged, never exposed.
func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = &RequestError{Kind: KindUnexpected, Err: err}
	}

	switch reqErr.Kind {
	case KindMissingTarget:
		missingTargetCount.Inc()
	case KindForbiddenOrigin:
		forbiddenOriginCount.Inc()
	case KindInvalidOption:
		invalidOptionCount.Inc()
	case KindDelegateFailure:
		delegateErrorCount.Inc()
	}

	if reqErr.StatusCode() >= http.StatusInternalServerError {
		glog.Errorf("error processing request for %q: %v", r.URL, reqErr)
	} else if p.Verbose {
		glog.Infof("rejected request for %q: %v", r.URL, reqErr)
	}

	http.Error(w, reqErr.Message(), reqErr.StatusCode())
}

// finishResponse copies the delegate's status, headers, and body to w,
// overriding any origin cache policy with the long-lived directive.
func finishResponse(w http.ResponseWriter, resp *http.Response) {
	copyHeader(w.Header(), resp.Header)
	w.Header().Set("Cache-Control", CacheControl)
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// copyHeader copies all header values from src to dst.
func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
