// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

package cfimageworker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeDelegate records the outgoing request it receives and replays a
// canned response or error.
type fakeDelegate struct {
	resp   *http.Response
	err    error
	called bool
	got    *OutgoingImageRequest
}

func (d *fakeDelegate) Transform(_ context.Context, req *OutgoingImageRequest) (*http.Response, error) {
	d.called = true
	d.got = req
	if d.err != nil {
		return nil, d.err
	}
	return d.resp, nil
}

func imageResponse(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func serve(p *Proxy, target string, header map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", target, nil)
	for key, value := range header {
		r.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	p.ServeHTTP(w, r)
	return w
}

func TestProxy_Rejections(t *testing.T) {
	tests := []struct {
		url    string
		status int
		body   string
	}{
		{
			"/",
			http.StatusBadRequest,
			"Please provide an image URL in the `url` query parameter.",
		},
		{
			"/?url=https://evil.example/cat.jpg",
			http.StatusForbidden,
			"Not an allowed origin.",
		},
		{
			"/?url=https://solampio.com/cat.jpg&width=banana",
			http.StatusBadRequest,
			`Invalid value for query parameter "width".`,
		},
	}

	for _, tt := range tests {
		delegate := new(fakeDelegate)
		p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}

		w := serve(p, tt.url, nil)
		if w.Code != tt.status {
			t.Errorf("request %q returned status %d, want %d", tt.url, w.Code, tt.status)
		}
		if got := strings.TrimSuffix(w.Body.String(), "\n"); got != tt.body {
			t.Errorf("request %q returned body %q, want %q", tt.url, got, tt.body)
		}
		if delegate.called {
			t.Errorf("request %q invoked the delegate", tt.url)
		}
	}
}

func TestProxy_Success(t *testing.T) {
	header := make(http.Header)
	header.Set("Content-Type", "image/webp")
	header.Set("Cache-Control", "no-store") // must be overwritten

	delegate := &fakeDelegate{resp: imageResponse(http.StatusOK, header, "image-bytes")}
	p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}

	w := serve(p, "/?url=https://solampio.com/cat.jpg", map[string]string{
		"Accept": "image/webp,*/*",
	})

	if w.Code != http.StatusOK {
		t.Errorf("proxy returned status %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "image-bytes" {
		t.Errorf("proxy returned body %q, want %q", got, "image-bytes")
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=31536000" {
		t.Errorf("proxy returned Cache-Control %q, want %q", got, "public, max-age=31536000")
	}
	if got := w.Header().Get("Content-Type"); got != "image/webp" {
		t.Errorf("proxy returned Content-Type %q, want %q", got, "image/webp")
	}

	if !delegate.called {
		t.Fatal("delegate was not invoked")
	}
	if delegate.got.Target != "https://solampio.com/cat.jpg" {
		t.Errorf("delegate received target %q, want %q", delegate.got.Target, "https://solampio.com/cat.jpg")
	}
	want := Options{Fit: FitScaleDown, Width: 800, Quality: 85, Format: FormatWebP}
	if delegate.got.Options != want {
		t.Errorf("delegate received options %v, want %v", delegate.got.Options, want)
	}
}

func TestProxy_OptionOverrides(t *testing.T) {
	delegate := &fakeDelegate{resp: imageResponse(http.StatusOK, nil, "")}
	p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}

	serve(p, "/?url=https://solampio.com/cat.jpg&width=300&height=300&quality=90&fit=cover", map[string]string{
		"Accept": "image/avif,image/webp",
	})

	want := Options{Fit: FitCover, Width: 300, Height: 300, Quality: 90, Format: FormatAVIF}
	if delegate.got.Options != want {
		t.Errorf("delegate received options %v, want %v", delegate.got.Options, want)
	}
}

// The negotiated format must always be concrete by the time the delegate
// runs, even when the client sends no Accept header.
func TestProxy_FormatAlwaysConcrete(t *testing.T) {
	delegate := &fakeDelegate{resp: imageResponse(http.StatusOK, nil, "")}
	p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}

	serve(p, "/?url=https://solampio.com/cat.jpg", nil)

	if delegate.got.Options.Format != FormatJPEG {
		t.Errorf("delegate received format %v, want %v", delegate.got.Options.Format, FormatJPEG)
	}
}

func TestProxy_HeadersForwarded(t *testing.T) {
	delegate := &fakeDelegate{resp: imageResponse(http.StatusOK, nil, "")}
	p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}

	serve(p, "/?url=https://solampio.com/cat.jpg", map[string]string{
		"Accept":        "image/webp",
		"If-None-Match": `"c0ffee"`,
	})

	if got := delegate.got.Header.Get("If-None-Match"); got != `"c0ffee"` {
		t.Errorf("delegate received If-None-Match %q, want %q", got, `"c0ffee"`)
	}
}

// Non-200 delegate responses pass through verbatim, with the cache
// directive still applied.
func TestProxy_StatusPassthrough(t *testing.T) {
	delegate := &fakeDelegate{resp: imageResponse(http.StatusNotFound, nil, "not found")}
	p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}

	w := serve(p, "/?url=https://solampio.com/missing.jpg", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("proxy returned status %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=31536000" {
		t.Errorf("proxy returned Cache-Control %q, want %q", got, "public, max-age=31536000")
	}
}

func TestProxy_DelegateFailure(t *testing.T) {
	tests := []error{
		&RequestError{Kind: KindDelegateFailure, Err: errors.New("dial tcp: connection refused")},
		errors.New("boom"),
	}

	for _, err := range tests {
		delegate := &fakeDelegate{err: err}
		p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}

		w := serve(p, "/?url=https://solampio.com/cat.jpg", nil)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("delegate error %v: proxy returned status %d, want %d", err, w.Code, http.StatusInternalServerError)
		}
		if got := strings.TrimSuffix(w.Body.String(), "\n"); got != "Error processing image request." {
			t.Errorf("delegate error %v: proxy returned body %q, want %q", err, got, "Error processing image request.")
		}
	}
}

// Option resolution and format negotiation are pure functions of the
// request, so identical requests resolve identically every time.
func TestProxy_Idempotent(t *testing.T) {
	var got []Options
	for i := 0; i < 3; i++ {
		delegate := &fakeDelegate{resp: imageResponse(http.StatusOK, nil, "")}
		p := &Proxy{Delegate: delegate, AllowedOrigin: "https://solampio.com/"}
		serve(p, "/?url=https://solampio.com/cat.jpg&width=640&fit=contain", map[string]string{
			"Accept": "image/webp",
		})
		got = append(got, delegate.got.Options)
	}

	for i := 1; i < len(got); i++ {
		if got[i] != got[0] {
			t.Errorf("resolved options varied across identical requests: %v vs %v", got[i], got[0])
		}
	}
}

func TestNewProxy(t *testing.T) {
	p := NewProxy(nil, nil)
	if p.Delegate == nil {
		t.Fatal("NewProxy returned proxy with nil delegate")
	}
	if p.Defaults != DefaultOptions() {
		t.Errorf("NewProxy set defaults %v, want %v", p.Defaults, DefaultOptions())
	}
}
