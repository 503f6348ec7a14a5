// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

// cfimageworker starts an HTTP server that intercepts requests for remote
// images and rewrites them into delegated image-transformation calls.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/die-net/lrucache"
	"github.com/die-net/lrucache/twotier"
	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	"github.com/gregjones/httpcache/diskcache"
	rediscache "github.com/gregjones/httpcache/redis"
	"github.com/peterbourgon/diskv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CyberBrown/cfimageworker"
	"github.com/CyberBrown/cfimageworker/internal/envy"
)

const defaultMemorySize = 100

var addr = flag.String("addr", "localhost:8080", "TCP address to listen on")
var allowedOrigin = flag.String("allowedOrigin", "", "URL prefix that target images must start with")
var userAgent = flag.String("userAgent", "cyberbrown/cfimageworker", "user-agent sent on delegated fetches when the client supplies none")
var verbose = flag.Bool("verbose", false, "print verbose logging messages")
var cache tieredCache

func init() {
	flag.Var(&cache, "cache", "location to cache delegate responses (memory, file path, or redis URL)")
}

func main() {
	envy.Parse("CFIMAGEWORKER")
	flag.Parse()

	p := cfimageworker.NewProxy(nil, cache.Cache)
	p.AllowedOrigin = *allowedOrigin
	p.Verbose = *verbose

	handler := withUserAgent(p, *userAgent)

	r := mux.NewRouter().SkipClean(true).UseEncodedPath()
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/").Handler(handler)

	server := &http.Server{
		Addr:    *addr,
		Handler: r,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("cfimageworker listening on %s\n", server.Addr)
	log.Fatal(server.ListenAndServe())
}

// withUserAgent fills in a default User-Agent for clients that send none,
// so origin servers can identify delegated fetches.
func withUserAgent(h http.Handler, agent string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if agent != "" && r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", agent)
		}
		h.ServeHTTP(w, r)
	})
}

// tieredCache allows specifying multiple caches via flags, which will
// create tiered caches using the twotier package.
type tieredCache struct {
	cfimageworker.Cache
}

func (tc *tieredCache) String() string {
	return fmt.Sprint(*tc)
}

func (tc *tieredCache) Set(value string) error {
	for _, v := range strings.Fields(value) {
		c, err := parseCache(v)
		if err != nil {
			return err
		}

		if tc.Cache == nil {
			tc.Cache = c
		} else {
			tc.Cache = twotier.New(tc.Cache, c)
		}
	}
	return nil
}

// parseCache parses c and returns the specified Cache implementation.
func parseCache(c string) (cfimageworker.Cache, error) {
	if c == "" {
		return nil, nil
	}

	if c == "memory" {
		c = fmt.Sprintf("memory:%d", defaultMemorySize)
	}

	u, err := url.Parse(c)
	if err != nil {
		return nil, fmt.Errorf("error parsing cache flag: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return lruCache(u.Opaque)
	case "redis":
		conn, err := redis.DialURL(u.String(), redis.DialPassword(os.Getenv("REDIS_PASSWORD")))
		if err != nil {
			return nil, err
		}
		return rediscache.NewWithClient(conn), nil
	case "file":
		return diskCache(u.Path), nil
	default:
		return diskCache(c), nil
	}
}

// lruCache creates an LRU Cache with the specified options of the form
// "maxSize:maxAge".  maxSize is specified in megabytes, maxAge is a duration.
func lruCache(options string) (*lrucache.LruCache, error) {
	parts := strings.SplitN(options, ":", 2)
	size, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, err
	}

	var age time.Duration
	if len(parts) > 1 {
		age, err = time.ParseDuration(parts[1])
		if err != nil {
			return nil, err
		}
	}

	return lrucache.New(size*1e6, int64(age.Seconds())), nil
}

func diskCache(path string) *diskcache.Cache {
	d := diskv.New(diskv.Options{
		BasePath: path,

		// For file "c0ffee", store file as "c0/ff/c0ffee"
		Transform: func(s string) []string { return []string{s[0:2], s[2:4]} },
	})
	return diskcache.NewWithDiskv(d)
}
