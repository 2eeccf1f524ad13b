package api

import (
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	cacheExpiration      = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Minute
)

type cachedResponse struct {
	statusCode int
	header     http.Header
	body       []byte
}

type responseCache struct {
	entries *gocache.Cache
}

func newResponseCache() *responseCache {
	return &responseCache{
		entries: gocache.New(cacheExpiration, cacheCleanupInterval),
	}
}

func (c *responseCache) Get(key string) (*cachedResponse, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}

	resp, ok := v.(*cachedResponse)
	return resp, ok
}

func (c *responseCache) Set(key string, resp *cachedResponse) {
	c.entries.SetDefault(key, resp)
}

func (c *responseCache) Flush() {
	c.entries.Flush()
}

// captureWriter records the response so it can be replayed from cache.
type captureWriter struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (w *captureWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

// cacheMiddleware serves successful GET responses from an in-memory
// cache keyed by request URL. Anything but a 200 passes through
// uncached.
func (s *NaviGreatApp) cacheMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next(w, r)
			return
		}

		key := r.URL.RequestURI()
		if cached, ok := s.cache.Get(key); ok {
			for k, vals := range cached.header {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
			w.WriteHeader(cached.statusCode)
			if _, err := w.Write(cached.body); err != nil {
				s.log.Printf("write cached response: %v", err)
			}
			return
		}

		cw := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(cw, r)

		if cw.statusCode == http.StatusOK {
			s.cache.Set(key, &cachedResponse{
				statusCode: cw.statusCode,
				header:     cw.Header().Clone(),
				body:       cw.body,
			})
		}
	}
}
