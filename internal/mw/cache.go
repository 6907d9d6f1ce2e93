package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// CacheResponses serves repeated GETs of the same path from an in-memory
// cache for the given TTL. Non-GET requests pass through untouched.
func CacheResponses(ttl time.Duration) gin.HandlerFunc {
	store := gocache.New(ttl, 2*ttl)
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if hit, ok := store.Get(key); ok {
			resp := hit.(cachedResponse)
			c.Data(resp.status, resp.contentType, resp.body)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if writer.Status() == http.StatusOK {
			store.Set(key, cachedResponse{
				status:      writer.Status(),
				contentType: writer.Header().Get("Content-Type"),
				body:        writer.buf.Bytes(),
			}, gocache.DefaultExpiration)
		}
	}
}
