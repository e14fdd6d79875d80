package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var brWriterPool = sync.Pool{
	New: func() interface{} {
		return brotli.NewWriter(nil)
	},
}

type brotliResponseWriter struct {
	http.ResponseWriter
	w           *brotli.Writer
	wroteHeader bool
	compress    bool
}

func (w *brotliResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	// Only successful text responses are worth compressing; 204/304 must
	// not carry a body or an encoding.
	ct := w.Header().Get("Content-Type")
	if code != http.StatusOK || w.Header().Get("Content-Encoding") != "" || !compressible(ct) {
		w.ResponseWriter.WriteHeader(code)
		return
	}

	w.compress = true
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "br")
	w.Header().Add("Vary", "Accept-Encoding")
	w.ResponseWriter.WriteHeader(code)
}

func (w *brotliResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(b)
	}
	return w.w.Write(b)
}

func (w *brotliResponseWriter) Flush() {
	if w.compress {
		w.w.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func compressible(contentType string) bool {
	for _, prefix := range []string{"text/", "application/json", "application/javascript", "image/svg"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// Brotli compresses rendered views for clients that accept br.
func Brotli(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
			next.ServeHTTP(w, r)
			return
		}

		bw := brWriterPool.Get().(*brotli.Writer)
		defer brWriterPool.Put(bw)
		bw.Reset(w)

		brw := &brotliResponseWriter{ResponseWriter: w, w: bw}
		next.ServeHTTP(brw, r)

		if brw.compress {
			bw.Close()
		}
	})
}
