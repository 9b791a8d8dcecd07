package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// Gzip transparently decompresses gzip request bodies and compresses JSON
// responses for clients that accept it. Redirect responses carry no body
// worth compressing, so only the API surface benefits.
func Gzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			gzReader, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "Invalid gzip body", http.StatusBadRequest)
				return
			}
			defer gzReader.Close()
			r.Body = gzReader
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		grw := &gzipResponseWriter{ResponseWriter: w}
		defer grw.close()

		next.ServeHTTP(grw, r)
	})
}

// gzipResponseWriter defers the compression decision until the response
// Content-Type is known.
type gzipResponseWriter struct {
	http.ResponseWriter
	writer      io.Writer
	wroteHeader bool
}

func (grw *gzipResponseWriter) WriteHeader(statusCode int) {
	if !grw.wroteHeader {
		grw.wroteHeader = true
		contentType := grw.Header().Get("Content-Type")
		if strings.Contains(contentType, "application/json") {
			grw.Header().Set("Content-Encoding", "gzip")
			grw.writer = gzip.NewWriter(grw.ResponseWriter)
		}
	}
	grw.ResponseWriter.WriteHeader(statusCode)
}

func (grw *gzipResponseWriter) Write(b []byte) (int, error) {
	if !grw.wroteHeader {
		grw.WriteHeader(http.StatusOK)
	}
	if grw.writer != nil {
		return grw.writer.Write(b)
	}
	return grw.ResponseWriter.Write(b)
}

func (grw *gzipResponseWriter) close() {
	if gz, ok := grw.writer.(*gzip.Writer); ok {
		gz.Close()
	}
}
