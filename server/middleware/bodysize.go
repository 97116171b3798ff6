package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/ssecast/errors"
	"github.com/kbukum/ssecast/util"
)

const defaultMaxBodySize = 1024 * 1024 // 1MB

// BodySizeLimit restricts request bodies to maxSize (e.g. "1MB", "64KB").
// Requests announcing a larger Content-Length are rejected up front with 413;
// others fail on read once the limit is crossed.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeError(w, apperrors.PayloadTooLarge(size))
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, size)
			}
			next.ServeHTTP(w, r)
		})
	}
}
