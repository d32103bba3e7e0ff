/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package middleware

import (
	"bytes"
	"context"
	"net/http"

	"vailethchat/internal/nlog"
	"vailethchat/internal/repository"

	"gorm.io/gorm"
)

// Beginner opens the transaction of a request
type Beginner interface {
	Begin(ctx context.Context) (*gorm.DB, error)
}

// bufferedWriter holds the response back until the transaction outcome is known
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) flush(w http.ResponseWriter) {
	for k, v := range b.header {
		w.Header()[k] = v
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	w.Write(b.body.Bytes())
}

// Transaction runs every request inside one database transaction.
// It commits when the handler answered below 500 and rolls back otherwise.
// When the commit itself fails the buffered response is dropped and onFailure answers instead.
func Transaction(db Beginner, logger nlog.Logger, onFailure http.HandlerFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tx, err := db.Begin(r.Context())
			if err != nil {
				logger.Logf("Could not begin transaction: %v", err)
				onFailure(w, r)
				return
			}

			done := false
			defer func() {
				if !done {
					tx.Rollback()
				}
			}()

			buf := newBufferedWriter()
			next.ServeHTTP(buf, r.WithContext(repository.WithTx(r.Context(), tx)))

			if buf.status >= http.StatusInternalServerError {
				tx.Rollback()
				done = true
				buf.flush(w)
				return
			}

			done = true
			if err := tx.Commit().Error; err != nil {
				logger.Logf("Commit failed for %s %s: %v", r.Method, r.URL.Path, err)
				tx.Rollback()
				onFailure(w, r)
				return
			}
			buf.flush(w)
		})
	}
}
