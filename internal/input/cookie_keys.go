/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package input

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// deriveCookieKeys expands the configured secret into the signing and encryption keys of the session cookie
func deriveCookieKeys(secret string) (hashKey, blockKey []byte, err error) {
	hashKey = make([]byte, 64)
	if _, err = io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("vaileth session hash")), hashKey); err != nil {
		return nil, nil, err
	}
	blockKey = make([]byte, 32)
	if _, err = io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("vaileth session block")), blockKey); err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}
