// internal/common/http/client.go
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 64 * 1024

// NewClient returns an *http.Client with a tuned transport and no overall
// timeout; callers bound each attempt through the request context so that
// streamed bodies are not cut off mid-read.
func NewClient(dialTimeout time.Duration) *http.Client {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: 0,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// DrainAndClose discards up to limit bytes so the connection can be reused.
func DrainAndClose(rc io.ReadCloser, limit int64) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, limit))
	rc.Close()
}

// ErrorDetail reads a failed response body and returns its JSON form
// compacted when it parses, otherwise the raw text.
func ErrorDetail(rc io.ReadCloser) string {
	if rc == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(rc, maxErrorBody))
	DrainAndClose(rc, 1024)
	if err != nil {
		return fmt.Sprintf("(failed to read error body: %v)", err)
	}

	var doc interface{}
	if json.Unmarshal(body, &doc) == nil {
		if compact, err := json.Marshal(doc); err == nil {
			return string(compact)
		}
	}
	return strings.TrimSpace(string(body))
}
