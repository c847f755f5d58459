package http

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "json body is compacted",
			body: "{\n  \"error\": {\"message\": \"Rate limit\", \"code\": 429}\n}",
			want: `{"error":{"code":429,"message":"Rate limit"}}`,
		},
		{
			name: "plain text kept",
			body: "  upstream unavailable\n",
			want: "upstream unavailable",
		},
		{
			name: "empty body",
			body: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorDetail(io.NopCloser(strings.NewReader(tt.body))))
		})
	}
}

func TestErrorDetail_NilBody(t *testing.T) {
	assert.Equal(t, "", ErrorDetail(nil))
}

func TestNewClient_NoOverallTimeout(t *testing.T) {
	c := NewClient(0)
	assert.Zero(t, c.Timeout)
	assert.NotNil(t, c.Transport)
}
