package openrouter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedagoplay/internal/common/errors"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short kept", in: "  {}  ", n: 10, want: "{}"},
		{name: "ascii cut", in: "abcdef", n: 3, want: "abc..."},
		{name: "cut inside two-byte rune", in: "aé", n: 2, want: "a..."},
		{name: "cut inside emoji", in: "ab🎉cd", n: 4, want: "ab..."},
		{name: "cut on rune boundary", in: "ab🎉cd", n: 6, want: "ab🎉..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestReadBuffered_TruncatedBodyStaysValidUTF8(t *testing.T) {
	body := `{"choices":[{"message":{"content":"` + strings.Repeat("é", 600)

	_, err := readBuffered(strings.NewReader(body))

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnexpectedFormat, KindOf(err))
	details := errors.Normalize(err).Details
	assert.True(t, utf8.ValidString(details))
	assert.True(t, strings.HasSuffix(details, "..."))
}
