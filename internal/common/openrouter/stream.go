package openrouter

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"

	"pedagoplay/internal/common/errors"
)

// readStream consumes an SSE body, returning the concatenated content deltas.
// Each delta is handed to sink before the next line is read.
func readStream(body io.Reader, sink StreamSink) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var content strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // keep-alives and partial frames
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content.WriteString(delta)
		if sink != nil {
			sink(delta)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.NewTransportFailureError(err)
	}
	return content.String(), nil
}

// readBuffered decodes a non-streaming completion envelope.
func readBuffered(body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", errors.NewTransportFailureError(err)
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", errors.NewUnexpectedFormatError(truncate(string(raw), 512), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", errors.NewUnexpectedFormatError(truncate(string(raw), 512), nil)
	}
	return *resp.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// back up to a rune boundary
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
