package remote

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeContent encodes file content for the Contents API: UTF-8 bytes
// to standard base64. Going through the raw bytes (never a char-per-byte
// mapping) keeps multi-byte text such as accented Portuguese intact.
func EncodeContent(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeContent decodes a base64 content field into its original bytes.
// The API wraps the payload with embedded newlines, which are stripped
// before decoding.
func DecodeContent(encoded string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, encoded)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 content: %w", err)
	}
	return data, nil
}
