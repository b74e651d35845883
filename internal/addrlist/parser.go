// Package addrlist parses, validates and renders RouterOS firewall
// address-list entries.
package addrlist

import (
	"fmt"
	"os"
	"strings"
)

// FileReadError is returned when the address source file cannot be read.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read address file %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// ReadAddressFile reads the file at path and returns its address tokens.
// No tokens are returned when the read fails.
func ReadAddressFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	return ParseAddresses(string(data)), nil
}

// ParseAddresses splits raw text into address tokens.
//
// Every line is split on commas and each segment is trimmed. Empty
// segments are dropped. Order is preserved and duplicates are kept.
func ParseAddresses(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")

	var tokens []string
	for _, line := range strings.Split(text, "\n") {
		for _, segment := range strings.Split(line, ",") {
			token := strings.TrimSpace(segment)
			if token == "" {
				continue
			}
			tokens = append(tokens, token)
		}
	}

	return tokens
}
