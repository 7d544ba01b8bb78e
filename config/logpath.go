package config

import (
	"os"
	"strings"
)

const DefaultLogPath = "/var/log/dynhost.log"

// ReadLogPath returns the log destination named in the file at path, reduced
// to the characters [A-Za-z0-9._,/-]. It falls back to DefaultLogPath when the
// file cannot be read or holds nothing usable.
func ReadLogPath(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultLogPath, err
	}

	p := SanitizeLogPath(string(b))
	if p == "" {
		return DefaultLogPath, nil
	}
	return p, nil
}

func SanitizeLogPath(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-', r == ',', r == '/':
			return r
		}
		return -1
	}, s)
}
