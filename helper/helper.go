package helper

import (
	"strings"

	"golang.org/x/net/idna"
)

// IsIPv4 reports whether s is four dot-separated groups of one to three
// digits, each at most 255. Leading zeros such as "001" are accepted.
func IsIPv4(s string) bool {
	if len(s) < 7 || len(s) > 15 {
		return false
	}

	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return false
	}

	for _, o := range octets {
		if len(o) == 0 || len(o) > 3 {
			return false
		}
		n := 0
		for i := 0; i < len(o); i++ {
			if o[i] < '0' || o[i] > '9' {
				return false
			}
			n = n*10 + int(o[i]-'0')
		}
		if n > 255 {
			return false
		}
	}

	return true
}

// NormalizeDomain converts an internationalized host name to its ASCII form.
func NormalizeDomain(domain string) (string, error) {
	return idna.Lookup.ToASCII(strings.TrimSpace(domain))
}
