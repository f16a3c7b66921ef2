package auth

import (
	"regexp"
	"strings"
)

var requestLineRe = regexp.MustCompile(`(?m)^GET /\?(\S*) `)

// ParseRawQuery extracts the query parameters from the request line of a raw
// HTTP request.
//
// Keys are case-sensitive and the first occurrence of a key wins. A pair
// without "=" yields the key with an empty value, empty pairs are skipped.
// Values are returned exactly as sent, without URL decoding.
func ParseRawQuery(raw []byte) (map[string]string, error) {
	m := requestLineRe.FindSubmatch(raw)
	if m == nil {
		return nil, &ParseError{Reason: "no GET request line with a query string"}
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(string(m[1]), "&") {
		if pair == "" {
			continue
		}

		key, val, _ := strings.Cut(pair, "=")
		if _, ok := params[key]; ok {
			continue
		}
		params[key] = val
	}

	return params, nil
}
