package services

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice reads a VND amount typed with '.' thousands separators,
// e.g. "400.000". An empty string is 0.
func ParsePrice(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	text = strings.ReplaceAll(text, ".", "")
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("services: parse price %q: %w", text, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("services: parse price %q: negative amount", text)
	}
	return v, nil
}

// FormatPrice renders v with '.' thousands separators.
func FormatPrice(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
