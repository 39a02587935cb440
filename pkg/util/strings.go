package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFloat parses decimal strings as sent by exchanges ("79600.01000000").
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float %q: %w", s, err)
	}
	return v, nil
}
