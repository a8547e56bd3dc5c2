package rediscache

import (
	"fmt"
	"strconv"
	"strings"
)

// Cache values are text. Integers are stored base 10 and booleans as
// "true"/"false"; older writers used "True"/"False", which parseBool accepts.

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "t", "1":
		return true
	}
	return false
}

func parseInt(field, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("cached field %q is not an integer: %w", field, err)
	}
	return n, nil
}

// parseOptionalInt treats an absent field as zero.
func parseOptionalInt(field, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return parseInt(field, v)
}
