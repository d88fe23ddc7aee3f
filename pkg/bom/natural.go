package bom

import "strings"

// NaturalCompare compares strings so that embedded numbers are ordered by
// value: "R2" < "R10", "U1" < "U1A" < "U2". Strings that compare equal
// chunk by chunk (e.g. "R01" and "R1") fall back to byte order, so the
// result is a total order.
func NaturalCompare(a, b string) int {
	ca, cb := splitNatural(a), splitNatural(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		var c int
		if isNumeric(x) && isNumeric(y) {
			c = compareDigits(x, y)
		} else {
			c = strings.Compare(x, y)
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(ca) < len(cb):
		return -1
	case len(ca) > len(cb):
		return 1
	}
	return strings.Compare(a, b)
}

// NaturalLess reports whether a sorts before b in natural order.
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}

// compareDigits compares two decimal digit strings by value without
// parsing, so arbitrarily long numbers cannot overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func splitNatural(s string) []string {
	var chunks []string
	start := 0
	for i := 1; i < len(s); i++ {
		if isDigit(s[i]) != isDigit(s[i-1]) {
			chunks = append(chunks, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		chunks = append(chunks, s[start:])
	}
	return chunks
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return len(s) > 0
}
