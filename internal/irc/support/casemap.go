package support

import "strings"

// ToLowerASCII folds A-Z only
func ToLowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// ToLowerRFC1459 folds A-Z plus []\~ to {}|^
func ToLowerRFC1459(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '[':
			return '{'
		case r == ']':
			return '}'
		case r == '\\':
			return '|'
		case r == '~':
			return '^'
		}
		return r
	}, s)
}

// ToLowerStrictRFC1459 is rfc1459 without the ~ to ^ mapping
func ToLowerStrictRFC1459(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '[':
			return '{'
		case r == ']':
			return '}'
		case r == '\\':
			return '|'
		}
		return r
	}, s)
}

// FoldFunc returns the casefolding function for a CASEMAPPING value.
// Unknown mappings fall back to rfc1459.
func FoldFunc(mapping string) func(string) string {
	switch strings.ToLower(mapping) {
	case "ascii":
		return ToLowerASCII
	case "strict-rfc1459", "rfc1459-strict":
		return ToLowerStrictRFC1459
	}
	return ToLowerRFC1459
}

// EqualFold compares two names under a CASEMAPPING
func EqualFold(mapping, a, b string) bool {
	fold := FoldFunc(mapping)
	return fold(a) == fold(b)
}
