package interval

import "golang.org/x/text/unicode/norm"

// NormalizeName returns the NFC form of an interval name. Name indexes and
// named lookups compare normalized names so that visually identical names
// built from different code point sequences refer to the same interval.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// SameName reports whether two interval names are equal after normalization.
func SameName(a, b string) bool {
	if a == b {
		return true
	}
	return NormalizeName(a) == NormalizeName(b)
}
