package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into base + combining mark.
var special = strings.NewReplacer(
	"đ", "d", "Đ", "d",
	"ı", "i", "ø", "o", "ß", "ss", "æ", "ae", "œ", "oe", "ł", "l",
)

// Generate creates a URL-friendly slug from name. Diacritics are stripped,
// so Vietnamese and other Latin-script titles map to plain ASCII.
//
//	"Vịnh Hạ Long 3 ngày"  -> "vinh-ha-long-3-ngay"
//	"Đà Lạt – Mộng Mơ!"   -> "da-lat-mong-mo"
func Generate(name string) string {
	s := special.Replace(strings.TrimSpace(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithSuffix appends a short disambiguator, used when a slug collides.
func WithSuffix(slug, suffix string) string {
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
