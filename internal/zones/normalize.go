package zones

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fillerTokens carry no location signal in Indonesian (and English) addresses.
var fillerTokens = map[string]bool{
	"jalan": true, "jl": true, "jln": true, "street": true, "road": true,
	"rt": true, "rw": true, "no": true, "nomor": true, "gang": true, "gg": true,
	"blok": true, "district": true, "subdistrict": true,
	"kecamatan": true, "kec": true, "kelurahan": true, "kel": true,
	"kota": true, "kabupaten": true, "kab": true, "desa": true,
}

// Normalized is an address reduced to comparable tokens.
type Normalized struct {
	Text        string
	Tokens      []string
	PostalCodes []string
}

// RemoveDiacritics strips combining marks (é -> e).
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Normalize lowercases, strips diacritics, turns punctuation into spaces,
// extracts 5-digit postal codes, then drops filler tokens and any token
// containing a digit (house numbers, "rt05").
func Normalize(address string) Normalized {
	s := strings.ToLower(RemoveDiacritics(address))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	var out Normalized
	for _, tok := range strings.Fields(s) {
		if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			if len(tok) == 5 && isDigits(tok) {
				out.PostalCodes = append(out.PostalCodes, tok)
			}
			continue
		}
		if fillerTokens[tok] {
			continue
		}
		out.Tokens = append(out.Tokens, tok)
	}
	out.Text = strings.Join(out.Tokens, " ")
	return out
}

// NormalizeKeyword applies the same reduction to a zone keyword.
func NormalizeKeyword(keyword string) string {
	return Normalize(keyword).Text
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
