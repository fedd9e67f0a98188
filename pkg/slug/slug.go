package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Dotted capital I must go before lowercasing, which would otherwise leave a
// combining dot behind.
var upperReplacer = strings.NewReplacer("İ", "i")

var letterReplacer = strings.NewReplacer(
	// Albanian
	"ë", "e", "ç", "c",
	// Turkish
	"ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	// Common Latin accents in antique provenance names
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"é", "e", "è", "e", "ê", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u",
	"ñ", "n", "ß", "ss", "æ", "ae", "œ", "oe",
	"&", " and ",
)

// Generate returns a lowercase, hyphen-separated ASCII slug for name.
//
//	"Antique Albanian Chest"  -> "antique-albanian-chest"
//	"Qilim i Vjetër Shqiptar" -> "qilim-i-vjeter-shqiptar"
//	"Çanta & Kilim"           -> "canta-and-kilim"
func Generate(name string) string {
	s := upperReplacer.Replace(strings.TrimSpace(name))
	s = letterReplacer.Replace(strings.ToLower(s))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
