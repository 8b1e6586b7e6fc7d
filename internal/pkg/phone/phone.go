// Package phone normalizes and formats the phone numbers used as end-user identities.
package phone

import "strings"

var stripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Normalize removes common separators and ensures a leading '+'.
// "996 700 123-456" becomes "+996700123456". Empty input stays empty.
func Normalize(raw string) string {
	p := stripper.Replace(strings.TrimSpace(raw))
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "+") {
		p = "+" + p
	}
	return p
}

// Format renders a normalized number the way the given calling code is usually written.
// Numbers that do not match a known shape are returned unchanged.
func Format(normalized string) string {
	switch {
	case len(normalized) == 13 && strings.HasPrefix(normalized, "+996"):
		return normalized[:4] + " " + normalized[4:7] + " " + normalized[7:10] + " " + normalized[10:]
	case len(normalized) == 12 && strings.HasPrefix(normalized, "+1"):
		return "+1 (" + normalized[2:5] + ") " + normalized[5:8] + "-" + normalized[8:]
	}
	return normalized
}
