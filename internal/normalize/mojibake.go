package normalize

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// replacementRune is what a UTF-8 decoder emits for a byte sequence it
// cannot interpret. Text containing one is treated as broken beyond repair
// and left unchanged; mojibake itself is detected by looksMangled.
const replacementRune = '�'

// RepairMojibake re-decodes text that looks like it was UTF-8 bytes
// mis-interpreted as Latin-1 (a common feed-parser failure mode), and passes
// everything else through unchanged. Idempotent: repair(repair(s)) == repair(s).
func RepairMojibake(s string) string {
	if !looksMangled(s) {
		return s
	}

	// Re-encode the mangled string back to the Latin-1 byte sequence it
	// actually was, then decode those bytes as UTF-8.
	encoder := charmap.ISO8859_1.NewEncoder()
	rawBytes, err := encoder.String(s)
	if err != nil {
		return s
	}
	if !isValidUTF8(rawBytes) {
		return s
	}
	repaired := rawBytes
	// Repairing must not introduce replacement characters of its own, and
	// must not regress an already-clean string (idempotence).
	if strings.ContainsRune(repaired, replacementRune) {
		return s
	}
	return repaired
}

// looksMangled detects the telltale pattern of Latin-1 text run through a
// UTF-8 decoder: a noticeable density of the Latin-1-supplement characters
// that typically show up as "Ã©", "â€™", "Â " in mis-decoded feed text.
func looksMangled(s string) bool {
	if s == "" {
		return false
	}
	suspicious := 0
	total := 0
	for _, r := range s {
		total++
		switch r {
		case 'Ã', 'Â', 'â':
			suspicious++
		case replacementRune:
			// Already broken beyond repair; re-decoding can't help.
			return false
		}
	}
	if total == 0 {
		return false
	}
	return float64(suspicious)/float64(total) >= 0.05
}

func isValidUTF8(s string) bool {
	for _, r := range s {
		if r == replacementRune {
			return false
		}
	}
	return true
}
