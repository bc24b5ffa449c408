package utils

import (
	"regexp"
	"strings"
)

// Plate grammars tried in order. First match wins.
var plateGrammars = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`),           // ABC1234
	regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`), // Mercosul ABC1D23
	regexp.MustCompile(`^[A-Z]{2}[0-9]{4}$`),           // older motorcycle AB1234
}

var legacyGrammar = plateGrammars[0]

var nonPlateChars = regexp.MustCompile(`[^A-Z0-9]`)

// OCR engines confuse these glyph pairs in both directions.
var confusionMap = map[byte]byte{
	'0': 'O', 'O': '0',
	'1': 'I', 'I': '1',
	'5': 'S', 'S': '5',
	'8': 'B', 'B': '8',
	'2': 'Z', 'Z': '2',
}

// CleanPlateText uppercases raw OCR output and strips everything outside
// A-Z and 0-9, including whitespace and line breaks.
func CleanPlateText(raw string) string {
	return nonPlateChars.ReplaceAllString(strings.ToUpper(raw), "")
}

// ValidPlate reports whether s matches one of the known plate grammars.
func ValidPlate(s string) bool {
	for _, grammar := range plateGrammars {
		if grammar.MatchString(s) {
			return true
		}
	}
	return false
}

// ResolvePlate turns raw OCR text into a plate string. It cleans the text,
// validates it against the known grammars, and falls back to a bounded
// confusion-map correction. The empty string means no usable plate: a
// cleaned length outside [6,8] is too unreliable to report. A non-empty
// result that matched no grammar is returned as-is and must be treated as
// low confidence by the caller.
func ResolvePlate(raw string) string {
	cleaned := CleanPlateText(raw)
	if cleaned == "" {
		return ""
	}

	if ValidPlate(cleaned) {
		return cleaned
	}

	if corrected := attemptCorrection(cleaned); corrected != "" {
		return corrected
	}

	if len(cleaned) < 6 || len(cleaned) > 8 {
		return ""
	}

	return cleaned
}

// attemptCorrection fixes digit/letter confusions for the one layout where
// position decides intent: 3 letters followed by 4 digits. The first 3
// characters are forced toward letters and the last 4 toward digits, then
// the result is re-validated against that grammar only.
func attemptCorrection(s string) string {
	if len(s) != 7 {
		return ""
	}

	buf := []byte(s)
	for i := 0; i < 3; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			if r, ok := confusionMap[buf[i]]; ok {
				buf[i] = r
			}
		}
	}
	for i := 3; i < 7; i++ {
		if buf[i] >= 'A' && buf[i] <= 'Z' {
			if r, ok := confusionMap[buf[i]]; ok {
				buf[i] = r
			}
		}
	}

	corrected := string(buf)
	if legacyGrammar.MatchString(corrected) {
		return corrected
	}
	return ""
}
