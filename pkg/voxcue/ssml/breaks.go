package ssml

import "strings"

// breakStrength maps punctuation to the <break strength="..."/> spec §4.3
// requires: "," -> weak; ".;:" -> weak/medium; "?!" -> strong; "--" ->
// medium. Inserted after the punctuation token.
var breakStrength = map[byte]string{
	',': "weak",
	';': "medium",
	':': "medium",
	'.': "medium",
	'?': "strong",
	'!': "strong",
}

// applyBreaks walks text and inserts a self-closing <break/> after every
// punctuation token spec §4.3 names, plus "--" spans, mapped to the
// corresponding strength.
func applyBreaks(text string) string {
	var b strings.Builder
	runes := []byte(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '-' && i+1 < len(runes) && runes[i+1] == '-' {
			b.WriteString("--")
			b.WriteString(`<break strength="medium"/>`)
			i++
			continue
		}
		b.WriteByte(c)
		if strength, ok := breakStrength[c]; ok {
			b.WriteString(`<break strength="` + strength + `"/>`)
		}
	}
	return b.String()
}
