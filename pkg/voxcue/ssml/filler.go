package ssml

import (
	"math/rand"
	"strings"
)

// maybeInsertFiller probabilistically inserts one of opts.FillerWords at
// a sentence boundary, per spec §4.3 "filler insertion... probabilistic
// (low probability, seeded for determinism during tests)". Callers in
// deterministic mode never reach this function (spec §9: "deterministic
// mode disables stochastic insertions").
func maybeInsertFiller(text string, opts Options, rng *rand.Rand) string {
	if len(opts.FillerWords) == 0 || opts.FillerProbability <= 0 {
		return text
	}
	sentences := splitSentences(text)
	for i, s := range sentences {
		if rng.Float64() < opts.FillerProbability {
			filler := opts.FillerWords[rng.Intn(len(opts.FillerWords))]
			sentences[i] = filler + ", " + s
		}
	}
	return strings.Join(sentences, " ")
}

// maybeInsertCatchphrase probabilistically appends one catchphrase at the
// end of the text, with the same determinism contract as
// maybeInsertFiller.
func maybeInsertCatchphrase(text string, opts Options, rng *rand.Rand) string {
	if len(opts.Catchphrases) == 0 || opts.FillerProbability <= 0 {
		return text
	}
	if rng.Float64() < opts.FillerProbability {
		phrase := opts.Catchphrases[rng.Intn(len(opts.Catchphrases))]
		return text + " " + phrase
	}
	return text
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			out = append(out, strings.TrimSpace(text[start:i+1]))
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, strings.TrimSpace(text[start:]))
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
