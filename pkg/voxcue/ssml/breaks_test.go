package ssml

import "testing"

func TestApplyBreaksPunctuation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hi,", `Hi,<break strength="weak"/>`},
		{"Wait!", `Wait!<break strength="strong"/>`},
		{"Really?", `Really?<break strength="strong"/>`},
		{"End.", `End.<break strength="medium"/>`},
	}
	for _, c := range cases {
		if got := applyBreaks(c.in); got != c.want {
			t.Errorf("applyBreaks(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestApplyBreaksDoubleHyphen(t *testing.T) {
	got := applyBreaks("wait--no")
	want := `wait--<break strength="medium"/>no`
	if got != want {
		t.Errorf("applyBreaks(double hyphen) = %q, want %q", got, want)
	}
}

func TestApplyBreaksNoPunctuation(t *testing.T) {
	if got := applyBreaks("hello there"); got != "hello there" {
		t.Errorf("applyBreaks(no punctuation) = %q, want unchanged", got)
	}
}
