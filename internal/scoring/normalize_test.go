package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Café (Remix)", "cafe"},
		{"  Hello, World!  ", "hello world"},
		{"Song Title - 2011 Remaster", "song title"},
		{"Song (feat. Someone) Part (Two)", "song"},
		{"Beyoncé", "beyonce"},
		{"AC/DC", "acdc"},
		{"Don't Stop Me Now", "dont stop me now"},
		{"", ""},
		{"Ünïcödé", "unicode"},
		{"a -- b", "a  b"},
		{"Røyksopp", "royksopp"},
		{"Straße", "strasse"},
		{"Æon Flux", "aeon flux"},
		{"Łódź", "lodz"},
		{"Œuvre", "oeuvre"},
		{"Đorđe", "dorde"},
		{"Þórr", "thorr"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Café (Remix)",
		"İstanbul - Live",
		"((nested) parens)",
		"x (a - b) - c",
		"Señor   Frog's!!",
		"dash-in-the-middle",
		" (only parens) ",
		"ÀÉÎÕÜ ǅ ß",
		"tab\there - there",
		"Røyksopp — Eple",
		"Sigur Rós (Ágætis byrjun)",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("cafe", "Café (Remix)"))
	assert.True(t, Equal("HELLO", "hello!"))
	assert.False(t, Equal("hello", "world"))
	assert.True(t, Equal("Royksopp", "Røyksopp"))
	assert.True(t, Equal("strasse", "STRASSE - Live"))
}
