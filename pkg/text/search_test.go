package text

import (
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testcases := map[string]string{
		"Café":        "cafe",
		"ÉLÉPHANT":    "elephant",
		"Zürich Naïf": "zurich naif",
		"plain":       "plain",
	}
	for input, expected := range testcases {
		assert.Equal(t, expected, Normalize(input))
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Maison Élysée", "elysee"))
	assert.True(t, Contains("Maison Élysée", "  MAISON "))
	assert.True(t, Contains("anything", ""))
	assert.False(t, Contains("Maison", "palais"))
}

func TestHighlight(t *testing.T) {
	// the ascii profile drops all styling, leaving just the text
	style := termenv.Ascii.String()
	assert.Equal(t, "Café Noir", Highlight("Café Noir", "cafe", style))
	assert.Equal(t, "Café Noir", Highlight("Café Noir", "", style))
	assert.Equal(t, "Café Noir", Highlight("Café Noir", "blanc", style))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "abc  ", PadRight("abc", 5))
	assert.Equal(t, 5, len([]rune(PadRight("abcdefgh", 5))))
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "never", RelativeTime(time.Time{}))
	assert.Equal(t, "just now", RelativeTime(time.Now()))
	assert.Equal(t, "5 minutes ago", RelativeTime(time.Now().Add(-5*time.Minute-time.Second)))
}

func TestRamp(t *testing.T) {
	r := Ramp("#000000", "#ffffff", 3)
	assert.Len(t, r, 3)
	assert.NotEqual(t, r[0], r[1])
	assert.NotEqual(t, r[1], r[2])
	assert.Nil(t, Ramp("nope", "#ffffff", 3))
}
