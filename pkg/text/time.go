package text

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/enescakir/emoji"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	EmojiSuccess  = emoji.CheckBoxWithCheck.String()
	EmojiFailure  = emoji.CrossMark.String()
	EmojiUpdating = emoji.ThinkingFace.String()
	EmojiInfo     = emoji.QuestionMark.String()
)

// Return the time in a human-readable format relative to the current time.
func RelativeTime(then time.Time) string {
	if then.IsZero() {
		return "never"
	}
	now := time.Now()
	ago := now.Sub(then)
	if ago < time.Minute {
		return "just now"
	} else if ago < humanize.Week {
		return humanize.CustomRelTime(then, now, "ago", "from now", magnitudes)
	}
	return then.Format("02 Jan 2006 15:04 MST")
}

var magnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "now", DivBy: time.Second},
	{D: 2 * time.Second, Format: "1 second %s", DivBy: 1},
	{D: time.Minute, Format: "%d seconds %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: 1},
	{D: humanize.Week, Format: "%d days %s", DivBy: humanize.Day},
	{D: math.MaxInt64, Format: "a long while %s", DivBy: 1},
}

// Ramp returns steps hex colors blending from one hex color to another.
func Ramp(from, to string, steps int) []string {
	a, err := colorful.Hex(from)
	if err != nil {
		return nil
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return nil
	}
	if steps < 2 {
		return []string{a.Hex()}
	}
	out := make([]string, steps)
	for i := range out {
		out[i] = a.BlendLuv(b, float64(i)/float64(steps-1)).Hex()
	}
	return out
}
