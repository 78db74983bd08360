package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten_WithSpeakers(t *testing.T) {
	tr := &Transcript{
		Segments: []Segment{
			{Text: "Welcome everyone", Speaker: "prof"},
			{Text: "  ", Speaker: "prof"},
			{Text: "Thanks", Speaker: "student"},
			{Text: "No speaker here"},
		},
	}

	got := tr.Flatten(0)

	assert.Equal(t, "[prof] Welcome everyone\n[student] Thanks\nNo speaker here", got)
}

func TestFlatten_Truncates(t *testing.T) {
	tr := &Transcript{
		Segments: []Segment{
			{Text: strings.Repeat("a", 50)},
			{Text: strings.Repeat("b", 50)},
		},
	}

	got := tr.Flatten(60)

	assert.Len(t, got, 60)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", 50)+"\n"))
}

func TestFlattenText_DropsSpeakerPrefix(t *testing.T) {
	tr := &Transcript{
		Segments: []Segment{
			{Text: "one", Speaker: "a"},
			{Text: "two", Speaker: "b"},
		},
	}

	assert.Equal(t, "one\ntwo", tr.FlattenText(0))
}

func TestFlatten_Empty(t *testing.T) {
	tr := &Transcript{}
	assert.Equal(t, "", tr.Flatten(100))
}

func TestTruncateChars(t *testing.T) {
	assert.Equal(t, "abc", TruncateChars("abc", 10))
	assert.Equal(t, "abc", TruncateChars("abcdef", 3))
	assert.Equal(t, "abcdef", TruncateChars("abcdef", 0))
	assert.Equal(t, "abcdef", TruncateChars("abcdef", -5))
}

func TestTruncateChars_MultiByte(t *testing.T) {
	s := "안녕하세요 여러분"

	got := TruncateChars(s, 5)

	assert.Equal(t, "안녕하세요", got)
}
