package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	testCases := []struct {
		description string
		text        string
		expected    bool
	}{
		{"asking for a cat", "고양이 필요해", true},
		{"asking for a kitty with words in between", "오늘은 냥이가 너무 필요하다", true},
		{"feeling down", "우울해", true},
		{"feeling down, other ending", "너무 우울하다", true},
		{"asking for cat pics", "냐짤 주세요", true},
		{"wanting to die with a space", "죽고 싶어", true},
		{"wanting to die without a space", "죽고싶다", true},
		{"match in the middle of a longer post", "아침부터 비가 와서 우울해 ㅠㅠ", true},
		{"english text", "hello world", false},
		{"cat without need", "고양이 귀엽다", false},
		{"need without cat", "커피가 필요해", false},
		{"empty text", "", false},
	}
	m := NewMatcher()
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expected, m.Matches(testCase.text))
		})
	}
}

func TestExtractMentions(t *testing.T) {
	t.Run("excludes the bot and the author", func(t *testing.T) {
		mentions := ExtractMentions("@bob @alice hi @bot", "@bot", "@alice")
		assert.Equal(t, []string{"@bob"}, mentions)
	})

	t.Run("accepts handles without the at sign", func(t *testing.T) {
		mentions := ExtractMentions("@bob @alice hi @bot", "bot", "alice")
		assert.Equal(t, []string{"@bob"}, mentions)
	})

	t.Run("collapses duplicates", func(t *testing.T) {
		mentions := ExtractMentions("@dave @erin @dave", "@bot", "@carol")
		assert.Equal(t, []string{"@dave", "@erin"}, mentions)
	})

	t.Run("returns nothing when there are no mentions", func(t *testing.T) {
		assert.Empty(t, ExtractMentions("우울해", "@bot", "@carol"))
	})

	t.Run("stops at punctuation", func(t *testing.T) {
		mentions := ExtractMentions("thanks @dave, and @erin!", "@bot", "@carol")
		assert.Equal(t, []string{"@dave", "@erin"}, mentions)
	})
}
