package matcher

import "regexp"

// Phrases asking for a cat, or saying the author feels down.
var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:고양이|야옹이|냐옹이|냥이).*필요`),
	regexp.MustCompile(`우울[해하]|냐짤|죽고\s*싶[어다]`),
}

type Matcher struct {
	patterns []*regexp.Regexp
}

func NewMatcher() *Matcher {
	return &Matcher{patterns: defaultPatterns}
}

// Matches reports whether any pattern is found anywhere in text.
func (m *Matcher) Matches(text string) bool {
	for _, pattern := range m.patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
