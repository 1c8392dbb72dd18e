package matcher

import (
	"regexp"
	"sort"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_]+`)

// ExtractMentions returns the distinct @handles found in text, minus the
// bot's own handle and the author's. Handles may be given with or without
// the leading "@". The result is sorted so replies are stable.
func ExtractMentions(text string, selfHandle string, authorHandle string) []string {
	excluded := map[string]bool{
		normalizeHandle(selfHandle):   true,
		normalizeHandle(authorHandle): true,
	}
	seen := map[string]bool{}
	var mentions []string
	for _, mention := range mentionPattern.FindAllString(text, -1) {
		if excluded[mention] || seen[mention] {
			continue
		}
		seen[mention] = true
		mentions = append(mentions, mention)
	}
	sort.Strings(mentions)
	return mentions
}

func normalizeHandle(handle string) string {
	if handle == "" {
		return ""
	}
	return "@" + strings.TrimPrefix(handle, "@")
}
