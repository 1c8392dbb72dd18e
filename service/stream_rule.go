package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/g8rswimmer/go-twitter/v2"
	"github.com/truemediaorg/catbot/model"
)

const (
	streamRuleTag = "catbot"
	// Longest rule value the filtered stream accepts
	maxStreamRuleLength = 512
	streamRuleSeparator = " OR "
)

// streamRules scopes the keyword filter to the account's own timeline:
// mentions of the bot and posts by the accounts it follows. Friends are
// packed greedily into rules of at most maxStreamRuleLength characters. It
// returns the rule values and how many friends did not fit in maxRules.
func streamRules(keywords string, me model.User, friends []model.User, maxRules int) ([]string, int) {
	prefix := "(" + keywords + ") ("
	suffix := ") -is:retweet"
	overhead := utf8.RuneCountInString(prefix) + utf8.RuneCountInString(suffix)

	clauses := []string{me.Handle()}
	for _, friend := range friends {
		if friend.UserName == "" || friend.Is(me) {
			continue
		}
		clauses = append(clauses, "from:"+friend.UserName)
	}

	var rules []string
	var current []string
	length := overhead
	flush := func() {
		rules = append(rules, prefix+strings.Join(current, streamRuleSeparator)+suffix)
		current = nil
		length = overhead
	}

	for i, clause := range clauses {
		clauseLength := utf8.RuneCountInString(clause)
		if len(current) > 0 {
			clauseLength += utf8.RuneCountInString(streamRuleSeparator)
		}
		if length+clauseLength > maxStreamRuleLength && len(current) > 0 {
			flush()
			if len(rules) == maxRules {
				return rules, len(clauses) - i
			}
			clauseLength = utf8.RuneCountInString(clause)
		}
		if length+clauseLength > maxStreamRuleLength {
			// Keywords are validated short enough for any handle
			continue
		}
		current = append(current, clause)
		length += clauseLength
	}
	if len(current) > 0 && len(rules) < maxRules {
		flush()
	}
	return rules, 0
}

// syncRules replaces the bot's tagged rules with the ones built from the
// current friend list. Rules with other tags are left alone.
func (s *TwitterStreamSource) syncRules(ctx context.Context) error {
	friends, err := s.twitterService.Friends(ctx)
	if err != nil {
		return fmt.Errorf("error listing friends for stream rules: %w", err)
	}
	values, left := streamRules(s.keywords, s.twitterService.Me(), friends, s.maxRules)
	if left > 0 {
		s.log.WithField("left", left).Warn("stream rules are full, some friends are not listened to")
	}

	existing, err := s.twitterService.apiClient.TweetSearchStreamRules(ctx, nil)
	if err != nil {
		return fmt.Errorf("error listing stream rules: %w", err)
	}

	wanted := make(map[string]bool, len(values))
	for _, value := range values {
		wanted[value] = false
	}
	var stale []twitter.TweetSearchStreamRuleID
	for _, rule := range existing.Rules {
		if rule == nil || rule.Tag != streamRuleTag {
			continue
		}
		if _, ok := wanted[rule.Value]; ok {
			wanted[rule.Value] = true
			continue
		}
		stale = append(stale, rule.ID)
	}

	// Delete first so the account never exceeds its rule quota
	if len(stale) > 0 {
		if _, err := s.twitterService.apiClient.TweetSearchStreamDeleteRuleByID(ctx, stale, false); err != nil {
			return fmt.Errorf("error deleting stale stream rules: %w", err)
		}
	}

	var missing []twitter.TweetSearchStreamRule
	for _, value := range values {
		if !wanted[value] {
			missing = append(missing, twitter.TweetSearchStreamRule{Value: value, Tag: streamRuleTag})
		}
	}
	if len(missing) > 0 {
		if _, err := s.twitterService.apiClient.TweetSearchStreamAddRule(ctx, missing, false); err != nil {
			return fmt.Errorf("error adding stream rules: %w", err)
		}
	}

	s.log.WithField("rules", len(values)).WithField("added", len(missing)).WithField("deleted", len(stale)).Info("stream rules synced")
	return nil
}
