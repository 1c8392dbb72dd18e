package twitter

import (
	"fmt"

	gotwitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/truemediaorg/catbot/model"
)

func ConstructTweetURL(authorName string, tweetID string) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", authorName, tweetID)
}

// IsRetweet reports whether the tweet republishes another tweet. Quotes and
// replies are original content and don't count.
func IsRetweet(tweet gotwitter.TweetObj) bool {
	for _, ref := range tweet.ReferencedTweets {
		if ref != nil && ref.Type == string(TweetReferenceRetweeted) {
			return true
		}
	}
	return false
}

func UserFromUserObj(user *gotwitter.UserObj) model.User {
	if user == nil {
		return model.User{}
	}
	return model.User{
		ID:       user.ID,
		Name:     user.Name,
		UserName: user.UserName,
	}
}

// StatusFromTweetDictionary flattens a tweet and its expanded author. The
// author falls back to the bare author_id when the expansion is missing.
func StatusFromTweetDictionary(tweet *gotwitter.TweetDictionary) model.Status {
	author := UserFromUserObj(tweet.Author)
	if author.ID == "" {
		author.ID = tweet.Tweet.AuthorID
	}
	return model.Status{
		ID:        tweet.Tweet.ID,
		Text:      tweet.Tweet.Text,
		Author:    author,
		IsReshare: IsRetweet(tweet.Tweet),
	}
}
