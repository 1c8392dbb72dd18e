package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/g8rswimmer/go-twitter/v2"
	log "github.com/sirupsen/logrus"
	"github.com/truemediaorg/catbot/config"
	"github.com/truemediaorg/catbot/model"
	twitterutil "github.com/truemediaorg/catbot/twitter"
	"golang.org/x/time/rate"
)

const (
	twitterHost    = "https://api.twitter.com"
	mediaUploadURL = "https://upload.twitter.com/1.1/media/upload.json"

	// Largest page the follower/following endpoints accept
	followPageSize = 1000
)

type TwitterService struct {
	me model.User

	apiClient   *twitter.Client
	oauthClient *twitter.Client
	// oauth1-signed client for the v1.1 upload endpoint
	uploadClient *http.Client
	uploadURL    string

	followLimiter *rate.Limiter
	log           log.FieldLogger
}

type authorize struct {
	Token string
}

func (a authorize) Add(req *http.Request) {
	if a.Token == "" {
		// oauth1 signs user-context requests itself
		return
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", a.Token))
}

// NewTwitterService builds the API clients and looks up the account the
// credentials belong to. That identity is kept for the process lifetime.
func NewTwitterService(ctx context.Context, cfg config.Config, logger log.FieldLogger) (*TwitterService, error) {
	creds := cfg.Twitter.Credentials

	// Initialize the API Client (used for the filtered stream)
	apiClient := &twitter.Client{
		Authorizer: authorize{
			Token: creds.BearerToken,
		},
		Client: http.DefaultClient,
		Host:   twitterHost,
	}

	// Initialize the OAuth Client (used for making OAuth-authenticated API calls)
	oauthConfig := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	oauthToken := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	httpClient := oauthConfig.Client(ctx, oauthToken)
	oauthClient := &twitter.Client{
		Authorizer: authorize{},
		Client:     httpClient,
		Host:       twitterHost,
	}

	s := newTwitterService(apiClient, oauthClient, httpClient, cfg.Twitter.FollowRatePerMinute, logger)
	if err := s.lookupMe(ctx); err != nil {
		return nil, err
	}
	logger.WithField("userID", s.me.ID).WithField("userName", s.me.UserName).Info("authenticated")
	return s, nil
}

func newTwitterService(apiClient, oauthClient *twitter.Client, uploadClient *http.Client, followsPerMinute int, logger log.FieldLogger) *TwitterService {
	limit := rate.Inf
	if followsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(followsPerMinute))
	}
	return &TwitterService{
		apiClient:     apiClient,
		oauthClient:   oauthClient,
		uploadClient:  uploadClient,
		uploadURL:     mediaUploadURL,
		followLimiter: rate.NewLimiter(limit, 1),
		log:           logger,
	}
}

func (s *TwitterService) lookupMe(ctx context.Context) error {
	users, err := s.oauthClient.AuthUserLookup(ctx, twitter.UserLookupOpts{
		UserFields: []twitter.UserField{twitter.UserFieldName, twitter.UserFieldUserName},
	})
	if err != nil {
		return fmt.Errorf("user lookup error: %w", err)
	}
	if users.RateLimit != nil {
		s.log.Debugf("user lookup rate limit---limit=%d;remaining=%d;reset=%d", users.RateLimit.Limit, users.RateLimit.Remaining, users.RateLimit.Reset)
	}
	if users.Raw == nil || len(users.Raw.Users) == 0 {
		return fmt.Errorf("authenticated user not found")
	}
	s.me = twitterutil.UserFromUserObj(users.Raw.Users[0])
	return nil
}

// Me returns the authenticated account.
func (s *TwitterService) Me() model.User {
	return s.me
}

// Friends returns every account the bot follows, walking all pages.
func (s *TwitterService) Friends(ctx context.Context) ([]model.User, error) {
	var friends []model.User
	paginationToken := ""
	for ok := true; ok; ok = (paginationToken != "") {
		resp, err := s.oauthClient.UserFollowingLookup(ctx, s.me.ID, twitter.UserFollowingLookupOpts{
			UserFields:      []twitter.UserField{twitter.UserFieldName, twitter.UserFieldUserName},
			MaxResults:      followPageSize,
			PaginationToken: paginationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("following lookup error: %w", err)
		}
		friends = appendUsers(friends, resp.Raw)
		paginationToken = ""
		if resp.Meta != nil {
			paginationToken = resp.Meta.NextToken
		}
		s.log.WithField("paginationToken", paginationToken).WithField("count", len(friends)).Debug("listed friends")
	}
	return friends, nil
}

// Followers returns every account following the bot, walking all pages.
func (s *TwitterService) Followers(ctx context.Context) ([]model.User, error) {
	var followers []model.User
	paginationToken := ""
	for ok := true; ok; ok = (paginationToken != "") {
		resp, err := s.oauthClient.UserFollowersLookup(ctx, s.me.ID, twitter.UserFollowersLookupOpts{
			UserFields:      []twitter.UserField{twitter.UserFieldName, twitter.UserFieldUserName},
			MaxResults:      followPageSize,
			PaginationToken: paginationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("followers lookup error: %w", err)
		}
		followers = appendUsers(followers, resp.Raw)
		paginationToken = ""
		if resp.Meta != nil {
			paginationToken = resp.Meta.NextToken
		}
		s.log.WithField("paginationToken", paginationToken).WithField("count", len(followers)).Debug("listed followers")
	}
	return followers, nil
}

func appendUsers(users []model.User, raw *twitter.UserRaw) []model.User {
	if raw == nil {
		return users
	}
	for _, user := range raw.Users {
		if user == nil {
			continue
		}
		users = append(users, twitterutil.UserFromUserObj(user))
	}
	return users
}

// Follow creates a friendship from the bot to userID. Calls are paced by
// the configured follow rate.
func (s *TwitterService) Follow(ctx context.Context, userID string) error {
	if err := s.followLimiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.oauthClient.UserFollows(ctx, s.me.ID, userID)
	return err
}

// UploadMedia sends the file to the v1.1 upload endpoint and returns the
// media id to attach to a status.
func (s *TwitterService) UploadMedia(ctx context.Context, filename string, media []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("media", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(media); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.uploadClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("media upload returned status %d: %s", resp.StatusCode, respBody)
	}

	var upload twitterutil.MediaUploadResponse
	if err := json.Unmarshal(respBody, &upload); err != nil {
		return "", err
	}
	if upload.MediaIDString == "" {
		return "", fmt.Errorf("media upload returned no media id")
	}
	return upload.MediaIDString, nil
}

// PostStatus creates a tweet, optionally as a reply and with media.
func (s *TwitterService) PostStatus(ctx context.Context, text string, inReplyToID string, mediaIDs []string) (string, error) {
	req := twitter.CreateTweetRequest{Text: text}
	if inReplyToID != "" {
		req.Reply = &twitter.CreateTweetReply{InReplyToTweetID: inReplyToID}
	}
	if len(mediaIDs) > 0 {
		req.Media = &twitter.CreateTweetMedia{IDs: mediaIDs}
	}
	resp, err := s.oauthClient.CreateTweet(ctx, req)
	if err != nil {
		return "", err
	}
	if resp.Tweet == nil {
		return "", fmt.Errorf("create tweet returned no tweet")
	}
	return resp.Tweet.ID, nil
}
