package listener

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/g8rswimmer/go-twitter/v2"
	"github.com/lucsky/cuid"
	log "github.com/sirupsen/logrus"
	"github.com/truemediaorg/catbot/config"
	"github.com/truemediaorg/catbot/matcher"
	"github.com/truemediaorg/catbot/metrics"
	"github.com/truemediaorg/catbot/model"
)

// Name the upload is sent under; the API sniffs the actual type.
const uploadFilename = "giphy.gif"

type SocialClient interface {
	Friends(ctx context.Context) ([]model.User, error)
	Followers(ctx context.Context) ([]model.User, error)
	Follow(ctx context.Context, userID string) error
	UploadMedia(ctx context.Context, filename string, media []byte) (string, error)
	PostStatus(ctx context.Context, text string, inReplyToID string, mediaIDs []string) (string, error)
}

type ImageProvider interface {
	RandomImageURL(ctx context.Context, tag string) (string, error)
	Download(ctx context.Context, imageURL string) ([]byte, error)
}

// Listener reacts to stream events: it replies to matching statuses with a
// cat picture and follows back whoever follows the bot.
type Listener struct {
	social          SocialClient
	images          ImageProvider
	matcher         *matcher.Matcher
	me              model.User
	tag             string
	testModeEnabled bool
	log             log.FieldLogger
}

func NewListener(social SocialClient, images ImageProvider, me model.User, cfg config.Config, logger log.FieldLogger) *Listener {
	return &Listener{
		social:          social,
		images:          images,
		matcher:         matcher.NewMatcher(),
		me:              me,
		tag:             cfg.Giphy.Tag,
		testModeEnabled: cfg.TestModeEnabled,
		log:             logger,
	}
}

// OnConnect follows back every follower the bot doesn't follow yet. The
// lists are fetched again on every connect.
func (l *Listener) OnConnect(ctx context.Context) error {
	report, err := l.FollowBack(ctx)
	if err != nil {
		return err
	}
	entry := l.log.WithField("attempted", report.Attempted()).WithField("failed", len(report.Failed()))
	if len(report.Failed()) > 0 {
		entry.Warnf("follow back finished: %s", report)
	} else {
		entry.Infof("follow back finished: %s", report)
	}
	return nil
}

// FollowBack issues one follow per follower missing from the friends list.
// A failed follow is recorded in the report and the batch continues.
func (l *Listener) FollowBack(ctx context.Context) (model.FollowReport, error) {
	var report model.FollowReport

	friends, err := l.social.Friends(ctx)
	if err != nil {
		return report, err
	}
	followers, err := l.social.Followers(ctx)
	if err != nil {
		return report, err
	}

	friendIDs := make(map[string]struct{}, len(friends))
	for _, friend := range friends {
		friendIDs[friend.ID] = struct{}{}
	}

	for _, follower := range followers {
		if _, ok := friendIDs[follower.ID]; ok {
			continue
		}
		if follower.ID == l.me.ID {
			continue
		}
		l.log.WithField("userID", follower.ID).Infof("Follow %s", follower.ID)
		err := l.follow(ctx, follower.ID)
		if err != nil {
			l.logFollowError(follower.ID, err)
		}
		report.Add(follower.ID, err)
	}
	return report, nil
}

// OnStatus replies with a cat to original statuses matching a pattern.
// Errors from the reply flow are returned to the stream.
func (l *Listener) OnStatus(ctx context.Context, status model.Status) error {
	metrics.StatusesSeen.Inc()
	if status.IsReshare {
		return nil
	}
	if !l.matcher.Matches(status.Text) {
		return nil
	}
	metrics.StatusesMatched.Inc()
	if status.Author.UserName == "" {
		// Without the author expansion there is nobody to address
		l.log.WithField("statusID", status.ID).WithField("authorID", status.Author.ID).Warn("skipping reply to status with unknown author handle")
		metrics.IncReply(metrics.ResultSkipped)
		return nil
	}
	if err := l.ReplyWithCat(ctx, status); err != nil {
		metrics.IncReply(metrics.ResultFailed)
		return fmt.Errorf("error replying to status %s: %w", status.ID, err)
	}
	return nil
}

// OnFollow follows back a new follower. Failures are logged, never returned.
func (l *Listener) OnFollow(ctx context.Context, event model.FollowEvent) error {
	if event.Kind != model.FollowEventKindFollow {
		return nil
	}
	user := event.Source
	if user.Is(l.me) {
		return nil
	}
	l.log.WithField("userID", user.ID).Infof("Follow back new follower %s(@%s).", user.Name, user.UserName)
	if err := l.follow(ctx, user.ID); err != nil {
		l.logFollowError(user.ID, err)
	}
	return nil
}

// ReplyWithCat fetches a random image, uploads it and posts it as a reply
// addressed to the author and everyone else the status mentions.
func (l *Listener) ReplyWithCat(ctx context.Context, status model.Status) error {
	text := ReplyText(status, l.me)
	replyID, err := l.postCat(ctx, text, status.ID)
	if err != nil {
		return err
	}
	l.log.WithField("statusID", status.ID).WithField("replyID", replyID).Info("replied with a cat")
	if l.testModeEnabled {
		metrics.IncReply(metrics.ResultSimulated)
	} else {
		metrics.IncReply(metrics.ResultOK)
	}
	return nil
}

// PostCat posts a random image as a standalone status with no text.
func (l *Listener) PostCat(ctx context.Context) (string, error) {
	return l.postCat(ctx, "", "")
}

// postCat runs fetch, download, upload and post in order. In test mode the
// last two are simulated and a fake post id is returned.
func (l *Listener) postCat(ctx context.Context, text string, inReplyToID string) (string, error) {
	imageURL, err := l.images.RandomImageURL(ctx, l.tag)
	if err != nil {
		return "", fmt.Errorf("error fetching random image: %w", err)
	}
	image, err := l.images.Download(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("error downloading %s: %w", imageURL, err)
	}

	entry := l.log.WithField("imageURL", imageURL).WithField("inReplyToID", inReplyToID)
	if l.testModeEnabled {
		postID := cuid.New()
		entry.WithField("text", text).Infof("Simulating cat post with post ID %s", postID)
		return postID, nil
	}

	mediaID, err := l.social.UploadMedia(ctx, uploadFilename, image)
	if err != nil {
		return "", fmt.Errorf("error uploading media: %w", err)
	}
	postID, err := l.social.PostStatus(ctx, text, inReplyToID, []string{mediaID})
	if err != nil {
		return "", err
	}
	entry.WithField("mediaID", mediaID).WithField("postID", postID).Debug("posted cat")
	return postID, nil
}

// ReplyText addresses the author first, then the other mentioned handles.
func ReplyText(status model.Status, me model.User) string {
	handles := append([]string{status.Author.Handle()}, matcher.ExtractMentions(status.Text, me.Handle(), status.Author.Handle())...)
	return strings.Join(handles, " ")
}

func (l *Listener) follow(ctx context.Context, userID string) error {
	if l.testModeEnabled {
		l.log.WithField("userID", userID).Info("Simulating follow")
		metrics.IncFollow(metrics.ResultSimulated)
		return nil
	}
	if err := l.social.Follow(ctx, userID); err != nil {
		metrics.IncFollow(metrics.ResultFailed)
		return err
	}
	metrics.IncFollow(metrics.ResultOK)
	return nil
}

func (l *Listener) logFollowError(userID string, err error) {
	entry := l.log.WithField("userID", userID)
	var apiError *twitter.ErrorResponse
	if errors.As(err, &apiError) {
		entry.WithField("statusCode", apiError.StatusCode).WithField("title", apiError.Title).Errorf("API error following user: %v", apiError.Detail)
		return
	}
	entry.Errorf("error following user: %v", err)
}
