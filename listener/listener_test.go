package listener

import (
	"context"
	"errors"
	"testing"

	"github.com/g8rswimmer/go-twitter/v2"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/truemediaorg/catbot/config"
	"github.com/truemediaorg/catbot/model"
)

type MockSocialClient struct {
	mock.Mock
}

func (m *MockSocialClient) Friends(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockSocialClient) Followers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockSocialClient) Follow(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSocialClient) UploadMedia(ctx context.Context, filename string, media []byte) (string, error) {
	args := m.Called(ctx, filename, media)
	return args.Get(0).(string), args.Error(1)
}

func (m *MockSocialClient) PostStatus(ctx context.Context, text string, inReplyToID string, mediaIDs []string) (string, error) {
	args := m.Called(ctx, text, inReplyToID, mediaIDs)
	return args.Get(0).(string), args.Error(1)
}

type MockImageProvider struct {
	mock.Mock
}

func (m *MockImageProvider) RandomImageURL(ctx context.Context, tag string) (string, error) {
	args := m.Called(ctx, tag)
	return args.Get(0).(string), args.Error(1)
}

func (m *MockImageProvider) Download(ctx context.Context, imageURL string) ([]byte, error) {
	args := m.Called(ctx, imageURL)
	return args.Get(0).([]byte), args.Error(1)
}

var (
	bot   = model.User{ID: "1", Name: "Cat Bot", UserName: "bot"}
	carol = model.User{ID: "7", Name: "Carol", UserName: "carol"}
)

func newTestListener(social SocialClient, images ImageProvider, testMode bool) *Listener {
	cfg := config.Config{
		Giphy:           config.GiphyConfig{Tag: "cat"},
		TestModeEnabled: testMode,
	}
	return NewListener(social, images, bot, cfg, log.New())
}

func users(ids ...string) []model.User {
	var out []model.User
	for _, id := range ids {
		out = append(out, model.User{ID: id})
	}
	return out
}

func TestReplyText(t *testing.T) {
	testCases := []struct {
		description string
		text        string
		expected    string
	}{
		{"author and other mentions", "우울해 @dave", "@carol @dave"},
		{"bot and author are not repeated", "@bot @carol 우울해 @dave", "@carol @dave"},
		{"only the author without other mentions", "우울해", "@carol"},
		{"mentions are sorted and de-duplicated", "@erin @dave @erin 우울해", "@carol @dave @erin"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			status := model.Status{ID: "100", Text: testCase.text, Author: carol}
			assert.Equal(t, testCase.expected, ReplyText(status, bot))
		})
	}
}

func TestOnStatus(t *testing.T) {
	t.Run("replies to a matching status with one uploaded image", func(t *testing.T) {
		status := model.Status{ID: "100", Text: "우울해 @dave", Author: carol}
		gif := []byte("GIF89a")

		images := new(MockImageProvider)
		images.On("RandomImageURL", context.TODO(), "cat").Return("https://media.giphy.com/abc.gif", nil)
		images.On("Download", context.TODO(), "https://media.giphy.com/abc.gif").Return(gif, nil)
		social := new(MockSocialClient)
		social.On("UploadMedia", context.TODO(), "giphy.gif", gif).Return("777", nil)
		social.On("PostStatus", context.TODO(), "@carol @dave", "100", []string{"777"}).Return("200", nil)

		err := newTestListener(social, images, false).OnStatus(context.TODO(), status)
		assert.NoError(t, err)
		social.AssertNumberOfCalls(t, "UploadMedia", 1)
		social.AssertNumberOfCalls(t, "PostStatus", 1)
	})

	t.Run("never replies to a reshare", func(t *testing.T) {
		status := model.Status{ID: "101", Text: "고양이 필요해", Author: carol, IsReshare: true}
		images := new(MockImageProvider)
		social := new(MockSocialClient)

		err := newTestListener(social, images, false).OnStatus(context.TODO(), status)
		assert.NoError(t, err)
		images.AssertNotCalled(t, "RandomImageURL", mock.Anything, mock.Anything)
		social.AssertNotCalled(t, "PostStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ignores statuses that match nothing", func(t *testing.T) {
		status := model.Status{ID: "102", Text: "hello world", Author: carol}
		images := new(MockImageProvider)
		social := new(MockSocialClient)

		err := newTestListener(social, images, false).OnStatus(context.TODO(), status)
		assert.NoError(t, err)
		images.AssertNotCalled(t, "RandomImageURL", mock.Anything, mock.Anything)
	})

	t.Run("skips statuses whose author handle is unknown", func(t *testing.T) {
		status := model.Status{ID: "104", Text: "고양이 필요해 @dave", Author: model.User{ID: "7"}}
		images := new(MockImageProvider)
		social := new(MockSocialClient)

		err := newTestListener(social, images, false).OnStatus(context.TODO(), status)
		assert.NoError(t, err)
		images.AssertNotCalled(t, "RandomImageURL", mock.Anything, mock.Anything)
		social.AssertNotCalled(t, "PostStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns reply flow failures", func(t *testing.T) {
		status := model.Status{ID: "103", Text: "냐짤", Author: carol}
		gif := []byte("GIF89a")

		images := new(MockImageProvider)
		images.On("RandomImageURL", context.TODO(), "cat").Return("https://media.giphy.com/abc.gif", nil)
		images.On("Download", context.TODO(), "https://media.giphy.com/abc.gif").Return(gif, nil)
		social := new(MockSocialClient)
		social.On("UploadMedia", context.TODO(), "giphy.gif", gif).Return("", errors.New("media too large"))

		err := newTestListener(social, images, false).OnStatus(context.TODO(), status)
		assert.Error(t, err)
		social.AssertNotCalled(t, "PostStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns image fetch failures", func(t *testing.T) {
		status := model.Status{ID: "104", Text: "죽고 싶다", Author: carol}

		images := new(MockImageProvider)
		images.On("RandomImageURL", context.TODO(), "cat").Return("", errors.New("giphy down"))
		social := new(MockSocialClient)

		err := newTestListener(social, images, false).OnStatus(context.TODO(), status)
		assert.Error(t, err)
		images.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
	})

	t.Run("does not actually post if test mode is engaged", func(t *testing.T) {
		status := model.Status{ID: "105", Text: "우울해", Author: carol}

		images := new(MockImageProvider)
		images.On("RandomImageURL", context.TODO(), "cat").Return("https://media.giphy.com/abc.gif", nil)
		images.On("Download", context.TODO(), "https://media.giphy.com/abc.gif").Return([]byte("GIF89a"), nil)
		social := new(MockSocialClient)

		err := newTestListener(social, images, true).OnStatus(context.TODO(), status)
		assert.NoError(t, err)
		social.AssertNumberOfCalls(t, "UploadMedia", 0)
		social.AssertNumberOfCalls(t, "PostStatus", 0)
	})
}

func TestPostCat(t *testing.T) {
	t.Run("posts the image without text or reply target", func(t *testing.T) {
		gif := []byte("GIF89a")
		images := new(MockImageProvider)
		images.On("RandomImageURL", context.TODO(), "cat").Return("https://media.giphy.com/abc.gif", nil)
		images.On("Download", context.TODO(), "https://media.giphy.com/abc.gif").Return(gif, nil)
		social := new(MockSocialClient)
		social.On("UploadMedia", context.TODO(), "giphy.gif", gif).Return("777", nil)
		social.On("PostStatus", context.TODO(), "", "", []string{"777"}).Return("300", nil)

		postID, err := newTestListener(social, images, false).PostCat(context.TODO())
		require.NoError(t, err)
		assert.Equal(t, "300", postID)
	})

	t.Run("returns a simulated id in test mode", func(t *testing.T) {
		images := new(MockImageProvider)
		images.On("RandomImageURL", context.TODO(), "cat").Return("https://media.giphy.com/abc.gif", nil)
		images.On("Download", context.TODO(), "https://media.giphy.com/abc.gif").Return([]byte("GIF89a"), nil)
		social := new(MockSocialClient)

		postID, err := newTestListener(social, images, true).PostCat(context.TODO())
		require.NoError(t, err)
		assert.NotEmpty(t, postID)
		social.AssertNumberOfCalls(t, "PostStatus", 0)
	})
}

func TestOnFollow(t *testing.T) {
	t.Run("follows back a new follower", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Follow", context.TODO(), "7").Return(nil)

		event := model.FollowEvent{Kind: model.FollowEventKindFollow, Source: carol}
		assert.NoError(t, newTestListener(social, nil, false).OnFollow(context.TODO(), event))
		social.AssertNumberOfCalls(t, "Follow", 1)
	})

	t.Run("never follows itself", func(t *testing.T) {
		social := new(MockSocialClient)

		event := model.FollowEvent{Kind: model.FollowEventKindFollow, Source: model.User{ID: bot.ID, UserName: "renamed"}}
		assert.NoError(t, newTestListener(social, nil, false).OnFollow(context.TODO(), event))
		social.AssertNotCalled(t, "Follow", mock.Anything, mock.Anything)
	})

	t.Run("ignores other event kinds", func(t *testing.T) {
		social := new(MockSocialClient)

		event := model.FollowEvent{Kind: "unfollow", Source: carol}
		assert.NoError(t, newTestListener(social, nil, false).OnFollow(context.TODO(), event))
		social.AssertNotCalled(t, "Follow", mock.Anything, mock.Anything)
	})

	t.Run("swallows follow failures", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Follow", context.TODO(), "7").Return(&twitter.ErrorResponse{StatusCode: 403, Title: "Forbidden", Detail: "You are unable to follow more people at this time."})

		event := model.FollowEvent{Kind: model.FollowEventKindFollow, Source: carol}
		assert.NoError(t, newTestListener(social, nil, false).OnFollow(context.TODO(), event))
	})
}

func TestFollowBack(t *testing.T) {
	t.Run("follows only followers missing from friends", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Friends", context.TODO()).Return(users("2", "3"), nil)
		social.On("Followers", context.TODO()).Return(users("2", "4", "5"), nil)
		social.On("Follow", context.TODO(), "4").Return(nil)
		social.On("Follow", context.TODO(), "5").Return(nil)

		report, err := newTestListener(social, nil, false).FollowBack(context.TODO())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Attempted())
		assert.Empty(t, report.Failed())
		social.AssertNotCalled(t, "Follow", context.TODO(), "2")
	})

	t.Run("is idempotent once everyone is followed", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Friends", context.TODO()).Return(users("2", "4"), nil)
		social.On("Followers", context.TODO()).Return(users("2", "4"), nil)

		l := newTestListener(social, nil, false)
		for i := 0; i < 2; i++ {
			report, err := l.FollowBack(context.TODO())
			require.NoError(t, err)
			assert.Zero(t, report.Attempted())
		}
		social.AssertNotCalled(t, "Follow", mock.Anything, mock.Anything)
	})

	t.Run("continues past a failed follow", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Friends", context.TODO()).Return([]model.User{}, nil)
		social.On("Followers", context.TODO()).Return(users("4", "5", "6"), nil)
		social.On("Follow", context.TODO(), "4").Return(nil)
		social.On("Follow", context.TODO(), "5").Return(errors.New("blocked"))
		social.On("Follow", context.TODO(), "6").Return(nil)

		report, err := newTestListener(social, nil, false).FollowBack(context.TODO())
		require.NoError(t, err)
		assert.Equal(t, 3, report.Attempted())
		require.Len(t, report.Failed(), 1)
		assert.Equal(t, "5", report.Failed()[0].UserID)
		social.AssertNumberOfCalls(t, "Follow", 3)
	})

	t.Run("skips the bot itself", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Friends", context.TODO()).Return([]model.User{}, nil)
		social.On("Followers", context.TODO()).Return(users(bot.ID), nil)

		report, err := newTestListener(social, nil, false).FollowBack(context.TODO())
		require.NoError(t, err)
		assert.Zero(t, report.Attempted())
	})

	t.Run("returns listing errors", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Friends", context.TODO()).Return([]model.User(nil), errors.New("rate limited"))

		assert.Error(t, newTestListener(social, nil, false).OnConnect(context.TODO()))
		social.AssertNotCalled(t, "Followers", mock.Anything)
	})

	t.Run("simulates follows in test mode", func(t *testing.T) {
		social := new(MockSocialClient)
		social.On("Friends", context.TODO()).Return([]model.User{}, nil)
		social.On("Followers", context.TODO()).Return(users("4"), nil)

		assert.NoError(t, newTestListener(social, nil, true).OnConnect(context.TODO()))
		social.AssertNotCalled(t, "Follow", mock.Anything, mock.Anything)
	})
}
