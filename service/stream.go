package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/g8rswimmer/go-twitter/v2"
	log "github.com/sirupsen/logrus"
	"github.com/truemediaorg/catbot/config"
	"github.com/truemediaorg/catbot/model"
	"github.com/truemediaorg/catbot/stream"
	twitterutil "github.com/truemediaorg/catbot/twitter"
	"github.com/truemediaorg/catbot/watcher"
	"golang.org/x/exp/maps"
)

// How often the keep-alive flag of the stream is checked
const defaultHeartbeatCheck = 5 * time.Second

// TwitterStreamSource merges the filtered tweet stream with follower
// polling into one event stream.
type TwitterStreamSource struct {
	twitterService *TwitterService
	keywords       string
	maxRules       int
	pollInterval   time.Duration
	heartbeatCheck time.Duration
	log            log.FieldLogger
}

func NewTwitterStreamSource(twitterService *TwitterService, cfg config.Config, logger log.FieldLogger) *TwitterStreamSource {
	return &TwitterStreamSource{
		twitterService: twitterService,
		keywords:       cfg.Twitter.StreamRule,
		maxRules:       cfg.Twitter.MaxStreamRules,
		pollInterval:   cfg.Twitter.FollowerPollInterval,
		heartbeatCheck: defaultHeartbeatCheck,
		log:            logger,
	}
}

// Connect syncs the stream rules, opens the filtered stream and starts the
// follower watcher. The connection lives until Close or until ctx is done.
func (s *TwitterStreamSource) Connect(ctx context.Context) (stream.Connection, error) {
	if err := s.syncRules(ctx); err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	dropped := make(chan error, 1)
	tweets, err := s.streamClient(dropped).TweetSearchStream(streamCtx, twitter.TweetSearchStreamOpts{
		TweetFields: []twitter.TweetField{twitter.TweetFieldAuthorID, twitter.TweetFieldReferencedTweets},
		UserFields:  []twitter.UserField{twitter.UserFieldName, twitter.UserFieldUserName},
		Expansions:  []twitter.Expansion{twitter.ExpansionAuthorID},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("error opening tweet stream: %w", err)
	}

	followWatcher := watcher.NewWatcher(s.twitterService, s.pollInterval, s.log)
	if err := followWatcher.Start(streamCtx); err != nil {
		cancel()
		tweets.Close()
		return nil, err
	}

	conn := &twitterConnection{
		tweets:         tweets,
		watcher:        followWatcher,
		dropped:        dropped,
		cancel:         cancel,
		heartbeatCheck: s.heartbeatCheck,
		events:         make(chan stream.Event),
		done:           make(chan struct{}),
		log:            s.log,
	}
	go conn.pump(streamCtx)
	s.log.Info("stream connected")
	return conn, nil
}

// streamClient returns a copy of the bearer client whose responses report
// the end of their body on dropped.
func (s *TwitterStreamSource) streamClient(dropped chan<- error) *twitter.Client {
	api := s.twitterService.apiClient
	httpClient := http.DefaultClient
	if api.Client != nil {
		httpClient = api.Client
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *httpClient
	wrapped.Transport = &dropTransport{base: base, dropped: dropped}
	return &twitter.Client{
		Authorizer: api.Authorizer,
		Client:     &wrapped,
		Host:       api.Host,
	}
}

type twitterConnection struct {
	tweets         *twitter.TweetStream
	watcher        *watcher.Watcher
	dropped        <-chan error
	cancel         context.CancelFunc
	heartbeatCheck time.Duration
	events         chan stream.Event
	done           chan struct{}
	once           sync.Once
	log            log.FieldLogger
}

func (c *twitterConnection) Events() <-chan stream.Event {
	return c.events
}

// Close cancels the request first: the library only takes the close signal
// between reads, and an idle stream would otherwise hold it.
func (c *twitterConnection) Close() {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
		c.tweets.Close()
		if err := c.watcher.Stop(); err != nil {
			c.log.WithError(err).Warn("error stopping follower watcher")
		}
	})
}

// pump forwards everything into the single ordered events channel. It
// closes that channel when it returns.
func (c *twitterConnection) pump(ctx context.Context) {
	defer close(c.events)
	heartbeat := time.NewTicker(c.heartbeatCheck)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg, ok := <-c.tweets.Tweets():
			if !ok {
				c.send(ctx, stream.Event{Err: errors.New("tweet stream closed")})
				return
			}
			if !c.forward(ctx, msg) {
				return
			}
		case event := <-c.watcher.Follows():
			if !c.send(ctx, stream.Event{Follow: &event}) {
				return
			}
		case err, ok := <-c.tweets.Err():
			if !ok {
				err = errors.New("tweet stream closed")
			}
			c.send(ctx, stream.Event{Err: err})
			return
		case disconnect := <-c.tweets.DisconnectionError():
			c.send(ctx, stream.Event{Err: fmt.Errorf("stream disconnected: %v", disconnect)})
			return
		case err := <-c.dropped:
			// Statuses read before the drop are still delivered
			if !c.drain(ctx) {
				return
			}
			c.send(ctx, stream.Event{Err: fmt.Errorf("stream connection dropped: %w", err)})
			return
		case <-heartbeat.C:
			if !c.tweets.Connection() {
				c.send(ctx, stream.Event{Err: errors.New("stream keep-alive lapsed")})
				return
			}
		}
	}
}

func (c *twitterConnection) forward(ctx context.Context, msg *twitter.TweetMessage) bool {
	if msg == nil || msg.Raw == nil {
		return true
	}
	for _, status := range statusesFromRaw(msg.Raw) {
		if !c.send(ctx, stream.Event{Status: &status}) {
			return false
		}
	}
	return true
}

func (c *twitterConnection) drain(ctx context.Context) bool {
	for {
		select {
		case msg, ok := <-c.tweets.Tweets():
			if !ok {
				return true
			}
			if !c.forward(ctx, msg) {
				return false
			}
		default:
			return true
		}
	}
}

func (c *twitterConnection) send(ctx context.Context, event stream.Event) bool {
	select {
	case c.events <- event:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

// dropTransport wraps stream response bodies in dropBody.
type dropTransport struct {
	base    http.RoundTripper
	dropped chan<- error
}

func (t *dropTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Body = &dropBody{ReadCloser: resp.Body, dropped: t.dropped}
	return resp, nil
}

// dropBody reports the first read error, EOF included, on dropped. Data
// returned together with an error is handed out first and the error is
// held back for the next read, so every complete message is parsed before
// the drop is reported. Reads come from a single goroutine.
type dropBody struct {
	io.ReadCloser
	dropped chan<- error
	pending error
	once    sync.Once
}

func (b *dropBody) Read(p []byte) (int, error) {
	if b.pending != nil {
		b.report(b.pending)
		return 0, b.pending
	}
	n, err := b.ReadCloser.Read(p)
	if err != nil && n > 0 {
		b.pending = err
		return n, nil
	}
	if err != nil {
		b.report(err)
	}
	return n, err
}

func (b *dropBody) report(err error) {
	b.once.Do(func() {
		select {
		case b.dropped <- err:
		default:
		}
	})
}

// statusesFromRaw converts the tweets of one stream message, oldest first.
func statusesFromRaw(raw *twitter.TweetRaw) []model.Status {
	dictionaries := maps.Values(raw.TweetDictionaries())
	sort.Slice(dictionaries, func(i, j int) bool {
		return lessID(dictionaries[i].Tweet.ID, dictionaries[j].Tweet.ID)
	})
	statuses := make([]model.Status, 0, len(dictionaries))
	for _, dictionary := range dictionaries {
		statuses = append(statuses, twitterutil.StatusFromTweetDictionary(dictionary))
	}
	return statuses
}

// lessID orders numeric string ids without parsing them.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
