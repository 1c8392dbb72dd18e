package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK        = "ok"
	ResultFailed    = "failed"
	ResultSimulated = "simulated"
	ResultSkipped   = "skipped"
)

var (
	StatusesSeen = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catbot_statuses_seen_total",
		Help: "Statuses delivered by the stream",
	})
	StatusesMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catbot_statuses_matched_total",
		Help: "Statuses whose text matched a pattern",
	})
	Replies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catbot_replies_total",
		Help: "Cat replies by result",
	}, []string{"result"})
	Follows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catbot_follows_total",
		Help: "Follow calls by result",
	}, []string{"result"})
	StreamSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catbot_stream_sessions_total",
		Help: "Stream connection attempts",
	})
	StreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catbot_stream_errors_total",
		Help: "Stream sessions ended by an error",
	})
)

func init() {
	prometheus.MustRegister(StatusesSeen, StatusesMatched, Replies, Follows, StreamSessions, StreamErrors)
}

func IncReply(result string) { Replies.WithLabelValues(result).Inc() }

func IncFollow(result string) { Follows.WithLabelValues(result).Inc() }
