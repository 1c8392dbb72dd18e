package model

type FollowEventKind string

const (
	FollowEventKindFollow FollowEventKind = "follow"
)

type FollowEvent struct {
	Kind   FollowEventKind
	Source User
}
