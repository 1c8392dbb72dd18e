package twitter

type TweetReferenceType string

const (
	TweetReferenceRepliedTo TweetReferenceType = "replied_to"
	TweetReferenceRetweeted TweetReferenceType = "retweeted"
	TweetReferenceQuoted    TweetReferenceType = "quoted"
)

// MediaUploadResponse is the v1.1 media/upload reply. Only the string id is
// used since the numeric one overflows float-based JSON decoders.
type MediaUploadResponse struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
	Size          int    `json:"size,omitempty"`
}
