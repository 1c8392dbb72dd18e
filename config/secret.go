package config

type TwitterSecretData struct {
	BearerToken       string `json:"bearerToken"       validate:"required"`
	AccessToken       string `json:"accessToken"       validate:"required"`
	AccessTokenSecret string `json:"accessTokenSecret" validate:"required"`
	ConsumerKey       string `json:"consumerKey"       validate:"required"`
	ConsumerSecret    string `json:"consumerSecret"    validate:"required"`
}

type GiphySecretData struct {
	ApiKey string `json:"apiKey" validate:"required"`
}

// merge fills the blank fields of s from other. Values already set from
// the environment win.
func (s *TwitterSecretData) merge(other TwitterSecretData) {
	fill(&s.BearerToken, other.BearerToken)
	fill(&s.AccessToken, other.AccessToken)
	fill(&s.AccessTokenSecret, other.AccessTokenSecret)
	fill(&s.ConsumerKey, other.ConsumerKey)
	fill(&s.ConsumerSecret, other.ConsumerSecret)
}

func (s *GiphySecretData) merge(other GiphySecretData) {
	fill(&s.ApiKey, other.ApiKey)
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
