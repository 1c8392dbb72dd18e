package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Twitter TwitterConfig
	Giphy   GiphyConfig

	HealthcheckPort int `validate:"min=1,max=65535"`

	LogLevel        log.Level
	LogFormat       LogFormat
	TestModeEnabled bool
}

type TwitterConfig struct {
	Credentials TwitterSecretData
	SecretPath  string

	// Keyword part of the filtered stream rules. It is combined with the
	// account scope, so it must leave room under the rule length limit.
	StreamRule           string        `validate:"required,max=400"`
	MaxStreamRules       int           `validate:"min=1"`
	FollowerPollInterval time.Duration `validate:"min=1s"`
	// Zero means follow calls are not paced.
	FollowRatePerMinute int `validate:"min=0"`
}

type GiphyConfig struct {
	ApiURL      url.URL
	Credentials GiphySecretData
	SecretPath  string
	Tag         string `validate:"required"`
}

type LogFormat string

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	defaultGiphyAPI             = "https://api.giphy.com/v1"
	defaultGiphyTag             = "cat"
	defaultStreamRule           = "고양이 OR 야옹이 OR 냐옹이 OR 냥이 OR 우울 OR 냐짤 OR 죽고"
	defaultMaxStreamRules       = 5
	defaultFollowerPollInterval = 60
	defaultHealthcheckPort      = 8080
)

type EnvfileKey string

const (
	// OAuth1 credentials of the account the bot posts as
	EnvfileKeyTwitterConsumerKey    = "TWITTER_CONSUMER_KEY"
	EnvfileKeyTwitterConsumerSecret = "TWITTER_CONSUMER_SECRET"
	EnvfileKeyTwitterAccessKey      = "TWITTER_ACCESS_KEY"
	EnvfileKeyTwitterAccessSecret   = "TWITTER_ACCESS_SECRET"
	// App-only token, used for the filtered stream
	EnvfileKeyTwitterBearerToken = "TWITTER_BEARER_TOKEN"
	// AWS Secrets Manager path where Twitter secrets can be found
	EnvfileKeyTwitterSecretPath = "TWITTER_SECRETS_PATH"
	// Keywords selecting candidate tweets; scoped to the account's mentions
	// and the accounts it follows
	EnvfileKeyTwitterStreamRule = "TWITTER_STREAM_RULE"
	// Most filtered stream rules the account scope may be split across
	EnvfileKeyTwitterMaxStreamRules = "TWITTER_MAX_STREAM_RULES"
	// Interval between follower list polls, in seconds
	EnvfileKeyFollowerPollInterval = "FOLLOWER_POLL_INTERVAL"
	// Maximum follow calls per minute, 0 for no limit
	EnvfileKeyFollowRatePerMinute = "FOLLOW_RATE_PER_MINUTE"

	// Giphy API key
	EnvfileKeyGiphyAPIKey = "GIPHY_API_KEY"
	// AWS Secrets Manager path where the Giphy API key can be found
	EnvfileKeyGiphySecretPath = "GIPHY_SECRETS_PATH"
	// Base URL to the Giphy API, including "/v1"
	EnvfileKeyGiphyAPI = "GIPHY_API"
	// Tag of the random GIFs to reply with
	EnvfileKeyGiphyTag = "GIPHY_TAG"

	// Port serving the healthcheck and metrics endpoints
	EnvfileKeyHealthcheckPort = "HEALTHCHECK_PORT"
	// Log level (e.g. "debug", "info", "warn", "error")
	EnvfileKeyLogLevel = "LOG_LEVEL"
	// Log output format (e.g. "text", "json")
	EnvfileKeyLogFormat = "LOG_FORMAT"
	// Enables "test mode" (bot simulates posting and following)
	EnvfileKeyTestMode = "TEST_MODE"
)

// FromEnvfile reads configuration from environment variables and an
// optional .env file in the working directory. Environment variables take
// precedence. Credentials are not validated here since they may still come
// from Secrets Manager; call Validate once they are resolved.
func FromEnvfile() (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("dotenv")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config: %w", err)
		}
	}

	giphyURL, err := url.Parse(getConfigString(v, EnvfileKeyGiphyAPI, defaultGiphyAPI))
	if err != nil {
		return Config{}, fmt.Errorf("error parsing Giphy URL: %w", err)
	}

	logLevel, err := log.ParseLevel(getConfigString(v, EnvfileKeyLogLevel, ""))
	if err != nil {
		// Default to info level but log a warning
		log.Warnf("unable to parse log level: %v", err)
		logLevel = log.InfoLevel
	}

	logFormat, err := parseLogFormat(getConfigString(v, EnvfileKeyLogFormat, ""))
	if err != nil {
		// Default to text formatter but log a warning
		log.Warnf("unable to parse log format: %v", err)
		logFormat = LogFormatText
	}

	testMode, _ := strconv.ParseBool(getConfigString(v, EnvfileKeyTestMode, "false"))

	return Config{
		Twitter: TwitterConfig{
			Credentials: TwitterSecretData{
				BearerToken:       getConfigString(v, EnvfileKeyTwitterBearerToken, ""),
				AccessToken:       getConfigString(v, EnvfileKeyTwitterAccessKey, ""),
				AccessTokenSecret: getConfigString(v, EnvfileKeyTwitterAccessSecret, ""),
				ConsumerKey:       getConfigString(v, EnvfileKeyTwitterConsumerKey, ""),
				ConsumerSecret:    getConfigString(v, EnvfileKeyTwitterConsumerSecret, ""),
			},
			SecretPath:           getConfigString(v, EnvfileKeyTwitterSecretPath, ""),
			StreamRule:           getConfigString(v, EnvfileKeyTwitterStreamRule, defaultStreamRule),
			MaxStreamRules:       getConfigInt(v, EnvfileKeyTwitterMaxStreamRules, defaultMaxStreamRules),
			FollowerPollInterval: time.Duration(getConfigInt(v, EnvfileKeyFollowerPollInterval, defaultFollowerPollInterval)) * time.Second,
			FollowRatePerMinute:  getConfigInt(v, EnvfileKeyFollowRatePerMinute, 0),
		},
		Giphy: GiphyConfig{
			ApiURL:      *giphyURL,
			Credentials: GiphySecretData{ApiKey: getConfigString(v, EnvfileKeyGiphyAPIKey, "")},
			SecretPath:  getConfigString(v, EnvfileKeyGiphySecretPath, ""),
			Tag:         getConfigString(v, EnvfileKeyGiphyTag, defaultGiphyTag),
		},
		HealthcheckPort: getConfigInt(v, EnvfileKeyHealthcheckPort, defaultHealthcheckPort),
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		TestModeEnabled: testMode,
	}, nil
}

// Validate checks the whole configuration, credentials included.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// NeedsSecretsManager reports whether any credentials come from AWS.
func (c Config) NeedsSecretsManager() bool {
	return c.Twitter.SecretPath != "" || c.Giphy.SecretPath != ""
}

// ConfigureLogging applies the configured level and format to the standard
// logrus logger.
func (c Config) ConfigureLogging() {
	log.SetOutput(os.Stderr)
	log.SetLevel(c.LogLevel)
	switch c.LogFormat {
	case LogFormatJSON:
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(raw) {
	case LogFormatJSON:
		return LogFormatJSON, nil
	case LogFormatText:
		return LogFormatText, nil
	default:
		return "", fmt.Errorf("unidentified log format: %s", raw)
	}
}

// Gets a config value as a string from env vars or a .env file
func getConfigString(v *viper.Viper, key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		value = v.GetString(key)
	}
	if value == "" {
		return fallback
	}
	return value
}

// Gets a config value as an int from env vars or a .env file
func getConfigInt(v *viper.Viper, key string, fallback int) int {
	raw := getConfigString(v, key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("unable to parse %s as an integer: %v", key, err)
		return fallback
	}
	return value
}
