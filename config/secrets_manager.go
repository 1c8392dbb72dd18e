package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
)

// SecretGetter is the subset of the Secrets Manager client used here.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveSecrets fills credentials missing from the environment with the
// JSON secrets stored at the configured Secrets Manager paths.
func (c *Config) ResolveSecrets(ctx context.Context, secrets SecretGetter) error {
	if c.Twitter.SecretPath != "" {
		var twitterSecrets TwitterSecretData
		if err := readSecret(ctx, secrets, c.Twitter.SecretPath, &twitterSecrets); err != nil {
			return fmt.Errorf("twitter secrets read error: %w", err)
		}
		c.Twitter.Credentials.merge(twitterSecrets)
		log.WithField("path", c.Twitter.SecretPath).Debug("loaded twitter secrets")
	}
	if c.Giphy.SecretPath != "" {
		var giphySecrets GiphySecretData
		if err := readSecret(ctx, secrets, c.Giphy.SecretPath, &giphySecrets); err != nil {
			return fmt.Errorf("giphy secrets read error: %w", err)
		}
		c.Giphy.Credentials.merge(giphySecrets)
		log.WithField("path", c.Giphy.SecretPath).Debug("loaded giphy secrets")
	}
	return nil
}

func readSecret(ctx context.Context, secrets SecretGetter, path string, out any) error {
	result, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(path)})
	if err != nil {
		return err
	}
	if result.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", path)
	}
	return json.Unmarshal([]byte(*result.SecretString), out)
}
