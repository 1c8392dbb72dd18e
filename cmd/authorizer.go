package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dghubble/oauth1"
	twauth "github.com/dghubble/oauth1/twitter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(authorizerCmd)
}

var authorizerCmd = &cobra.Command{
	Use:   "authorizer",
	Short: "Generates the access key/secret pair catbot posts with",
	Long: `Runs the OAuth1 PIN flow with the configured consumer key/secret and prints
the access key/secret to put in TWITTER_ACCESS_KEY and TWITTER_ACCESS_SECRET.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(context.Background())
		creds := cfg.Twitter.Credentials
		if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
			log.Fatal("consumer key and secret are required")
		}

		oauthConfig := oauth1.Config{
			ConsumerKey:    creds.ConsumerKey,
			ConsumerSecret: creds.ConsumerSecret,
			CallbackURL:    "oob",
			Endpoint:       twauth.AuthorizeEndpoint,
		}

		requestToken, err := login(oauthConfig, os.Stdout)
		if err != nil {
			log.Fatalf("Request Token Phase: %s", err.Error())
		}
		accessToken, err := receivePIN(oauthConfig, requestToken, os.Stdin, os.Stdout)
		if err != nil {
			log.Fatalf("Access Token Phase: %s", err.Error())
		}

		fmt.Println("Consumer was granted an access token to act on behalf of a user.")
		fmt.Printf("%s=%s\n%s=%s\n", "TWITTER_ACCESS_KEY", accessToken.Token, "TWITTER_ACCESS_SECRET", accessToken.TokenSecret)
	},
}

// Adapted from the oauth1 library's twitter PIN example
// https://github.com/dghubble/oauth1/blob/main/examples/twitter-login.go

func login(oauthConfig oauth1.Config, out io.Writer) (requestToken string, err error) {
	requestToken, _, err = oauthConfig.RequestToken()
	if err != nil {
		return "", err
	}
	authorizationURL, err := oauthConfig.AuthorizationURL(requestToken)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Open this URL in your browser:\n%s\n", authorizationURL.String())
	return requestToken, err
}

func receivePIN(oauthConfig oauth1.Config, requestToken string, in io.Reader, out io.Writer) (*oauth1.Token, error) {
	fmt.Fprintf(out, "Paste your PIN here: ")
	verifier, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return nil, fmt.Errorf("no PIN given")
	}
	// The request token secret is not checked by Twitter on the access token
	// request, so it isn't kept between the two phases.
	accessToken, accessSecret, err := oauthConfig.AccessToken(requestToken, "secret does not matter", verifier)
	if err != nil {
		return nil, err
	}
	return oauth1.NewToken(accessToken, accessSecret), err
}
