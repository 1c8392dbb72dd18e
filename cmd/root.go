package cmd

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/truemediaorg/catbot/config"
)

var rootCmd = &cobra.Command{
	Use:   "catbot",
	Short: "catbot replies to gloomy posts with cat pictures",
	Long: `catbot listens to the X stream, replies to posts asking for a cat (or
feeling down) with a random cat GIF, and follows back its followers.
Running it without a subcommand starts the listen loop.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listen()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Exit with a nonzero exit code if the command fails with an error
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration, sets up logging and resolves
// credentials stored in AWS Secrets Manager.
func loadConfig(ctx context.Context) config.Config {
	cfg, err := config.FromEnvfile()
	if err != nil {
		log.Fatal(err)
	}
	cfg.ConfigureLogging()

	if cfg.NeedsSecretsManager() {
		awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal(err)
		}
		if err := cfg.ResolveSecrets(ctx, secretsmanager.NewFromConfig(awsConfig)); err != nil {
			log.Fatal(err)
		}
	}
	return cfg
}
