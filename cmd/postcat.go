package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/truemediaorg/catbot/listener"
	"github.com/truemediaorg/catbot/service"
)

func init() {
	rootCmd.AddCommand(postCatCmd)
}

var postCatCmd = &cobra.Command{
	Use:   "post-cat",
	Short: "Posts one random cat GIF as a standalone status",
	Long: `Posts one random cat GIF as a standalone status with no text. Handy to
check the credentials and the upload path end to end.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(ctx)
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}

		logger := log.StandardLogger()
		twitterService, err := service.NewTwitterService(ctx, cfg, logger.WithField("component", "twitter"))
		if err != nil {
			log.Fatalf("error connecting to X: %v", err)
		}
		giphyService := service.NewGiphyService(cfg, logger.WithField("component", "giphy"))
		catListener := listener.NewListener(twitterService, giphyService, twitterService.Me(), cfg, logger.WithField("component", "listener"))

		postID, err := catListener.PostCat(ctx)
		if err != nil {
			log.Fatalf("error posting cat: %v", err)
		}
		log.WithField("postID", postID).Info("posted a cat")
	},
}
