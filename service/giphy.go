package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/truemediaorg/catbot/config"
	"github.com/truemediaorg/catbot/giphy"
)

type GiphyService struct {
	client     *giphy.Client
	httpClient *http.Client
	log        log.FieldLogger
}

func NewGiphyService(cfg config.Config, logger log.FieldLogger) *GiphyService {
	client := giphy.NewClient(cfg.Giphy.Credentials.ApiKey, cfg.Giphy.ApiURL)
	logger.Infof("Giphy client initialized. Host: %s", cfg.Giphy.ApiURL.String())

	return &GiphyService{
		client:     client,
		httpClient: http.DefaultClient,
		log:        logger,
	}
}

// RandomImageURL returns the URL of one random GIF with the given tag.
func (s *GiphyService) RandomImageURL(ctx context.Context, tag string) (string, error) {
	resp, err := s.client.Random(ctx, tag)
	if err != nil {
		return "", err
	}
	imageURL, err := resp.ImageURL()
	if err != nil {
		return "", err
	}
	s.log.WithField("gifID", resp.Data.ID).WithField("imageURL", imageURL).Debug("picked random gif")
	return imageURL, nil
}

// Download fetches the image bytes.
func (s *GiphyService) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
