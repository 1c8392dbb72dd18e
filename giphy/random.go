package giphy

import (
	"encoding/json"
	"errors"
)

var ErrNoImage = errors.New("giphy response has no image url")

type Rendition struct {
	URL string `json:"url"`
}

type Images struct {
	Original Rendition `json:"original"`
}

type GIF struct {
	ID string `json:"id"`
	// Legacy flat field; newer responses only fill Images.
	ImageURL string `json:"image_url,omitempty"`
	Images   Images `json:"images"`
}

func (g *GIF) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		*g = GIF{}
		return nil
	}
	type plain GIF
	return json.Unmarshal(data, (*plain)(g))
}

type Meta struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

/*
The random endpoint answers with an empty array in "data" when nothing is
found for the tag, so Data is decoded leniently and ImageURL reports the
missing image as ErrNoImage.
*/
type RandomResponse struct {
	Data GIF  `json:"data"`
	Meta Meta `json:"meta"`
}

// ImageURL returns the GIF's image URL, preferring the legacy field.
func (r RandomResponse) ImageURL() (string, error) {
	if r.Data.ImageURL != "" {
		return r.Data.ImageURL, nil
	}
	if r.Data.Images.Original.URL != "" {
		return r.Data.Images.Original.URL, nil
	}
	return "", ErrNoImage
}
