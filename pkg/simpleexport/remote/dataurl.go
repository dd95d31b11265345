package remote

import (
	"bytes"
	"context"
	"io"

	"github.com/tendant/simple-export/pkg/simpleexport"
)

// DataURLFetcher serves data-URLs by decoding them in place
type DataURLFetcher struct{}

// Fetch decodes resourceURL; malformed input yields the *simpleexport.DecodeError
func (DataURLFetcher) Fetch(ctx context.Context, resourceURL string) (*Resource, error) {
	data, mime, err := simpleexport.DecodeDataURL(resourceURL)
	if err != nil {
		return nil, err
	}
	if mime == "" {
		mime = simpleexport.ForceDownloadMimeType
	}
	return &Resource{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: mime,
		Size:        int64(len(data)),
	}, nil
}
