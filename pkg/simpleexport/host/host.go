// Package host holds the pieces shared by the concrete download hosts under
// its subdirectories.
package host

import (
	"context"
	"fmt"
	"io"

	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

// Open returns the body a download link points at. Object URLs are
// dereferenced through urls; anything else goes to fetcher.
func Open(ctx context.Context, urls *simpleexport.ObjectURLs, fetcher remote.Fetcher, href string) (*remote.Resource, error) {
	if simpleexport.IsObjectURL(href) {
		b, ok := urls.Lookup(href)
		if !ok {
			return nil, fmt.Errorf("%w: %s", simpleexport.ErrUnknownReference, href)
		}
		return &remote.Resource{
			Body:        io.NopCloser(b.Reader()),
			ContentType: b.Type(),
			Size:        int64(b.Size()),
		}, nil
	}

	if fetcher == nil {
		return nil, fmt.Errorf("%w: %s", simpleexport.ErrRemoteUnavailable, href)
	}
	res, err := fetcher.Fetch(ctx, href)
	if err != nil {
		return nil, err
	}
	if res.ContentType == "" {
		res.ContentType = simpleexport.ForceDownloadMimeType
	}
	return res, nil
}
