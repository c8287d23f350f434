package sys

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/go-resty/resty/v2"
)

// Fetcher downloads attachment bytes.
type Fetcher struct {
	client *resty.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", GetProjectName()+"/1.0"),
	}
}

// Fetch returns the body of url, failing on any non-2xx status.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}
