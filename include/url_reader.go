package include

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// URLSourceReader fetches include(url(...)) locators over HTTP,
// retrying transient failures with exponential backoff: a fresh
// backoff per call (backoffs are stateful and must not be reused
// across calls), capped at a small fixed number of attempts, with 5xx
// responses and transport errors marked retryable and 4xx responses
// treated as permanent failures.
type URLSourceReader struct {
	Client     *http.Client
	MaxRetries uint64
}

// NewURLSourceReader returns a URLSourceReader with sane defaults: a
// 10-second per-attempt timeout and up to 3 retries.
func NewURLSourceReader() *URLSourceReader {
	return &URLSourceReader{
		Client:     &http.Client{Timeout: 10 * time.Second},
		MaxRetries: 3,
	}
}

// Read fetches locator over HTTP(S).
func (r *URLSourceReader) Read(ctx context.Context, locator string) (string, error) {
	backoff := retry.WithMaxRetries(r.MaxRetries, retry.NewExponential(100*time.Millisecond))

	var body string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
		if err != nil {
			return err
		}
		resp, err := r.Client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(errFetchFailed(locator, httpStatusError(resp.StatusCode)))
		}
		if resp.StatusCode == http.StatusNotFound {
			return errNotFound(locator, httpStatusError(resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return errFetchFailed(locator, httpStatusError(resp.StatusCode))
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		body = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

type httpStatusError int

func (e httpStatusError) Error() string {
	return http.StatusText(int(e))
}
