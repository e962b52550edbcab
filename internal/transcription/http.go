package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxHTTPRetries = 3

// doJSON sends the request built by newReq and decodes a JSON reply into
// target. 5xx and network errors are retried; 4xx is returned immediately.
// newReq is called once per attempt so request bodies can be reopened.
func doJSON(ctx context.Context, client *http.Client, newReq func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	op := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(string(body), 300))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("client error %d: %s", resp.StatusCode, truncate(string(body), 300)))
		}
		if len(body) == 0 {
			return backoff.Permanent(fmt.Errorf("empty body"))
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %w body=%s", err, truncate(string(body), 300)))
		}
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(bo, maxHTTPRetries), ctx)
	return backoff.Retry(op, b)
}
