package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/notfound/ballog/pkg/logger"
)

// httpClient wraps http.Client with a timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %d: %s", url, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *httpClient) postJSON(ctx context.Context, url string, userID string, in, out interface{}) (int, error) {
	var buf bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && len(body) > 0 && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("post %s: status %d: %s", url, resp.StatusCode, body)
	}
	return resp.StatusCode, nil
}

// plannedSubmission is one unit of work for the submitter pool.
type plannedSubmission struct {
	userID  uuid.UUID
	request submissionRequest
}

// submitAll pushes every planned submission through POST /reports with a
// bounded worker pool, then replays one of them to confirm the
// idempotency path answers duplicate.
func submitAll(ctx context.Context, cfg *Config, baseURL string, plans []plannedSubmission, stats *Stats) error {
	client := newHTTPClient(cfg.Timeout)
	url := baseURL + "/reports"

	var (
		sent     int64
		ok       int64
		failed   int64
		quarters int64
		reports  int64
	)

	workCh := make(chan plannedSubmission, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range workCh {
				var result submissionResult
				atomic.AddInt64(&sent, 1)
				_, err := client.postJSON(ctx, url, plan.userID.String(), plan.request, &result)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "submission failed", logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&ok, 1)
				atomic.AddInt64(&quarters, int64(result.QuartersCreated))
				atomic.AddInt64(&reports, int64(result.ReportsInserted))
			}
		}()
	}

	for _, plan := range plans {
		select {
		case <-ctx.Done():
			close(workCh)
			wg.Wait()
			return fmt.Errorf("submission interrupted: %w", ctx.Err())
		case workCh <- plan:
		}
	}
	close(workCh)
	wg.Wait()

	stats.SubmissionsSent = int(sent)
	stats.SubmissionsOK = int(ok)
	stats.SubmissionsFailed = int(failed)
	stats.QuartersCreated = int(quarters)
	stats.ReportsInserted = int(reports)

	if failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", failed, sent)
	}

	// Replay the first submission verbatim; the dedupe cache must absorb it.
	if len(plans) > 0 && plans[0].request.SubmissionID != "" {
		var result submissionResult
		status, err := client.postJSON(ctx, url, plans[0].userID.String(), plans[0].request, &result)
		if err != nil {
			return fmt.Errorf("duplicate replay: %w", err)
		}
		if status != http.StatusOK || !result.Duplicate {
			return fmt.Errorf("duplicate replay not detected: status %d duplicate %v", status, result.Duplicate)
		}
		stats.SubmissionsDuplicate++
	}

	return nil
}
