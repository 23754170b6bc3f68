// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dialpad

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/delendaest/commhub/internal/cache"
	"github.com/delendaest/commhub/internal/timeline"
)

// Stat types accepted by the export endpoint.
const (
	StatCalls = "calls"
	StatTexts = "texts"
)

// JobError reports an export job that reached a failure status or never
// reached a terminal one within the poll budget.
type JobError struct {
	JobID      string
	LastStatus string
	Attempts   int
}

func (e *JobError) Error() string {
	return fmt.Sprintf("export job %s did not complete after %d attempts (last status %q)",
		e.JobID, e.Attempts, e.LastStatus)
}

// submitResponse is the export submission reply. The ID field name has
// varied across API revisions, so both spellings are accepted.
type submitResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
}

// statusResponse is one poll of an export job.
type statusResponse struct {
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
}

// FetchStats returns the call or text history records for one user over
// the lookback window. It submits an asynchronous export, polls it to
// completion, downloads the report, and parses it. Results are cached
// per (user, stat type, window) for an hour.
func (c *Client) FetchStats(ctx context.Context, userID, statType string, days int) ([]timeline.Record, error) {
	key := cache.Key(userID, statType, days)
	if recs, ok := c.statsCache.Get(key); ok {
		return recs, nil
	}

	jobID, err := c.submitExport(ctx, userID, statType, days)
	if err != nil {
		return nil, err
	}

	status, err := c.pollExport(ctx, jobID)
	if err != nil {
		return nil, err
	}

	data, err := c.rc.Download(ctx, status.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("download export %s: %w", jobID, err)
	}

	recs, err := parseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parse export %s: %w", jobID, err)
	}

	c.statsCache.Set(key, recs)
	return recs, nil
}

// submitExport starts a records export for one user. The POST is not
// retried: Dialpad offers no idempotency token and a duplicate request
// would create a duplicate job.
func (c *Client) submitExport(ctx context.Context, userID, statType string, days int) (string, error) {
	body := map[string]any{
		"export_type":    "records",
		"stat_type":      statType,
		"target_type":    "user",
		"target_id":      userID,
		"days_ago_start": days,
		"days_ago_end":   0,
		"timezone":       "UTC",
	}

	var resp submitResponse
	if err := c.rc.PostJSON(ctx, c.baseURL+"/stats", body, &resp); err != nil {
		return "", fmt.Errorf("submit %s export for user %s: %w", statType, userID, err)
	}

	jobID := resp.ID
	if jobID == "" {
		jobID = resp.RequestID
	}
	if jobID == "" {
		return "", fmt.Errorf("submit %s export for user %s: response carried no job id", statType, userID)
	}

	slog.Debug("export job submitted", "user", userID, "stat_type", statType, "job_id", jobID)
	return jobID, nil
}

// completeStatuses are the terminal-success spellings observed upstream.
var completeStatuses = map[string]bool{
	"complete":  true,
	"completed": true,
}

// pollExport polls an export job until it completes, fails, or the
// attempt budget runs out. Backoff is exponential with jitter
// (base << attempt plus up to base of randomness).
func (c *Client) pollExport(ctx context.Context, jobID string) (*statusResponse, error) {
	lastStatus := "unknown"

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		var status statusResponse
		if err := c.rc.GetJSON(ctx, c.baseURL+"/stats/"+jobID, &status); err != nil {
			return nil, fmt.Errorf("poll export %s: %w", jobID, err)
		}

		if completeStatuses[strings.ToLower(status.Status)] {
			return &status, nil
		}
		lastStatus = status.Status

		if strings.EqualFold(status.Status, "failed") {
			return nil, &JobError{JobID: jobID, LastStatus: status.Status, Attempts: attempt + 1}
		}

		delay := c.pollBase<<uint(attempt) + time.Duration(rand.Int63n(int64(c.pollBase)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &JobError{JobID: jobID, LastStatus: lastStatus, Attempts: c.pollAttempts}
}

// parseRecords parses the exported report (CSV with a header row) into
// records keyed by column name. Values are trimmed; short rows are
// padded with empty fields rather than dropped.
func parseRecords(data []byte) ([]timeline.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var recs []timeline.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(recs)+1, err)
		}

		rec := make(timeline.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = strings.TrimSpace(row[i])
			} else {
				rec[col] = ""
			}
		}
		recs = append(recs, rec)
	}

	return recs, nil
}
