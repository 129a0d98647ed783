package birdsy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	bhttp "birdsync/http"
	"birdsync/internal/retry"
)

// DayCounts returns the per-day episode counts in the order the service
// lists them. On error it returns an empty, non-nil slice alongside the error.
func (c *Client) DayCounts(ctx context.Context, token string) ([]Day, error) {
	var resp daysResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, c.url(daysPath), nil, &resp, authHeaders(token)); err != nil {
		return []Day{}, wrap("days", err)
	}
	if resp.Meta.Days == nil {
		return []Day{}, nil
	}
	return resp.Meta.Days, nil
}

// CountForDate fetches the day list again and returns the count recorded for
// date, or 0 when the day is absent. On error it returns 0 and the error.
func (c *Client) CountForDate(ctx context.Context, token, date string) (int, error) {
	days, err := c.DayCounts(ctx, token)
	if err != nil {
		return 0, err
	}
	for _, d := range days {
		if SameDay(d.Date, date) {
			return d.Count, nil
		}
	}
	return 0, nil
}

// Episodes resolves the day's total with CountForDate and pages through the
// listing until that many episodes have been collected.
func (c *Client) Episodes(ctx context.Context, token, date string) ([]Episode, error) {
	total, err := c.CountForDate(ctx, token, date)
	if err != nil {
		return []Episode{}, err
	}
	return c.EpisodesWithTotal(ctx, token, date, total)
}

// EpisodesWithTotal requests pages 1, 2, 3, … of the listing for date until
// total episodes have been accumulated.
//
// A 404 page or an empty page ends the listing early and the partial result
// is returned without error. Server errors, network errors and per-request
// timeouts are attempted again on the same page, up to the configured attempt
// limit. When the attempts run out, or another 4xx answer makes a repeat
// pointless, the partial result is returned with an error wrapping
// ErrPageFailed.
func (c *Client) EpisodesWithTotal(ctx context.Context, token, date string, total int) ([]Episode, error) {
	episodes := make([]Episode, 0, max(total, 0))

	for page := 1; len(episodes) < total; page++ {
		batch, err := c.fetchPage(ctx, token, date, page)
		if err != nil {
			if bhttp.IsNotFound(err) {
				c.log.Debug().Str("date", date).Int("page", page).Int("have", len(episodes)).Int("want", total).
					Msg("listing ended with not found")
				return episodes, nil
			}
			return episodes, wrap("episodes", fmt.Errorf("%w: date %s page %d: %w", ErrPageFailed, date, page, err))
		}
		if len(batch) == 0 {
			c.log.Warn().Str("date", date).Int("page", page).Int("have", len(episodes)).Int("want", total).
				Msg("listing returned an empty page before reaching the day's count")
			return episodes, nil
		}
		episodes = append(episodes, batch...)
	}

	return episodes, nil
}

// fetchPage requests one listing page, attempting it up to c.pages.MaxAttempts times.
func (c *Client) fetchPage(ctx context.Context, token, date string, page int) ([]Episode, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("date", date)
	pageURL := c.url(episodesPath) + "?" + q.Encode()

	var batch []Episode
	attempt := 0
	err := retry.Do(ctx, c.pages, pageRetryable(ctx), func(ctx context.Context) error {
		attempt++
		var resp episodesResponse
		if err := c.http.DoJSON(ctx, http.MethodGet, pageURL, nil, &resp, authHeaders(token)); err != nil {
			if finalStatus(bhttp.StatusCode(err)) {
				return retry.Permanent(err)
			}
			c.log.Warn().Err(err).Str("date", date).Int("page", page).Int("attempt", attempt).
				Msg("failed to get videos for date")
			return err
		}
		batch = resp.Data
		return nil
	})
	return batch, err
}

// finalStatus reports whether another request for the same page cannot
// succeed: 404 ends a listing, and other client errors (a stale token, a
// malformed date) repeat identically. 408 and 429 are worth another attempt.
func finalStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return bhttp.IsClientError(code)
}

// pageRetryable classifies page errors. A request that hit the per-call
// timeout is attempted again as long as the run itself is still live.
func pageRetryable(run context.Context) retry.ErrorClassifier {
	return func(err error) bool {
		if errors.Is(err, context.DeadlineExceeded) && run.Err() == nil {
			return true
		}
		return retry.IsRetryable(err)
	}
}
