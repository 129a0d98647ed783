package archiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"birdsync/birdsy"
	"birdsync/internal/storage"

	"github.com/rs/zerolog"
)

// fakeCatalog implements Catalog in memory and records every call.
type fakeCatalog struct {
	days     []birdsy.Day
	episodes map[string][]birdsy.Episode
	blobs    map[string]string // url -> content

	daysErr     error
	countErr    error
	episodesErr error
	deleteErr   map[string]error
	fetchErr    map[string]error

	daysCalls     int
	countCalls    int
	episodesCalls []string
	deleted       []string
	fetched       []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		episodes:  make(map[string][]birdsy.Episode),
		blobs:     make(map[string]string),
		deleteErr: make(map[string]error),
		fetchErr:  make(map[string]error),
	}
}

func episode(id string, favorite bool) birdsy.Episode {
	return birdsy.Episode{
		ID:         birdsy.StringID(id),
		Favorite:   favorite,
		Title:      "Visit " + id,
		RecordedAt: "2024-01-01 10:00",
		Duration:   30,
		ImageURL:   "http://cdn/" + id + ".jpg",
		VideoURL:   "http://cdn/" + id + ".mp4",
	}
}

// addDay registers a day with the given episodes and artifact contents.
func (f *fakeCatalog) addDay(date string, eps ...birdsy.Episode) {
	f.days = append(f.days, birdsy.Day{Date: date, Count: len(eps)})
	f.episodes[date] = append(f.episodes[date], eps...)
	for _, e := range eps {
		f.blobs[e.ImageURL] = "jpeg:" + e.ID.String()
		f.blobs[e.VideoURL] = "mp4:" + e.ID.String()
	}
}

func (f *fakeCatalog) DayCounts(ctx context.Context, token string) ([]birdsy.Day, error) {
	f.daysCalls++
	if f.daysErr != nil {
		return []birdsy.Day{}, f.daysErr
	}
	return append([]birdsy.Day{}, f.days...), nil
}

func (f *fakeCatalog) CountForDate(ctx context.Context, token, date string) (int, error) {
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	for _, d := range f.days {
		if birdsy.SameDay(d.Date, date) {
			return d.Count, nil
		}
	}
	return 0, nil
}

func (f *fakeCatalog) EpisodesWithTotal(ctx context.Context, token, date string, total int) ([]birdsy.Episode, error) {
	f.episodesCalls = append(f.episodesCalls, date)
	all := f.episodes[date]
	if f.episodesErr != nil {
		return all[:len(all)/2], f.episodesErr
	}
	return all[:min(total, len(all))], nil
}

func (f *fakeCatalog) DeleteEpisode(ctx context.Context, token string, id birdsy.EpisodeID) error {
	f.deleted = append(f.deleted, id.String())
	return f.deleteErr[id.String()]
}

func (f *fakeCatalog) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	f.fetched = append(f.fetched, url)
	if err := f.fetchErr[url]; err != nil {
		// Write a little first so a partial file would be visible.
		io.WriteString(w, "part")
		return 4, err
	}
	blob, ok := f.blobs[url]
	if !ok {
		return 0, errors.New("no such blob")
	}
	n, err := io.WriteString(w, blob)
	return int64(n), err
}

// harness wires a Runner to a fake catalog, a temp archive and a buffer.
type harness struct {
	catalog *fakeCatalog
	archive *storage.Archive
	out     *bytes.Buffer
	logs    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	archive, err := storage.Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	return &harness{
		catalog: newFakeCatalog(),
		archive: archive,
		out:     &bytes.Buffer{},
		logs:    &bytes.Buffer{},
	}
}

func (h *harness) runner(failFast bool) *Runner {
	return New(Options{
		Catalog:  h.catalog,
		Archive:  h.archive,
		Token:    "tok",
		Printer:  NewPrinter(h.out, true),
		Logger:   zerolog.New(h.logs),
		FailFast: failFast,
	})
}

func (h *harness) exists(t *testing.T, id string) (csv, jpg, mp4 bool) {
	t.Helper()
	p := h.archive.Paths(id)
	return fileExists(p.Metadata), fileExists(p.Thumbnail), fileExists(p.Video)
}

func (h *harness) seedMetadata(t *testing.T, id string) {
	t.Helper()
	rec := storage.Record{ID: id, Title: "old"}
	if _, err := h.archive.WriteMetadata(rec); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}
}

func assertCounts(t *testing.T, rep *Report, want Report) {
	t.Helper()
	want.Action = rep.Action
	if *rep != want {
		t.Errorf("report = %s, want %s", describe(*rep), describe(want))
	}
}

func describe(r Report) string {
	return fmt.Sprintf("{days:%d episodes:%d downloaded:%d existing:%d notfav:%d deleted:%d kept:%d failures:%d}",
		r.Days, r.Episodes, r.Downloaded, r.SkippedExisting, r.SkippedNotFavorite, r.Deleted, r.Kept, r.Failures)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
