// Package archiver runs one archival action against the Birdsy catalog: a
// full sync, or a list, delete or download of a single date.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"birdsync/birdsy"
	"birdsync/internal/storage"

	"github.com/rs/zerolog"
)

// Catalog is the part of the Birdsy API a run needs. *birdsy.Client
// implements it.
type Catalog interface {
	DayCounts(ctx context.Context, token string) ([]birdsy.Day, error)
	CountForDate(ctx context.Context, token, date string) (int, error)
	EpisodesWithTotal(ctx context.Context, token, date string, total int) ([]birdsy.Episode, error)
	DeleteEpisode(ctx context.Context, token string, id birdsy.EpisodeID) error
	Fetch(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Options configures a Runner.
type Options struct {
	Catalog Catalog
	Archive *storage.Archive
	// Token is the session token from birdsy.Client.Authenticate.
	Token string
	// Printer receives the run transcript. Nil discards it.
	Printer *Printer
	Logger  zerolog.Logger
	// FailFast aborts the run on the first catalog error instead of
	// continuing with an empty or partial result.
	FailFast bool
}

// Runner executes actions. A Runner is not safe for concurrent use; each
// action runs sequentially, one request and one file at a time.
type Runner struct {
	catalog  Catalog
	archive  *storage.Archive
	token    string
	out      *Printer
	log      zerolog.Logger
	failFast bool
}

// New creates a Runner.
func New(opts Options) *Runner {
	out := opts.Printer
	if out == nil {
		out = NewPrinter(io.Discard, true)
	}
	return &Runner{
		catalog:  opts.Catalog,
		archive:  opts.Archive,
		token:    opts.Token,
		out:      out,
		log:      opts.Logger,
		failFast: opts.FailFast,
	}
}

// Report counts what an action did.
type Report struct {
	Action             Action
	Days               int
	Episodes           int
	Downloaded         int
	SkippedExisting    int
	SkippedNotFavorite int
	Deleted            int
	Kept               int
	Failures           int
}

// MarshalZerologObject logs the counters as fields.
func (r Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("action", r.Action.String()).
		Int("days", r.Days).
		Int("episodes", r.Episodes).
		Int("downloaded", r.Downloaded).
		Int("skipped_existing", r.SkippedExisting).
		Int("skipped_not_favorite", r.SkippedNotFavorite).
		Int("deleted", r.Deleted).
		Int("kept", r.Kept).
		Int("failures", r.Failures)
}

// Run dispatches to the action. date is ignored by sync.
func (r *Runner) Run(ctx context.Context, action Action, date string) (*Report, error) {
	switch action {
	case ActionSync:
		return r.Sync(ctx)
	case ActionList:
		return r.List(ctx, date)
	case ActionDelete:
		return r.Delete(ctx, date)
	case ActionDownload:
		return r.Download(ctx, date)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// degrade applies the catalog error policy. It returns err when the run
// must stop and nil when it continues with the degraded value.
func (r *Runner) degrade(rep *Report, err error, msg string) error {
	if err == nil {
		return nil
	}
	if r.failFast || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	rep.Failures++
	r.log.Warn().Err(err).Msg(msg + "; continuing")
	return nil
}

// Sync walks the day list in reverse of the order the service returns it
// and downloads every favourite episode whose metadata file is absent.
func (r *Runner) Sync(ctx context.Context) (*Report, error) {
	rep := &Report{Action: ActionSync}

	days, err := r.catalog.DayCounts(ctx, r.token)
	if err := r.degrade(rep, err, "failed to get video counts"); err != nil {
		return rep, err
	}
	r.log.Debug().Int("days", len(days)).Msg("fetched day list")

	for i := len(days) - 1; i >= 0; i-- {
		day := days[i]
		rep.Days++
		r.out.Syncing(day)

		episodes, err := r.catalog.EpisodesWithTotal(ctx, r.token, day.Date, day.Count)
		if err := r.degrade(rep, err, "failed to get videos for "+day.Date); err != nil {
			return rep, err
		}

		for _, ep := range episodes {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			rep.Episodes++

			paths := r.archive.Paths(ep.ID.String())
			switch {
			case r.archive.HasMetadata(ep.ID.String()):
				rep.SkippedExisting++
				r.out.AlreadyDownloaded(ep.ID, paths.Metadata)
			case !ep.Favorite:
				rep.SkippedNotFavorite++
				r.out.NotFavorite(ep.ID)
			default:
				r.save(ctx, rep, ep)
			}
			r.out.Blank()
		}
		r.out.Blank()
	}

	return rep, nil
}

// List prints every episode recorded on date.
func (r *Runner) List(ctx context.Context, date string) (*Report, error) {
	rep := &Report{Action: ActionList}
	episodes, err := r.resolve(ctx, rep, date)
	if err != nil {
		return rep, err
	}
	for _, ep := range episodes {
		r.out.Record(ep)
	}
	return rep, nil
}

// Delete prints every episode of date and removes the non-favourites from
// the service, one call per episode. Favourites are never sent.
func (r *Runner) Delete(ctx context.Context, date string) (*Report, error) {
	rep := &Report{Action: ActionDelete}
	episodes, err := r.resolve(ctx, rep, date)
	if err != nil {
		return rep, err
	}

	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		r.out.Record(ep)

		if ep.Favorite {
			rep.Kept++
			r.out.NotDeleting(ep.ID)
			continue
		}

		r.out.Deleting(ep.ID)
		if err := r.catalog.DeleteEpisode(ctx, r.token, ep.ID); err != nil {
			rep.Failures++
			r.log.Error().Err(err).Object("episode", ep).Msg("failed to delete video")
			r.out.Outcome(false)
			continue
		}
		rep.Deleted++
		r.out.Outcome(true)
	}
	return rep, nil
}

// Download prints every episode of date and saves the favourites. Unlike
// Sync it does not skip episodes whose metadata file already exists.
func (r *Runner) Download(ctx context.Context, date string) (*Report, error) {
	rep := &Report{Action: ActionDownload}
	episodes, err := r.resolve(ctx, rep, date)
	if err != nil {
		return rep, err
	}

	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		r.out.Record(ep)

		if !ep.Favorite {
			rep.SkippedNotFavorite++
			r.out.NotDownloading(ep.ID)
			continue
		}
		r.out.Downloading(ep.ID)
		r.save(ctx, rep, ep)
	}
	return rep, nil
}

// resolve looks up the count for date, prints it, and fetches the episodes
// when there are any.
func (r *Runner) resolve(ctx context.Context, rep *Report, date string) ([]birdsy.Episode, error) {
	count, err := r.catalog.CountForDate(ctx, r.token, date)
	if err := r.degrade(rep, err, "failed to get video count for "+date); err != nil {
		return nil, err
	}
	r.out.Found(count, date)
	if count <= 0 {
		r.out.Blank()
		return nil, nil
	}
	rep.Days = 1

	episodes, err := r.catalog.EpisodesWithTotal(ctx, r.token, date, count)
	if err := r.degrade(rep, err, "failed to get videos for "+date); err != nil {
		return nil, err
	}
	rep.Episodes = len(episodes)
	return episodes, nil
}

// save writes the metadata, thumbnail and video of ep. A metadata failure
// skips the episode, since without its marker the next sync retries it.
// Thumbnail and video failures are independent of each other.
func (r *Runner) save(ctx context.Context, rep *Report, ep birdsy.Episode) {
	paths := r.archive.Paths(ep.ID.String())

	r.out.Artifact("Metadata", paths.Metadata)
	if _, err := r.archive.WriteMetadata(toRecord(ep)); err != nil {
		rep.Failures++
		r.log.Error().Err(err).Object("episode", ep).Msg("failed to write metadata")
		return
	}
	rep.Downloaded++

	r.out.Artifact("Thumbnail", paths.Thumbnail)
	r.fetch(ctx, rep, ep, "thumbnail", ep.ImageURL, paths.Thumbnail)

	r.out.Artifact("Video", paths.Video)
	r.fetch(ctx, rep, ep, "video", ep.VideoURL, paths.Video)
}

func (r *Runner) fetch(ctx context.Context, rep *Report, ep birdsy.Episode, kind, url, path string) {
	var n int64
	err := r.archive.WriteArtifact(path, func(w io.Writer) error {
		var err error
		n, err = r.catalog.Fetch(ctx, url, w)
		return err
	})
	if err != nil {
		rep.Failures++
		r.log.Error().Err(err).Object("episode", ep).Str("artifact", kind).Msg("failed to download " + kind)
		return
	}
	r.log.Debug().Str("id", ep.ID.String()).Str("artifact", kind).Int64("bytes", n).Str("path", path).Msg("saved")
}

func toRecord(ep birdsy.Episode) storage.Record {
	return storage.Record{
		ID:           ep.ID.String(),
		Title:        ep.Title,
		Favorite:     ep.Favorite,
		RecordedAt:   ep.RecordedAt,
		Duration:     ep.Duration,
		ThumbnailURL: ep.ImageURL,
		VideoURL:     ep.VideoURL,
	}
}

func formatSeconds(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64) + " s"
}
