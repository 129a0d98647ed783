package archiver

import (
	"fmt"
	"io"
	"strings"

	"birdsync/birdsy"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// labelWidth aligns record values after the longest label, "Thumbnail:".
const labelWidth = 11

// Printer writes the user-facing run transcript. Diagnostics go to the
// logger instead; the transcript is meant to be read or piped.
type Printer struct {
	w io.Writer

	label    lipgloss.Style
	heading  lipgloss.Style
	favorite lipgloss.Style
	muted    lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
}

// NewPrinter returns a Printer writing to w. Colour follows the terminal
// capabilities of w; noColor forces plain text.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:        w,
		label:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7")),
		heading:  r.NewStyle().Bold(true),
		favorite: r.NewStyle().Foreground(lipgloss.Color("#E0AF68")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("#565F89")),
		success:  r.NewStyle().Foreground(lipgloss.Color("#9ECE6A")),
		failure:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7768E")),
	}
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	p.println("")
}

func (p *Printer) field(name, value string) string {
	pad := max(labelWidth-len(name), 1)
	return p.label.Render(name) + strings.Repeat(" ", pad) + value
}

// Syncing announces a day of a sync run.
func (p *Printer) Syncing(day birdsy.Day) {
	p.println(p.heading.Render(fmt.Sprintf("Syncing %d videos for %s.", day.Count, day.Date)))
}

// Found announces the episode count of a date.
func (p *Printer) Found(count int, date string) {
	p.println(p.heading.Render(fmt.Sprintf("Found %d videos for %s.", count, date)))
}

// AlreadyDownloaded reports a sync skip because the metadata file exists.
func (p *Printer) AlreadyDownloaded(id birdsy.EpisodeID, metadataPath string) {
	p.println(p.muted.Render(fmt.Sprintf("%s already downloaded. (Delete %s to re-download.)", id, metadataPath)))
}

// NotFavorite reports a sync skip of a non-favourite episode.
func (p *Printer) NotFavorite(id birdsy.EpisodeID) {
	p.println(p.muted.Render(fmt.Sprintf("Not downloading %s (not marked as favorite).", id)))
}

// Artifact prints the destination of one file being written. kind is
// "Metadata", "Thumbnail" or "Video".
func (p *Printer) Artifact(kind, path string) {
	p.println(p.field(kind+":", path))
}

// Record prints the full listing entry of an episode.
func (p *Printer) Record(e birdsy.Episode) {
	fav := "false"
	if e.Favorite {
		fav = p.favorite.Render("true")
	}

	p.Blank()
	p.Blank()
	p.println(p.field("Title:", e.Title))
	p.println(p.field("ID:", e.ID.String()))
	p.println(p.field("Favorite:", fav))
	p.println(p.field("Uploaded:", e.RecordedAt))
	p.println(p.field("Duration:", formatSeconds(e.Duration)))
	p.println(p.field("Thumbnail:", e.ImageURL))
	p.println(p.field("Video:", e.VideoURL))
}

// NotDeleting reports that a favourite is kept.
func (p *Printer) NotDeleting(id birdsy.EpisodeID) {
	p.Blank()
	p.println(p.muted.Render(fmt.Sprintf("Not deleting %s.", id)))
}

// Deleting announces a delete call; Outcome completes the line pair.
func (p *Printer) Deleting(id birdsy.EpisodeID) {
	p.Blank()
	p.println(fmt.Sprintf("Deleting %s...", id))
}

// NotDownloading reports that a non-favourite is skipped by download.
func (p *Printer) NotDownloading(id birdsy.EpisodeID) {
	p.Blank()
	p.println(p.muted.Render(fmt.Sprintf("Not downloading %s.", id)))
}

// Downloading announces a download of one episode.
func (p *Printer) Downloading(id birdsy.EpisodeID) {
	p.Blank()
	p.println(fmt.Sprintf("Downloading %s.", id))
}

// Outcome prints "done." or "failed.".
func (p *Printer) Outcome(ok bool) {
	if ok {
		p.println(p.success.Render("done."))
		return
	}
	p.println(p.failure.Render("failed."))
}
