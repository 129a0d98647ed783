package birdsy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

// EpisodeID identifies an episode. The service sends numeric IDs; string IDs
// are accepted too. The JSON kind an ID was decoded from is kept, so it is
// sent back exactly as received. The zero value is the empty string ID.
type EpisodeID struct {
	value   string
	numeric bool
}

// NumberID returns the ID the service encodes as the JSON number n.
func NumberID(n int64) EpisodeID {
	return EpisodeID{value: strconv.FormatInt(n, 10), numeric: true}
}

// StringID returns the ID the service encodes as the JSON string s.
func StringID(s string) EpisodeID {
	return EpisodeID{value: s}
}

// UnmarshalJSON accepts a JSON number or string.
func (id *EpisodeID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("episode id: %w", err)
	}
	*id = EpisodeID{value: n.String(), numeric: true}
	return nil
}

// MarshalJSON encodes the ID in the kind it was created with.
func (id EpisodeID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// String returns the ID's text, which also names its archive files.
func (id EpisodeID) String() string { return id.value }

// Episode is one recorded video event.
type Episode struct {
	ID         EpisodeID
	Favorite   bool
	Title      string
	RecordedAt string  // formatted by the service, e.g. "2024-01-01 10:00"
	Duration   float64 // seconds
	ImageURL   string
	VideoURL   string
}

// episodeResource is the JSON:API shape of an episode.
type episodeResource struct {
	ID         EpisodeID `json:"id"`
	Attributes struct {
		Favorite            bool    `json:"favorite"`
		Title               string  `json:"title"`
		FormattedRecordedAt string  `json:"formatted_recorded_at"`
		Duration            float64 `json:"duration"`
		ImageURL            string  `json:"image_url"`
		VideoURL            string  `json:"video_url"`
	} `json:"attributes"`
}

// UnmarshalJSON decodes the {id, attributes:{...}} resource form.
func (e *Episode) UnmarshalJSON(b []byte) error {
	var r episodeResource
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*e = Episode{
		ID:         r.ID,
		Favorite:   r.Attributes.Favorite,
		Title:      r.Attributes.Title,
		RecordedAt: r.Attributes.FormattedRecordedAt,
		Duration:   r.Attributes.Duration,
		ImageURL:   r.Attributes.ImageURL,
		VideoURL:   r.Attributes.VideoURL,
	}
	return nil
}

// MarshalZerologObject adds the episode's identifying fields to a log event.
func (e Episode) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("id", e.ID.String()).
		Str("title", e.Title).
		Bool("favorite", e.Favorite).
		Str("recorded_at", e.RecordedAt)
}

// Day is the number of episodes recorded on one calendar day.
type Day struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SameDay reports whether two service or CLI dates name the same calendar
// day. Only the YYYY-MM-DD prefix is compared, so "2024-01-01" matches
// "2024-01-01T00:00:00".
func SameDay(a, b string) bool {
	return dayPrefix(a) == dayPrefix(b)
}

func dayPrefix(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

type authRequest struct {
	Email     string `json:"email"`
	GrantType string `json:"grant_type"`
	Password  string `json:"password"`
}

type authResponse struct {
	Data struct {
		Attributes struct {
			Token string `json:"token"`
		} `json:"attributes"`
	} `json:"data"`
}

type daysResponse struct {
	Meta struct {
		Days []Day `json:"days"`
	} `json:"meta"`
}

type episodesResponse struct {
	Data []Episode `json:"data"`
}

type deleteRequest struct {
	IDs []EpisodeID `json:"ids"`
}
