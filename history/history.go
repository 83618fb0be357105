// Package history provides the implementation for tracking and persisting playback resume positions.
package history

import (
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/teamg-play/mpvhost/filesystem"
	"github.com/teamg-play/mpvhost/key"
	"github.com/teamg-play/mpvhost/where"
)

// SavedPosition is a single resume record keyed by media URL.
type SavedPosition struct {
	URL       string    `json:"url"`
	Seconds   float64   `json:"seconds"`
	UpdatedAt time.Time `json:"updated_at"`
}

// cacher provides an abstracted, disk-backed registry for resume records.
var cacher = gache.New[map[string]*SavedPosition](
	&gache.Options{
		Path:       where.Positions(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the complete collection of resume records from the persistent store.
func Get() (map[string]*SavedPosition, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*SavedPosition), nil
	}
	return cached, nil
}

// Position returns the saved resume position for a media URL, if one exists
// and clears the configured minimum threshold.
func Position(url string) mo.Option[float64] {
	if !viper.GetBool(key.HistoryResume) {
		return mo.None[float64]()
	}

	saved, err := Get()
	if err != nil {
		return mo.None[float64]()
	}

	record, ok := saved[url]
	if !ok {
		return mo.None[float64]()
	}

	if record.Seconds < viper.GetFloat64(key.HistoryMinResumeSeconds) {
		return mo.None[float64]()
	}
	return mo.Some(record.Seconds)
}

// Save persists the playback position of a media URL to the resume registry.
func Save(url string, seconds float64) error {
	if !viper.GetBool(key.HistoryResume) {
		return nil
	}

	saved, err := Get()
	if err != nil {
		return err
	}

	saved[url] = &SavedPosition{
		URL:       url,
		Seconds:   seconds,
		UpdatedAt: time.Now(),
	}
	return cacher.Set(saved)
}

// Remove permanently deletes the resume record for a media URL.
func Remove(url string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, url)
	return cacher.Set(saved)
}
