package catalog

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Refresher reloads the catalogs on a cron schedule. It complements the
// file watcher for loaders whose backing files are replaced wholesale
// (e.g. periodic exports from the integration service).
type Refresher struct {
	watcher *Watcher
	cron    *cron.Cron
}

// NewRefresher schedules spec (a standard cron expression) against the
// watcher's Reload. Start must be called to begin.
func NewRefresher(w *Watcher, spec string) (*Refresher, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := w.Reload(); err != nil {
			log.Printf("catalog: scheduled reload: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("catalog refresher: bad schedule %q: %w", spec, err)
	}
	return &Refresher{watcher: w, cron: c}, nil
}

// Start begins scheduled reloads.
func (r *Refresher) Start() { r.cron.Start() }

// Stop halts scheduled reloads; running reloads finish.
func (r *Refresher) Stop() { r.cron.Stop() }
