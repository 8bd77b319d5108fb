// Package errlog suppresses duplicate transient-error warnings the way
// mode_s/decoder.go's icao_cache suppresses repeat ICAO sightings: the
// first occurrence of a given (kind, gnss_id, prn) logs immediately, later
// occurrences within the window are only counted, and the count is logged
// once on eviction.
package errlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const defaultWindow = 60 * time.Second

// Suppressor dedupes repeated transient-error log lines within a rolling
// window, keyed by error kind plus the (gnss_id, prn) it was raised for.
type Suppressor struct {
	logger logrus.FieldLogger
	cache  *cache.Cache
	mu     sync.Mutex
}

type entry struct {
	count int
}

// New builds a Suppressor with the given dedupe window. A zero window
// uses the 60s default from SPEC_FULL.md's ambient error plumbing.
func New(logger logrus.FieldLogger, window time.Duration) *Suppressor {
	if window <= 0 {
		window = defaultWindow
	}
	s := &Suppressor{
		logger: logger,
		cache:  cache.New(window, window/2),
	}
	s.cache.OnEvicted(func(key string, v interface{}) {
		e, ok := v.(*entry)
		if !ok || e.count <= 1 {
			return
		}
		s.logger.WithField("key", key).Warnf("suppressed %d more of this warning", e.count-1)
	})
	return s
}

// Warn logs msg immediately on the first occurrence of key within the
// window, and otherwise just bumps the suppressed count.
func (s *Suppressor) Warn(kind string, gnssID, prn int, msg string) {
	key := fmt.Sprintf("%s:%d:%d", kind, gnssID, prn)

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, found := s.cache.Get(key); found {
		v.(*entry).count++
		return
	}
	s.cache.SetDefault(key, &entry{count: 1})
	s.logger.WithFields(logrus.Fields{"kind": kind, "gnss_id": gnssID, "prn": prn}).Warn(msg)
}
