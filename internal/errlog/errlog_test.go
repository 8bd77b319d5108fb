package errlog

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestWarnLogsOnceWithinWindow(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := New(logger, time.Minute)

	s.Warn("CrcFailed", 2, 11, "crc failed")
	s.Warn("CrcFailed", 2, 11, "crc failed")
	s.Warn("CrcFailed", 2, 11, "crc failed")

	v, found := s.cache.Get("CrcFailed:2:11")
	if !found {
		t.Fatal("expected cache entry for suppressed key")
	}
	if v.(*entry).count != 3 {
		t.Fatalf("expected count 3, got %d", v.(*entry).count)
	}
}

func TestWarnDistinctKeysDoNotShareCounts(t *testing.T) {
	logger := logrus.New()
	s := New(logger, time.Minute)

	s.Warn("CrcFailed", 2, 11, "crc failed")
	s.Warn("CrcFailed", 2, 12, "crc failed")

	if _, found := s.cache.Get("CrcFailed:2:11"); !found {
		t.Fatal("expected entry for prn 11")
	}
	if _, found := s.cache.Get("CrcFailed:2:12"); !found {
		t.Fatal("expected entry for prn 12")
	}
}
