package output

import (
	"time"

	"github.com/keysweep/keysweep/internal/probe"
)

// Stats holds aggregate sweep statistics.
type Stats struct {
	Total         int
	Valid         int
	Invalid       int
	ModelNotFound int
	Errors        int
	Duration      time.Duration
}

// Count tallies one verdict.
func (s *Stats) Count(result *probe.Result) {
	s.Total++
	switch result.Category {
	case probe.CategoryValid:
		s.Valid++
	case probe.CategoryInvalid:
		s.Invalid++
	case probe.CategoryModelNotFound:
		s.ModelNotFound++
	default:
		s.Errors++
	}
}

// Writer is implemented by each report format.
type Writer interface {
	WriteHeader() error
	WriteResult(result *probe.Result) error
	WriteFooter(stats Stats) error
	Close() error
}
