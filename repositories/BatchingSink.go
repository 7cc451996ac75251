package repositories

import (
	"github.com/reaandrew/fxcopbridge/core"
)

// BatchingSink collects the findings of one report and stores them as a
// single batch.
type BatchingSink struct {
	repository core.FindingRepository
	limit      int
	pending    []core.Finding
	stored     int
}

// NewBatchingSink flushes automatically every limit findings; a limit of zero
// keeps everything until Flush.
func NewBatchingSink(repository core.FindingRepository, limit int) *BatchingSink {
	return &BatchingSink{repository: repository, limit: limit}
}

func (s *BatchingSink) Emit(finding core.Finding) error {
	s.pending = append(s.pending, finding)
	if s.limit > 0 && len(s.pending) >= s.limit {
		return s.Flush()
	}
	return nil
}

func (s *BatchingSink) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.repository.Store(s.pending); err != nil {
		return err
	}
	s.stored += len(s.pending)
	s.pending = nil
	return nil
}

// Discard drops findings that have not been flushed.
func (s *BatchingSink) Discard() {
	s.pending = nil
}

// Stored counts the findings handed to the repository so far.
func (s *BatchingSink) Stored() int {
	return s.stored
}
