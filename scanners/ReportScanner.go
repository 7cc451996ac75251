package scanners

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/fxcop"
	"github.com/reaandrew/fxcopbridge/repositories"
	"github.com/reaandrew/fxcopbridge/utils"
	log "github.com/sirupsen/logrus"
)

// DefaultReportPatterns select the report files found when scanning a
// directory. Names are matched case-insensitively.
var DefaultReportPatterns = []string{"*fxcop*.xml"}

// ReportParser parses one report into a sink.
type ReportParser interface {
	Parse(path string, sink core.FindingSink) (fxcop.Summary, error)
}

// ReportScanner parses a set of reports into a finding repository and
// hands the repository to a reporter.
type ReportScanner struct {
	parser     ReportParser
	repository core.FindingRepository
	reporter   core.Reporter
	progress   utils.ProgressReporter
	patterns   []glob.Glob

	Summaries []fxcop.Summary
}

func NewReportScanner(parser ReportParser, repository core.FindingRepository, reporter core.Reporter,
	progress utils.ProgressReporter, patterns []string) (*ReportScanner, error) {
	if len(patterns) == 0 {
		patterns = DefaultReportPatterns
	}
	if progress == nil {
		progress = utils.NoopProgressReporter{}
	}

	scanner := &ReportScanner{
		parser:     parser,
		repository: repository,
		reporter:   reporter,
		progress:   progress,
	}
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid report pattern '%s': %w", pattern, err)
		}
		scanner.patterns = append(scanner.patterns, g)
	}
	return scanner, nil
}

// Scan parses every report named by inputs. Directories are searched for
// files matching the report patterns. A report that fails to parse
// contributes nothing to the repository; the remaining reports are still
// processed and all failures are returned together.
func (s *ReportScanner) Scan(inputs ...string) error {
	reports, err := s.expand(inputs)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		log.Warn("No FxCop reports found to import.")
		return nil
	}

	s.progress.SetTotal(len(reports))
	var errs []error
	parsed := 0
	for _, report := range reports {
		if err := s.scanReport(report); err != nil {
			log.Errorf("Failed to import %s: %v", report, err)
			errs = append(errs, err)
		} else {
			parsed++
		}
		s.progress.Increment()
	}

	if parsed > 0 && s.reporter != nil {
		if err := s.reporter.Report(s.repository); err != nil {
			errs = append(errs, fmt.Errorf("failed to generate report: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *ReportScanner) scanReport(report string) error {
	sink := repositories.NewBatchingSink(s.repository, 0)
	summary, err := s.parser.Parse(report, sink)
	s.Summaries = append(s.Summaries, summary)
	if err != nil {
		sink.Discard()
		return err
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("failed to store findings of %s: %w", report, err)
	}
	return nil
}

func (s *ReportScanner) expand(inputs []string) ([]string, error) {
	var reports []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil || !info.IsDir() {
			reports = append(reports, input)
			continue
		}

		var found []string
		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && s.matches(d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search '%s' for reports: %w", input, err)
		}
		sort.Strings(found)
		log.Infof("Found %d FxCop reports in %s", len(found), input)
		reports = append(reports, found...)
	}
	return reports, nil
}

func (s *ReportScanner) matches(name string) bool {
	name = strings.ToLower(name)
	for _, pattern := range s.patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}
