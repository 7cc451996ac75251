package reporters

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/reportstorage"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSarifReport = "fxcop_report.sarif"
	sarifToolName      = "FxCop"
	sarifToolURI       = "https://learn.microsoft.com/visualstudio/code-quality/"
)

// SarifReporter writes the findings as a single-run SARIF log.
type SarifReporter struct {
	Storage     reportstorage.FileReportStorage
	ToolVersion string
}

func (s SarifReporter) Report(repository core.FindingRepository) error {
	sarifLog, err := s.BuildLog(repository)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sarifLog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal SARIF log: %w", err)
	}
	path, err := s.Storage.Store(DefaultSarifReport, data)
	if err != nil {
		return err
	}
	log.Infof("SARIF report generated successfully: %s", path)
	return nil
}

// BuildLog converts every finding of repository into a SARIF result.
func (s SarifReporter) BuildLog(repository core.FindingRepository) (*SarifLog, error) {
	run := SarifRun{
		Tool: SarifTool{Driver: SarifDriver{
			Name:           sarifToolName,
			Version:        s.ToolVersion,
			InformationURI: sarifToolURI,
		}},
		Results: []SarifResult{},
	}
	ruleIndex := map[string]int{}

	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve next finding set: %w", err)
		}
		for _, finding := range set.Findings {
			id := finding.Rule.RuleKey().String()
			index, ok := ruleIndex[id]
			if !ok {
				index = len(run.Tool.Driver.Rules)
				ruleIndex[id] = index
				run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, ruleDescriptor(finding.Rule))
			}
			run.Results = append(run.Results, SarifResult{
				RuleID:    id,
				RuleIndex: index,
				Level:     sarifLevel(finding.Severity),
				Message:   SarifMessage{Text: resultText(finding)},
				Locations: sarifLocations(finding),
			})
		}
	}

	return &SarifLog{
		Version: SarifVersion,
		Schema:  SarifSchema,
		Runs:    []SarifRun{run},
	}, nil
}

func ruleDescriptor(rule core.Rule) SarifRuleDescriptor {
	descriptor := SarifRuleDescriptor{
		ID:   rule.RuleKey().String(),
		Name: rule.Key,
		Properties: &SarifRuleProperties{
			Category: rule.Category,
			Severity: string(rule.Severity),
		},
	}
	if rule.Name != "" {
		descriptor.ShortDescription = &SarifMessage{Text: rule.Name}
	}
	if rule.Description != "" {
		descriptor.FullDescription = &SarifMessage{Text: rule.Description}
	}
	return descriptor
}

func sarifLevel(severity core.Severity) string {
	switch severity {
	case core.SeverityBlocker, core.SeverityCritical:
		return "error"
	case core.SeverityMajor:
		return "warning"
	default:
		return "note"
	}
}

func resultText(finding core.Finding) string {
	if finding.Message != "" {
		return finding.Message
	}
	if finding.Rule.Name != "" {
		return finding.Rule.Name
	}
	return finding.Rule.Key
}

func sarifLocations(finding core.Finding) []SarifLocation {
	resource := finding.Target.Resource
	if resource == nil {
		return nil
	}

	location := SarifLocation{}
	if resource.Path != "" {
		physical := &SarifPhysicalLocation{ArtifactLocation: SarifArtifactLocation{URI: fileURI(resource.Path)}}
		if finding.Target.Kind == core.FileLevel && finding.Line > 0 {
			physical.Region = &SarifRegion{StartLine: finding.Line}
		}
		location.PhysicalLocation = physical
	}
	switch finding.Target.Kind {
	case core.TypeLevel:
		location.LogicalLocations = []SarifLogicalLocation{{FullyQualifiedName: resource.Key, Kind: "type"}}
	case core.ProjectLevel:
		location.LogicalLocations = []SarifLogicalLocation{{FullyQualifiedName: resource.Key, Kind: "module"}}
	}
	return []SarifLocation{location}
}

func fileURI(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
