package reporters

import (
	"fmt"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/reportstorage"
)

// ReporterSettings carries what the individual reporters need.
type ReporterSettings struct {
	Storage     reportstorage.FileReportStorage
	Queries     core.SqlQueries
	BaseURL     string
	ToolVersion string
}

func CreateReporter(reportFormat string, settings ReporterSettings) (core.Reporter, error) {
	switch reportFormat {
	case "json":
		return JsonReporter{Queries: settings.Queries, Storage: settings.Storage}, nil
	case "xlsx":
		return XlsxReporter{Queries: settings.Queries, Storage: settings.Storage}, nil
	case "sarif":
		return SarifReporter{Storage: settings.Storage, ToolVersion: settings.ToolVersion}, nil
	case "http":
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("the http report format needs a base url")
		}
		return NewDefaultHttpReporter(settings.BaseURL, settings.ToolVersion), nil
	}
	return nil, fmt.Errorf("unknown report format: %s", reportFormat)
}
