package reporters

import (
	"fmt"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/reportstorage"
	"github.com/reaandrew/fxcopbridge/utils"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const DefaultXlsxReport = "fxcop_report.xlsx"

var xlsxHeaders = []string{"Rule", "Repository", "Name", "Category", "Severity", "Resource", "Path", "Line", "Project", "Message"}

var targetKinds = []core.TargetKind{core.ProjectLevel, core.TypeLevel, core.FileLevel}

// XlsxReporter writes one sheet per target kind, followed by one sheet per
// summary query.
type XlsxReporter struct {
	Queries core.SqlQueries
	Storage reportstorage.FileReportStorage
}

func (x XlsxReporter) Report(repository core.FindingRepository) error {
	f := excelize.NewFile()
	defer f.Close()

	findingsByKind := make(map[core.TargetKind][]core.Finding)
	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve next finding set: %w", err)
		}
		for _, finding := range set.Findings {
			findingsByKind[finding.Target.Kind] = append(findingsByKind[finding.Target.Kind], finding)
		}
	}

	sheets := 0
	for _, kind := range targetKinds {
		findings := findingsByKind[kind]
		if len(findings) == 0 {
			continue
		}
		if err := x.writeFindingsSheet(f, string(kind), findings); err != nil {
			return err
		}
		sheets++
	}

	if len(x.Queries.Queries) > 0 {
		written, err := x.writeSummarySheets(f, repository)
		if err != nil {
			return err
		}
		sheets += written
	}

	if sheets > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}

	outputFile := x.Storage.Path(DefaultXlsxReport)
	if err := f.SaveAs(outputFile); err != nil {
		return fmt.Errorf("failed to save XLSX file '%s': %w", outputFile, err)
	}

	log.Infof("XLSX report generated successfully: %s", outputFile)
	return nil
}

func (x XlsxReporter) writeFindingsSheet(f *excelize.File, sheet string, findings []core.Finding) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", sheet, err)
	}
	headers := xlsxHeaders
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set headers for sheet '%s': %w", sheet, err)
	}

	for i, finding := range findings {
		var line interface{}
		if finding.Line > 0 {
			line = finding.Line
		}
		rowData := []interface{}{
			finding.Rule.Key,
			finding.Rule.Repository,
			finding.Rule.Name,
			finding.Rule.Category,
			string(finding.Severity),
			finding.ResourceLabel(),
			finding.Path(),
			line,
			finding.Project,
			finding.Message,
		}
		cellAddress, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to get cell address for row %d in sheet '%s': %w", i+2, sheet, err)
		}
		if err := f.SetSheetRow(sheet, cellAddress, &rowData); err != nil {
			return fmt.Errorf("failed to set data for row %d in sheet '%s': %w", i+2, sheet, err)
		}
	}
	return nil
}

func (x XlsxReporter) writeSummarySheets(f *excelize.File, repository core.FindingRepository) (int, error) {
	dbPath := x.Storage.Path(utils.GenerateRandomFilename("db"))
	db, err := utils.InitializeSQLiteDB(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize SQLite database: %w", err)
	}
	defer func() {
		_ = db.Close()
		_ = utils.RemoveFileIfExists(dbPath)
	}()

	if err := utils.ProcessFindingsIncrementally(db, repository); err != nil {
		return 0, fmt.Errorf("failed to process findings: %w", err)
	}

	written := 0
	for _, query := range x.Queries.Queries {
		columns, results, err := executeSQLQuery(db, query.Query)
		if err != nil {
			log.Warnf("Skipping query for '%s': %v", query.Name, err)
			continue
		}

		sheet := query.SheetName()
		if _, err := f.NewSheet(sheet); err != nil {
			return written, fmt.Errorf("failed to create sheet '%s': %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
			return written, fmt.Errorf("failed to set headers for sheet '%s': %w", sheet, err)
		}
		for i, result := range results {
			rowData := make([]interface{}, len(columns))
			for c, column := range columns {
				rowData[c] = result[column]
			}
			cellAddress, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(sheet, cellAddress, &rowData); err != nil {
				return written, fmt.Errorf("failed to set data for row %d in sheet '%s': %w", i+2, sheet, err)
			}
		}
		written++
	}
	return written, nil
}
