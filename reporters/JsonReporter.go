package reporters

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/reportstorage"
	"github.com/reaandrew/fxcopbridge/utils"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultJsonReport        = "fxcop_findings.json"
	DefaultJsonSummaryReport = "fxcop_summary.json"
	DefaultSQLiteDB          = "fxcop_findings.db"
)

// JsonReporter writes every finding as a JSON line and a summary built from
// the SQL queries run over a SQLite copy of the findings.
type JsonReporter struct {
	Queries          core.SqlQueries
	Storage          reportstorage.FileReportStorage
	SqliteDBFilename string
}

func (j JsonReporter) Report(repository core.FindingRepository) error {
	dbName := j.SqliteDBFilename
	if dbName == "" {
		dbName = DefaultSQLiteDB
	}
	db, err := utils.InitializeSQLiteDB(j.Storage.Path(dbName))
	if err != nil {
		return fmt.Errorf("failed to initialize SQLite database: %w", err)
	}
	defer db.Close()

	if err := utils.ProcessFindingsIncrementally(db, repository); err != nil {
		return fmt.Errorf("failed to process findings: %w", err)
	}

	if err := j.generateDetailedReport(repository); err != nil {
		return fmt.Errorf("failed to generate detailed JSON report: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM Findings").Scan(&count); err != nil {
		return fmt.Errorf("failed to count records in Findings table: %w", err)
	}
	log.Infof("Total records in Findings table: %d", count)

	if len(j.Queries.Queries) == 0 {
		log.Warn("No SQL queries defined for summary report.")
		return nil
	}

	summaryData := make(map[string]interface{})
	for _, query := range j.Queries.Queries {
		log.Debugf("Executing query: %s", query.Query)
		_, results, err := executeSQLQuery(db, query.Query)
		if err != nil {
			log.Warnf("Skipping query for '%s': %v", query.Name, err)
			continue
		}
		summaryData[query.Name] = results
	}

	summaryBytes, err := json.MarshalIndent(summaryData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary data: %w", err)
	}
	path, err := j.Storage.Store(DefaultJsonSummaryReport, summaryBytes)
	if err != nil {
		return fmt.Errorf("failed to generate summary JSON report: %w", err)
	}
	log.Infof("Summary JSON report generated successfully: %s", path)
	return nil
}

func (j JsonReporter) generateDetailedReport(repository core.FindingRepository) error {
	outputFile, err := j.Storage.Create(DefaultJsonReport)
	if err != nil {
		return err
	}
	defer outputFile.Close()

	writer := bufio.NewWriter(outputFile)
	encoder := json.NewEncoder(writer)

	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve next finding set: %w", err)
		}
		for _, finding := range set.Findings {
			if err := encoder.Encode(finding); err != nil {
				return fmt.Errorf("failed to write finding to detailed output file: %w", err)
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush detailed output file: %w", err)
	}
	log.Infof("Detailed JSON report generated successfully: %s", outputFile.Name())
	return nil
}
