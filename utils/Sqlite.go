package utils

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/reaandrew/fxcopbridge/core"
	log "github.com/sirupsen/logrus"
)

// FindingColumns are the columns of the Findings table, in insert order.
var FindingColumns = []string{"Rule", "Repository", "RuleName", "Category", "Severity", "TargetKind", "Resource", "Path", "Line", "Project", "Report", "Message"}

// InitializeSQLiteDB recreates the database at dbPath with an empty Findings
// table, tuned for one-shot bulk loading.
func InitializeSQLiteDB(dbPath string) (*sql.DB, error) {
	if err := RemoveFileIfExists(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	_, _ = db.Exec("PRAGMA synchronous = OFF;")

	createStmt := `CREATE TABLE IF NOT EXISTS Findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		Rule TEXT,
		Repository TEXT,
		RuleName TEXT,
		Category TEXT,
		Severity TEXT,
		TargetKind TEXT,
		Resource TEXT,
		Path TEXT,
		Line INTEGER,
		Project TEXT,
		Report TEXT,
		Message TEXT
	);`

	if _, err := db.Exec(createStmt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create findings table: %w", err)
	}

	return db, nil
}

// InsertFindings writes findings to the Findings table in one transaction.
func InsertFindings(db *sql.DB, findings []core.Finding) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO Findings (Rule, Repository, RuleName, Category, Severity, TargetKind, Resource, Path, Line, Project, Report, Message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, finding := range findings {
		var line interface{}
		if finding.Line > 0 {
			line = finding.Line
		}
		_, execErr := stmt.Exec(
			finding.Rule.Key,
			finding.Rule.Repository,
			finding.Rule.Name,
			finding.Rule.Category,
			string(finding.Severity),
			string(finding.Target.Kind),
			finding.ResourceKey(),
			finding.Path(),
			line,
			finding.Project,
			finding.Report,
			finding.Message,
		)
		if execErr != nil {
			return fmt.Errorf("failed to insert finding for rule '%s': %w", finding.Rule.Key, execErr)
		}
	}

	return nil
}

// ProcessFindingsIncrementally copies every finding set of repository into db.
func ProcessFindingsIncrementally(db *sql.DB, repository core.FindingRepository) error {
	iterator := repository.NewIterator()
	total := 0
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve next finding set: %w", err)
		}
		if err := InsertFindings(db, set.Findings); err != nil {
			return err
		}
		total += len(set.Findings)
	}
	log.Debugf("Copied %d findings into SQLite", total)
	return nil
}
