package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/utils"
	log "github.com/sirupsen/logrus"
)

var (
	errNoMoreBatches = errors.New("no more batches")
	errCorruptBatch  = errors.New("corrupt batch")
)

// SqliteFindingRepository keeps every batch as a JSON row and mirrors the
// findings into the flat Findings table so they can be queried directly.
type SqliteFindingRepository struct {
	db *sql.DB
}

// NewSqliteFindingRepository recreates the database at dbPath.
func NewSqliteFindingRepository(dbPath string) (*SqliteFindingRepository, error) {
	db, err := utils.InitializeSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}

	createStmt := `CREATE TABLE IF NOT EXISTS finding_batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		json_data TEXT NOT NULL
	);`
	if _, err := db.Exec(createStmt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create finding_batches table: %w", err)
	}

	return &SqliteFindingRepository{db: db}, nil
}

func (r *SqliteFindingRepository) Store(findings []core.Finding) error {
	jsonData, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	if _, err := r.db.Exec(`INSERT INTO finding_batches (json_data) VALUES (?)`, string(jsonData)); err != nil {
		return fmt.Errorf("failed to insert finding batch: %w", err)
	}
	return utils.InsertFindings(r.db, findings)
}

func (r *SqliteFindingRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM finding_batches`); err != nil {
		return fmt.Errorf("failed to clear finding batches: %w", err)
	}
	if _, err := r.db.Exec(`DELETE FROM Findings`); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}
	return nil
}

// DB exposes the database for summary queries.
func (r *SqliteFindingRepository) DB() *sql.DB {
	return r.db
}

func (r *SqliteFindingRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteFindingRepository) NewIterator() core.FindingIterator {
	return &SqliteFindingIterator{repo: r}
}

// SqliteFindingIterator walks finding_batches in id order.
type SqliteFindingIterator struct {
	repo       *SqliteFindingRepository
	currentID  int
	currentSet core.FindingSet
}

func (it *SqliteFindingIterator) HasNext() bool {
	for {
		err := it.loadNextBatch()
		if err == nil {
			return true
		}
		if errors.Is(err, errNoMoreBatches) {
			return false
		}
		log.Warnf("Error loading finding batch after id %d: %v", it.currentID, err)
		if !errors.Is(err, errCorruptBatch) {
			return false
		}
	}
}

func (it *SqliteFindingIterator) Next() (core.FindingSet, error) {
	if it.currentSet.Findings == nil {
		return core.FindingSet{}, fmt.Errorf("no more findings available")
	}
	return it.currentSet, nil
}

func (it *SqliteFindingIterator) Reset() error {
	it.currentID = 0
	it.currentSet = core.FindingSet{}
	return nil
}

func (it *SqliteFindingIterator) loadNextBatch() error {
	row := it.repo.db.QueryRow(`
		SELECT id, json_data
		FROM finding_batches
		WHERE id > ?
		ORDER BY id ASC
		LIMIT 1
	`, it.currentID)

	var id int
	var jsonData string
	if err := row.Scan(&id, &jsonData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNoMoreBatches
		}
		return fmt.Errorf("failed to read finding batch: %w", err)
	}
	it.currentID = id

	findings := []core.Finding{}
	if err := json.Unmarshal([]byte(jsonData), &findings); err != nil {
		return fmt.Errorf("%w: failed to parse JSON for row %d: %v", errCorruptBatch, id, err)
	}
	it.currentSet = core.FindingSet{Findings: findings}
	return nil
}
