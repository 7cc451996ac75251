package reporters

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	"github.com/reaandrew/fxcopbridge/core"
	"gopkg.in/yaml.v3"
)

//go:embed data/queries/summary.yaml
var defaultQueries []byte

// DefaultQueries returns the summary queries shipped with the binary.
func DefaultQueries() (core.SqlQueries, error) {
	return parseQueries(defaultQueries)
}

// LoadQueries reads summary queries from a YAML file.
func LoadQueries(queriesPath string) (core.SqlQueries, error) {
	fileData, err := os.ReadFile(queriesPath)
	if err != nil {
		return core.SqlQueries{}, fmt.Errorf("failed to read YAML file '%s': %w", queriesPath, err)
	}
	return parseQueries(fileData)
}

func parseQueries(data []byte) (core.SqlQueries, error) {
	var queries core.SqlQueries
	if err := yaml.Unmarshal(data, &queries); err != nil {
		return queries, fmt.Errorf("failed to unmarshal YAML data: %w", err)
	}
	for i, query := range queries.Queries {
		if query.Name == "" || query.Query == "" {
			return core.SqlQueries{}, fmt.Errorf("query %d needs a name and a query", i+1)
		}
	}
	return queries, nil
}

// executeSQLQuery runs query and returns one map per row, keyed by column.
func executeSQLQuery(db *sql.DB, query string) ([]string, []map[string]interface{}, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute query '%s': %w", query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve columns for query '%s': %w", query, err)
	}

	results := []map[string]interface{}{}
	for rows.Next() {
		columnValues := make([]interface{}, len(columns))
		columnPointers := make([]interface{}, len(columns))
		for i := range columnValues {
			columnPointers[i] = &columnValues[i]
		}

		if err := rows.Scan(columnPointers...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row for query '%s': %w", query, err)
		}

		rowData := make(map[string]interface{})
		for i, colName := range columns {
			if b, ok := columnValues[i].([]byte); ok {
				rowData[colName] = string(b)
			} else {
				rowData[colName] = columnValues[i]
			}
		}
		results = append(results, rowData)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration error for query '%s': %w", query, err)
	}
	return columns, results, nil
}
