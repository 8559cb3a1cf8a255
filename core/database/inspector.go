package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrTableNotFound is returned when an inspected table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Columns returns the lower-cased column names of table in declaration order.
func Columns(db *gorm.DB, table string) ([]string, error) {
	m := db.Migrator()
	if !m.HasTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	types, err := m.ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}

	names := make([]string, 0, len(types))
	for _, ct := range types {
		names = append(names, strings.ToLower(ct.Name()))
	}
	return names, nil
}

// MissingColumns returns the expected columns that table does not have.
// Every expected column is missing when the table itself is absent.
func MissingColumns(db *gorm.DB, table string, expected ...string) ([]string, error) {
	columns, err := Columns(db, table)
	if errors.Is(err, ErrTableNotFound) {
		return expected, nil
	}
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		present[name] = struct{}{}
	}

	var missing []string
	for _, name := range expected {
		if _, ok := present[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
