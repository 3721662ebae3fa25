// ABOUTME: Data migration between exist storage backends.
// ABOUTME: Copies users, reference data, series, events and logs from source to destination.

package storage

import (
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Users           int
	AttributeGroups int
	Attributes      int
	Services        int
	Profiles        int
	UserAttributes  int
	Data            int
	Events          int
	Logs            int
}

// MigrateData copies all data from src to dst storage.
// Reference data goes first so every foreign key resolves. The destination
// should be empty before calling this function.
func MigrateData(src, dst Repository) (*MigrateSummary, error) {
	data, err := ExportAll(src)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	summary, err := ImportAll(dst, data)
	if err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}
	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
