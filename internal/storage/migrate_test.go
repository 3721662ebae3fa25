// ABOUTME: Tests for data migration between storage backends.
// ABOUTME: Covers SQLite-to-SQLite copies, empty sources and directory checks.
package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrateDataCopiesEverything(t *testing.T) {
	src := setupTestDB(t)
	u := seedDashboard(t, src)

	dst := setupTestDB(t)
	summary, err := MigrateData(src, dst)
	if err != nil {
		t.Fatalf("MigrateData failed: %v", err)
	}

	want := MigrateSummary{
		Users:           1,
		AttributeGroups: 2,
		Attributes:      3,
		UserAttributes:  3,
		Data:            3,
		Events:          1,
		Logs:            1,
	}
	if *summary != want {
		t.Errorf("summary = %+v, want %+v", *summary, want)
	}

	srcUser, srcAgg, err := LoadDashboard(src, u.Username)
	if err != nil {
		t.Fatalf("LoadDashboard(src) failed: %v", err)
	}
	dstUser, dstAgg, err := LoadDashboard(dst, u.Username)
	if err != nil {
		t.Fatalf("LoadDashboard(dst) failed: %v", err)
	}
	if srcUser.ID != dstUser.ID {
		t.Errorf("user id changed: %v -> %v", srcUser.ID, dstUser.ID)
	}
	if srcAgg.Score() != dstAgg.Score() {
		t.Errorf("score changed: %v -> %v", srcAgg.Score(), dstAgg.Score())
	}
	srcNames := srcAgg.ByGroup(true).Names()
	dstNames := dstAgg.ByGroup(true).Names()
	if len(srcNames) != len(dstNames) {
		t.Fatalf("group names changed: %v -> %v", srcNames, dstNames)
	}
	for i := range srcNames {
		if srcNames[i] != dstNames[i] {
			t.Errorf("group %d: %s -> %s", i, srcNames[i], dstNames[i])
		}
	}
}

func TestMigrateDataEmptySource(t *testing.T) {
	src := setupTestDB(t)
	dst := setupTestDB(t)

	summary, err := MigrateData(src, dst)
	if err != nil {
		t.Fatalf("MigrateData failed: %v", err)
	}
	if *summary != (MigrateSummary{}) {
		t.Errorf("expected zero summary, got %+v", *summary)
	}
}

func TestMigrateDataIntoPopulatedDestinationFails(t *testing.T) {
	src := setupTestDB(t)
	seedDashboard(t, src)
	dst := setupTestDB(t)
	if _, err := MigrateData(src, dst); err != nil {
		t.Fatalf("first MigrateData failed: %v", err)
	}

	if _, err := MigrateData(src, dst); err == nil {
		t.Fatal("expected error migrating into a populated destination")
	}
}

func TestIsDirNonEmpty(t *testing.T) {
	// Empty directory
	emptyDir := t.TempDir()

	nonEmpty, err := IsDirNonEmpty(emptyDir)
	if err != nil {
		t.Fatalf("IsDirNonEmpty failed: %v", err)
	}
	if nonEmpty {
		t.Error("Expected empty directory to return false")
	}

	// Non-empty directory
	if err := os.WriteFile(filepath.Join(emptyDir, "test.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	nonEmpty, err = IsDirNonEmpty(emptyDir)
	if err != nil {
		t.Fatalf("IsDirNonEmpty failed: %v", err)
	}
	if !nonEmpty {
		t.Error("Expected non-empty directory to return true")
	}

	// Non-existent directory
	nonEmpty, err = IsDirNonEmpty("/nonexistent/path")
	if err != nil {
		t.Fatalf("IsDirNonEmpty for nonexistent should not error: %v", err)
	}
	if nonEmpty {
		t.Error("Expected non-existent directory to return false")
	}
}
