// Package paths centralizes the on-disk naming conventions for a
// database's primary file and its transaction snapshot, adapted from
// the teacher framework's storage path-joining helpers
// (internal/storage/local_driver.go), trimmed to the two fixed
// conventions the engine needs.
package paths

import "path/filepath"

// DatabaseFile returns the path, relative to a data root, of a
// database's primary file: <root>/<name>/<name>.db.
func DatabaseFile(name string) string {
	return filepath.Join(name, name+".db")
}

// SnapshotFile returns the path, relative to a data root, of a
// database's transaction snapshot file, kept alongside its primary
// file: <root>/<name>/<name>.snapshot.
func SnapshotFile(name string) string {
	return filepath.Join(name, name+".snapshot")
}
