package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	currentDatabaseVersion = 1
	versionFileName        = "version"
)

var (
	// ErrDatabaseVersionMismatch is returned when the database was written by an
	// incompatible calicod.
	ErrDatabaseVersionMismatch = errors.New("database version mismatch")

	// ErrDatabaseNetworkMismatch is returned when the database belongs to a
	// network other than the configured one.
	ErrDatabaseNetworkMismatch = errors.New("database network mismatch")
)

// checkDatabaseVersion reads the version file next to the database. A missing
// file means the database is new.
func checkDatabaseVersion(dbPath string, network string) (doesVersionFileExist bool, err error) {
	content, err := os.ReadFile(versionFilePath(dbPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	fields := strings.Fields(string(content))
	if len(fields) != 2 {
		return true, errors.Errorf("malformed database version file %q", content)
	}
	databaseVersion, err := strconv.Atoi(fields[0])
	if err != nil {
		return true, errors.Wrapf(err, "malformed database version %q", fields[0])
	}
	if databaseVersion != currentDatabaseVersion {
		return true, errors.Wrapf(ErrDatabaseVersionMismatch, "found version %d, expected %d",
			databaseVersion, currentDatabaseVersion)
	}
	if fields[1] != network {
		return true, errors.Wrapf(ErrDatabaseNetworkMismatch, "database at %s belongs to %s, not %s",
			dbPath, fields[1], network)
	}
	return true, nil
}

func createDatabaseVersionFile(dbPath string, network string) error {
	content := fmt.Sprintf("%d %s\n", currentDatabaseVersion, network)
	err := os.WriteFile(versionFilePath(dbPath), []byte(content), 0600)
	return errors.WithStack(err)
}

func versionFilePath(dbPath string) string {
	return filepath.Join(dbPath, versionFileName)
}
