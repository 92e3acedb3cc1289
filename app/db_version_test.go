package app

import (
	"os"
	"testing"

	"github.com/pkg/errors"
)

func TestDatabaseVersionFile(t *testing.T) {
	dbPath := t.TempDir()

	exists, err := checkDatabaseVersion(dbPath, "calico-simnet")
	if err != nil {
		t.Fatalf("checkDatabaseVersion: %+v", err)
	}
	if exists {
		t.Fatalf("a fresh directory must not have a version file")
	}

	err = createDatabaseVersionFile(dbPath, "calico-simnet")
	if err != nil {
		t.Fatalf("createDatabaseVersionFile: %+v", err)
	}
	exists, err = checkDatabaseVersion(dbPath, "calico-simnet")
	if err != nil {
		t.Fatalf("checkDatabaseVersion: %+v", err)
	}
	if !exists {
		t.Fatalf("expected the version file to exist")
	}

	_, err = checkDatabaseVersion(dbPath, "calico-mainnet")
	if !errors.Is(err, ErrDatabaseNetworkMismatch) {
		t.Fatalf("expected ErrDatabaseNetworkMismatch but got %+v", err)
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("7 calico-simnet\n"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %+v", err)
	}
	_, err = checkDatabaseVersion(dbPath, "calico-simnet")
	if !errors.Is(err, ErrDatabaseVersionMismatch) {
		t.Fatalf("expected ErrDatabaseVersionMismatch but got %+v", err)
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("1"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %+v", err)
	}
	_, err = checkDatabaseVersion(dbPath, "calico-simnet")
	if err == nil {
		t.Fatalf("expected an error for a malformed version file")
	}
}
