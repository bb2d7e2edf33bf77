package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/angelmondragon/storefront/pkg/db"
	"gorm.io/driver/sqlite"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestValidateFSRejectsBadNames(t *testing.T) {
	fsys := fstest.MapFS{
		"m/create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	if err := validateFS(fsys, "m"); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestValidateFSRejectsMissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20250101000000_things.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
	}
	if err := validateFS(fsys, "m"); err == nil {
		t.Fatal("expected missing down marker error")
	}
}

func TestDialectFor(t *testing.T) {
	if d, err := dialectFor("sqlite"); err != nil || d != "sqlite3" {
		t.Fatalf("unexpected sqlite dialect %q err=%v", d, err)
	}
	if d, err := dialectFor(""); err != nil || d != "postgres" {
		t.Fatalf("unexpected default dialect %q err=%v", d, err)
	}
	if _, err := dialectFor("mysql"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRunUpCreatesGuestCartTable(t *testing.T) {
	conn, err := db.Open(sqlite.Open("file:migrate_up?mode=memory&cache=shared"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	defer sqlDB.Close()

	if err := Run(context.Background(), sqlDB, "sqlite", "up"); err != nil {
		t.Fatalf("goose up failed: %v", err)
	}
	if !conn.Migrator().HasTable("guest_carts") {
		t.Fatal("expected guest_carts table after migration")
	}
}
