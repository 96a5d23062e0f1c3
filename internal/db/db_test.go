package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/models"
)

func TestSqliteDSN(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{":memory:", ":memory:?_foreign_keys=on"},
		{"file:chat.db?cache=shared", "file:chat.db?cache=shared&_foreign_keys=on"},
		{"chat.db?_foreign_keys=off", "chat.db?_foreign_keys=off"},
		{"chat.db?_fk=1", "chat.db?_fk=1"},
	}
	for _, c := range cases {
		if got := sqliteDSN(c.in); got != c.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSqliteForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	gdb, err := Connect("sqlite", filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { sqlDB.Close() })
	if err := Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Hold several connections at once so the pool has to open new ones.
	conns := make([]*sql.Conn, 0, 4)
	for i := 0; i < 4; i++ {
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		conns = append(conns, conn)

		var on int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("conn %d pragma: %v", i, err)
		}
		if on != 1 {
			t.Fatalf("conn %d has foreign_keys=%d", i, on)
		}
	}
	for _, conn := range conns {
		conn.Close()
	}

	orphan := models.Conversation{FarmerID: uuid.New(), LaborerID: uuid.New()}
	if err := gdb.Create(&orphan).Error; err == nil {
		t.Fatal("conversation with unknown participants was inserted")
	}
}
