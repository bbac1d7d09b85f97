package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestBaseBindsContext(t *testing.T) {
	t.Parallel()

	dsn := "file:repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	base := NewBase(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := base.DB(ctx).Exec("SELECT 1").Error; err == nil {
		t.Fatal("cancelled context must reach the driver")
	}

	if err := base.DB(context.Background()).Exec("SELECT 1").Error; err != nil {
		t.Fatalf("exec: %v", err)
	}
	if base.DB(nil) == nil {
		t.Fatal("nil context must still return the handle")
	}
}
