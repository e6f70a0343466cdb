package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/velorashop/velora-backend/pkg/config"
	"github.com/velorashop/velora-backend/pkg/db"
	"github.com/velorashop/velora-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.DBConfig{
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Driver:       "sqlite",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(&models.CartLine{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return client
}
