package caterdesk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/autosave"
	"github.com/caterdesk/caterdesk/caterdesk/billing"
	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	"github.com/caterdesk/caterdesk/internal/validation"
	"github.com/caterdesk/caterdesk/types"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func openApp(t *testing.T, target *filesync.MemoryTarget) *App {
	t.Helper()
	cfg := Config{
		DataDir:     t.TempDir(),
		SettleDelay: -1,
		Now:         func() time.Time { return testNow },
	}
	if target != nil {
		cfg.Opener = func(*filesync.Handle) filesync.Target { return target }
	}
	app, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestOpen(t *testing.T) {
	app := openApp(t, nil)

	if _, err := os.Stat(app.Store.Path()); err != nil {
		t.Fatalf("expected document file: %v", err)
	}
	if app.State.Dirty() {
		t.Error("expected clean state after Open")
	}
	if app.Autosave.Status() != autosave.StatusInactive {
		t.Errorf("expected Inactive, got %s", app.Autosave.Status())
	}

	if _, err := Open(Config{}); err == nil {
		t.Error("expected error without a data directory")
	}
}

func TestDishes(t *testing.T) {
	app := openApp(t, nil)

	created, err := app.SaveDish(types.Dish{Name: "Veg Biryani", Category: "Mains", Price: types.MoneyFromInt(180)})
	if err != nil {
		t.Fatalf("SaveDish failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	created.Price = types.MoneyFromInt(200)
	if _, err := app.SaveDish(created); err != nil {
		t.Fatalf("SaveDish failed: %v", err)
	}

	dishes, err := app.Dishes()
	if err != nil {
		t.Fatalf("Dishes failed: %v", err)
	}
	if len(dishes) != 1 || !dishes[0].Price.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected one dish priced 200, got %+v", dishes)
	}

	if _, err := app.SaveDish(types.Dish{Price: types.MoneyFromInt(5)}); err == nil {
		t.Error("expected dish without name to be rejected")
	}

	if err := app.Delete(types.Dishes, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := app.FindDish(created.ID); ok {
		t.Error("expected dish to be deleted")
	}
}

func TestClientCreatedAt(t *testing.T) {
	app := openApp(t, nil)

	c, err := app.SaveClient(types.Client{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("SaveClient failed: %v", err)
	}
	if c.CreatedAt == nil || !c.CreatedAt.Equal(testNow) {
		t.Fatalf("expected createdAt %v, got %v", testNow, c.CreatedAt)
	}

	later := testNow.Add(48 * time.Hour)
	c.Name = "Alice Smith"
	c.CreatedAt = &later
	updated, err := app.SaveClient(c)
	if err != nil {
		t.Fatalf("SaveClient failed: %v", err)
	}
	if !updated.CreatedAt.Equal(testNow) {
		t.Errorf("expected createdAt to be kept, got %v", updated.CreatedAt)
	}

	if _, err := app.Update(types.Clients, c.ID, types.Record{"createdAt": later.Format(time.RFC3339)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	found, _, _ := app.FindClient(c.ID)
	if !found.CreatedAt.Equal(testNow) {
		t.Errorf("expected Update to leave createdAt alone, got %v", found.CreatedAt)
	}
}

func TestUpdate(t *testing.T) {
	app := openApp(t, nil)
	d, err := app.SaveDish(types.Dish{Name: "Gulab Jamun", Category: "Desserts", Price: types.MoneyFromInt(40)})
	if err != nil {
		t.Fatalf("SaveDish failed: %v", err)
	}

	t.Run("partial update keeps other fields", func(t *testing.T) {
		if _, err := app.Update(types.Dishes, d.ID, types.Record{"price": 45}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		got, _, _ := app.FindDish(d.ID)
		if got.Category != "Desserts" || !got.Price.Equal(decimal.NewFromInt(45)) {
			t.Errorf("unexpected dish %+v", got)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := app.Update(types.Dishes, "nope", types.Record{"price": 1})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("invalid result is rejected", func(t *testing.T) {
		_, err := app.Update(types.Dishes, d.ID, types.Record{"name": ""})
		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		got, _, _ := app.FindDish(d.ID)
		if got.Name != "Gulab Jamun" {
			t.Errorf("expected name to be unchanged, got %q", got.Name)
		}
	})
}

func TestEventBalanceScenario(t *testing.T) {
	app := openApp(t, nil)

	if _, err := app.SaveDish(types.Dish{ID: "d1", Name: "Thali", Price: types.MoneyFromInt(100)}); err != nil {
		t.Fatalf("SaveDish failed: %v", err)
	}
	if _, err := app.SaveClient(types.Client{ID: "c1", Name: "Alice"}); err != nil {
		t.Fatalf("SaveClient failed: %v", err)
	}
	e, err := app.SaveEvent(types.Event{
		ClientID:    "c1",
		Date:        "2099-01-01T10:00",
		Venue:       "Hall",
		GuestCount:  10,
		Menu:        []types.MenuItem{{DishID: "d1", Quantity: 10}},
		AdvancePaid: types.MoneyFromInt(200),
		Discount:    types.MoneyFromInt(50),
	})
	if err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}
	if e.Status != types.StatusTentative {
		t.Errorf("expected default status Tentative, got %q", e.Status)
	}

	book, err := app.Book()
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	total := book.EventTotal(e)
	if !total.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected total 1000, got %s", total)
	}
	if balance := billing.Balance(e, total); !balance.Equal(decimal.NewFromInt(750)) {
		t.Errorf("expected balance 750, got %s", balance)
	}
	if name := book.ClientName(e.ClientID); name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	app := openApp(t, nil)
	if _, err := app.SaveClient(types.Client{Name: "Bob"}); err != nil {
		t.Fatalf("SaveClient failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "backup.json")
	backup, err := app.Export(ctx, path, false)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if backup.Counts.Clients != 1 {
		t.Errorf("expected 1 client in backup, got %d", backup.Counts.Clients)
	}

	// No prompter: an existing file is not replaced.
	if _, err := app.Export(ctx, path, false); !errors.Is(err, filesync.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}

	other := openApp(t, nil)
	result, err := other.Import(path, false)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !result.Applied {
		t.Error("expected import to apply")
	}
	clients, _ := other.Clients()
	if len(clients) != 1 || clients[0].Name != "Bob" {
		t.Errorf("unexpected clients %+v", clients)
	}
}

func TestImportedBadValueKeepsViewsUsable(t *testing.T) {
	app := openApp(t, nil)
	path := filepath.Join(t.TempDir(), "backup.json")
	data := `{"dishes":[{"id":"d1","price":"abc"},{"id":"d2","name":"Dal","price":50}],"clients":[],"events":[]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := app.Import(path, false)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !result.Applied || len(result.Warnings) == 0 {
		t.Fatalf("expected an applied import with warnings, got %+v", result)
	}

	book, err := app.Book()
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if len(book.Dishes) != 1 || book.Dishes[0].ID != "d2" {
		t.Errorf("expected book to keep d2, got %+v", book.Dishes)
	}
	if len(book.Skipped) != 1 {
		t.Errorf("expected one skipped record, got %v", book.Skipped)
	}

	dishes, err := app.Dishes()
	if err != nil {
		t.Fatalf("Dishes failed: %v", err)
	}
	if len(dishes) != 1 || dishes[0].Name != "Dal" {
		t.Errorf("expected only Dal, got %+v", dishes)
	}

	// The bad record can still be repaired in place.
	if _, err := app.Update(types.Dishes, "d1", types.Record{"name": "Kheer", "price": 60}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if dishes, _ := app.Dishes(); len(dishes) != 2 {
		t.Errorf("expected both dishes after repair, got %+v", dishes)
	}
}

func TestAutosaveWiring(t *testing.T) {
	ctx := context.Background()
	target := filesync.NewMemoryTarget(autosave.SuggestedFileName)
	app := openApp(t, target)

	h := filesync.NewHandle(autosave.SuggestedFileName, filepath.Join(t.TempDir(), autosave.SuggestedFileName), testNow)
	if err := app.Autosave.Activate(ctx, h); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if err := app.Autosave.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := app.Autosave.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if target.Writes() != 1 {
		t.Fatalf("expected activation to trigger a write, got %d", target.Writes())
	}

	if _, err := app.SaveDish(types.Dish{Name: "Kheer", Price: types.MoneyFromInt(30)}); err != nil {
		t.Fatalf("SaveDish failed: %v", err)
	}
	if !app.State.Dirty() {
		t.Error("expected mutation through the app to mark the shared state dirty")
	}
	if err := app.Autosave.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if target.Writes() != 2 || app.State.Dirty() {
		t.Errorf("expected second write and clean state, got %d writes", target.Writes())
	}
}
