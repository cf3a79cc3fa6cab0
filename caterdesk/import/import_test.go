package imports

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/export"
	"github.com/caterdesk/caterdesk/caterdesk/storage"
	"github.com/caterdesk/caterdesk/caterdesk/store"
	"github.com/caterdesk/caterdesk/types"
	"github.com/google/go-cmp/cmp"
)

func newStore(t *testing.T) (store.Store, *store.MockFileSystem, *storage.SyncState) {
	t.Helper()
	mockFS := store.NewMockFileSystem()
	state := storage.NewSyncState()
	s, err := store.New("data/cateringAppData.json",
		store.WithFileSystem(mockFS),
		store.WithFileLockFactory(store.NewMockFileLockFactory()),
		store.WithSyncState(state),
	)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s, mockFS, state
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		valid       bool
		wantProblem string
	}{
		{name: "minimal", input: `{"dishes":[],"clients":[],"events":[]}`, valid: true},
		{name: "with settings and extra keys", input: `{"dishes":[{"id":"d1"}],"clients":[],"events":[],"settings":{"currency":"INR"},"version":2}`, valid: true},
		{name: "not JSON", input: `{"dishes":`, wantProblem: "not valid JSON"},
		{name: "array at top level", input: `[]`, wantProblem: "top level must be an object"},
		{name: "missing events", input: `{"dishes":[],"clients":[]}`, wantProblem: "events is required"},
		{name: "null clients", input: `{"dishes":[],"clients":null,"events":[]}`, wantProblem: "clients is required"},
		{name: "dishes not an array", input: `{"dishes":{},"clients":[],"events":[]}`, wantProblem: "dishes must be an array of objects"},
		{name: "record not an object", input: `{"dishes":[1],"clients":[],"events":[]}`, wantProblem: "dishes must be an array of objects"},
		{name: "settings not an object", input: `{"dishes":[],"clients":[],"events":[],"settings":"x"}`, wantProblem: "settings must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate([]byte(tt.input))
			if got.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v (problems %v)", got.Valid, tt.valid, got.Problems)
			}
			if tt.wantProblem == "" {
				return
			}
			if !strings.Contains(strings.Join(got.Problems, "\n"), tt.wantProblem) {
				t.Errorf("expected problem %q, got %v", tt.wantProblem, got.Problems)
			}
		})
	}

	t.Run("lists every problem", func(t *testing.T) {
		got := Validate([]byte(`{}`))
		if len(got.Problems) != 3 {
			t.Errorf("expected 3 problems, got %v", got.Problems)
		}
	})
}

func TestImportRejectsInvalidFile(t *testing.T) {
	s, mockFS, state := newStore(t)
	if _, err := s.Upsert(types.Dishes, types.Record{"id": "d1", "name": "Samosa"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	before, _ := mockFS.GetFileContent("data/cateringAppData.json")
	rev := state.Revision()

	result, err := Import(s, []byte(`{"dishes":[]}`), ImportOptions{})
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if result == nil || result.Validation.Valid || result.Applied {
		t.Fatalf("expected rejected result, got %+v", result)
	}

	after, _ := mockFS.GetFileContent("data/cateringAppData.json")
	if string(before) != string(after) {
		t.Error("expected stored document to be untouched")
	}
	if state.Revision() != rev {
		t.Error("expected no write")
	}
}

func TestImportReplacesDocument(t *testing.T) {
	s, _, state := newStore(t)
	if _, err := s.Upsert(types.Clients, types.Record{"id": "old", "name": "Old Client"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	input := `{
  "dishes": [{"id": "d1", "name": "Samosa", "price": "15"}],
  "clients": [{"id": "c1", "name": "Alice"}],
  "events": []
}`
	result, err := Import(s, []byte(input), ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !result.Applied || !result.Validation.Valid {
		t.Errorf("expected applied import, got %+v", result)
	}
	if result.Summary.Dishes != 1 || result.Summary.Clients != 1 || result.Summary.Events != 0 {
		t.Errorf("unexpected summary %+v", result.Summary)
	}
	if !state.Dirty() {
		t.Error("expected import to mark the state dirty")
	}

	clients, _ := s.List(types.Clients)
	if len(clients) != 1 || clients[0].ID() != "c1" {
		t.Errorf("expected clients to be replaced, got %v", clients)
	}
	doc, _ := s.GetDocument()
	if doc.Settings == nil {
		t.Error("expected missing settings to become an empty object")
	}
}

func TestImportDryRun(t *testing.T) {
	s, _, state := newStore(t)
	rev := state.Revision()

	result, err := Import(s, []byte(`{"dishes":[{"id":"d1","name":"Samosa"}],"clients":[],"events":[]}`), ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Applied {
		t.Error("expected dry run not to apply")
	}
	if state.Revision() != rev {
		t.Error("expected no write during dry run")
	}
	dishes, _ := s.List(types.Dishes)
	if len(dishes) != 0 {
		t.Errorf("expected no dishes, got %v", dishes)
	}
}

func TestImportWarnsAboutRecords(t *testing.T) {
	s, _, _ := newStore(t)

	input := `{"dishes":[{"id":"d1","price":10}],"clients":[],"events":[{"id":"e1","clientId":"c1","date":"2099-01-01","venue":"Hall","guestCount":0}]}`
	result, err := Import(s, []byte(input), ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !result.Applied {
		t.Fatal("expected warnings not to block the import")
	}

	joined := strings.Join(result.Warnings, "\n")
	for _, want := range []string{"dishes[0]: name is required", "events[0]: guestCount must be greater than 0"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected warning %q, got %v", want, result.Warnings)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _, _ := newStore(t)
	dish, err := src.Upsert(types.Dishes, types.Record{"name": "Paneer Tikka", "price": 120.5, "category": "Starters"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	client, err := src.Upsert(types.Clients, types.Record{"name": "Alice", "email": "alice@example.com", "createdAt": "2026-01-02T03:04:05Z"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	_, err = src.Upsert(types.Events, types.Record{
		"clientId":   client.ID(),
		"date":       "2099-01-01T10:00",
		"venue":      "Hall",
		"guestCount": 10.0,
		"menu":       []interface{}{map[string]interface{}{"dishId": dish.ID(), "quantity": 10.0}},
		"legacyNote": "kept as is",
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	want, err := src.GetDocument()
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	backup, err := export.Generate(src, time.Now())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	dst, _, _ := newStore(t)
	if _, err := Import(dst, backup.Content, ImportOptions{}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	got, err := dst.GetDocument()
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImportFromPath(t *testing.T) {
	s, mockFS, _ := newStore(t)
	mockFS.SetFileContent("backup.json", []byte(`{"dishes":[],"clients":[{"id":"c9","name":"Zed"}],"events":[]}`))

	if _, err := ImportFromPath(s, "backup.json", ImportOptions{FileSystem: mockFS}); err != nil {
		t.Fatalf("ImportFromPath failed: %v", err)
	}
	if _, ok, _ := s.Find(types.Clients, "c9"); !ok {
		t.Error("expected imported client")
	}

	if _, err := ImportFromPath(s, "missing.json", ImportOptions{FileSystem: mockFS}); err == nil {
		t.Error("expected error for missing file")
	}
}
