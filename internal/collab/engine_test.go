package collab

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/conclave-hq/conclave/internal/db"
	"github.com/conclave-hq/conclave/internal/sink"
)

// recordingBus captures broadcasts for assertions.
type recordingBus struct {
	rooms  []string
	events []string
}

func (b *recordingBus) BroadcastToRoom(room, event string, payload any) {
	b.rooms = append(b.rooms, room)
	b.events = append(b.events, event)
}

func (b *recordingBus) has(room, event string) bool {
	for i := range b.events {
		if b.rooms[i] == room && b.events[i] == event {
			return true
		}
	}
	return false
}

// recordingSink captures forwarded domain events.
type recordingSink struct {
	events []sink.Event
}

func (s *recordingSink) Notify(ctx context.Context, ev sink.Event) {
	s.events = append(s.events, ev)
}

func (s *recordingSink) has(name string) bool {
	for _, ev := range s.events {
		if ev.Name == name {
			return true
		}
	}
	return false
}

// testDB opens a migrated sqlite database in a temp directory.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conclave.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// testEngine builds an Engine with recording collaborators and inline
// side effects.
func testEngine(t *testing.T) (*Engine, *recordingBus, *recordingSink) {
	t.Helper()
	b := &recordingBus{}
	s := &recordingSink{}
	e := NewEngine(EngineOpts{
		DB:          testDB(t),
		Bus:         b,
		Sink:        s,
		SyncEffects: true,
	})
	return e, b, s
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(EngineOpts{DB: testDB(t)})
	if e.bus == nil {
		t.Error("bus default missing")
	}
	if e.sink == nil {
		t.Error("sink default missing")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	if !IsValidation(validationf("x")) {
		t.Error("IsValidation failed on ValidationError")
	}
	if !IsConflict(conflictf("x")) {
		t.Error("IsConflict failed on ConflictError")
	}
	if !IsNotFound(&NotFoundError{Entity: "session", ID: "s1"}) {
		t.Error("IsNotFound failed on NotFoundError")
	}
	if IsValidation(conflictf("x")) || IsConflict(validationf("x")) {
		t.Error("taxonomy kinds must not overlap")
	}
}
