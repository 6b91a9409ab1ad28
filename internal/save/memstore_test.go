package save_test

import (
	"context"
	"errors"
	"testing"

	"github.com/taleforge/taleforge/internal/game"
	"github.com/taleforge/taleforge/internal/save"
)

func testSave(id string, ts int64) game.Save {
	return game.Save{
		ID:        id,
		Timestamp: ts,
		SystemKey: "dnd5e",
		Character: &game.Character{Name: "Aelthos", HP: 24, MaxHP: 24},
		Messages: []game.ChatMessage{
			{ID: "m1", Role: game.RoleModel, Text: "Raven's Hollow awaits"},
		},
	}
}

func TestMemStore_PutGetRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := save.NewMemStore()

	want := testSave("s1", 100)
	if err := st.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "s1" || got.SystemKey != "dnd5e" {
		t.Errorf("save = %+v", got)
	}
	if got.Character == nil || got.Character.Name != "Aelthos" {
		t.Errorf("character = %+v", got.Character)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "Raven's Hollow awaits" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestMemStore_GetUnknownID(t *testing.T) {
	t.Parallel()
	st := save.NewMemStore()

	_, err := st.Get(context.Background(), "missing")
	if !errors.Is(err, save.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemStore_PutReplacesSameID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := save.NewMemStore()

	first := testSave("s1", 100)
	if err := st.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	second := testSave("s1", 200)
	second.NotepadContent = "updated"
	if err := st.Put(ctx, second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Timestamp != 200 || got.NotepadContent != "updated" {
		t.Errorf("save = %+v, want replaced version", got)
	}

	saves, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(saves) != 1 {
		t.Errorf("len(saves) = %d, want 1", len(saves))
	}
}

func TestMemStore_ListNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := save.NewMemStore()

	for _, s := range []game.Save{testSave("old", 100), testSave("new", 300), testSave("mid", 200)} {
		if err := st.Put(ctx, s); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	saves, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"new", "mid", "old"}
	if len(saves) != len(want) {
		t.Fatalf("len(saves) = %d, want %d", len(saves), len(want))
	}
	for i, id := range want {
		if saves[i].ID != id {
			t.Errorf("saves[%d].ID = %q, want %q", i, saves[i].ID, id)
		}
	}
}

func TestMemStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := save.NewMemStore()

	if err := st.Put(ctx, testSave("s1", 100)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := st.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, "s1"); !errors.Is(err, save.ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, "s1"); !errors.Is(err, save.ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func TestMemStore_GetReturnsIsolatedCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := save.NewMemStore()

	if err := st.Put(ctx, testSave("s1", 100)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Character.HP = 1

	again, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Character.HP != 24 {
		t.Errorf("stored save mutated through returned copy: hp = %d", again.Character.HP)
	}
}
