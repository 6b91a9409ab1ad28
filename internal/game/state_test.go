package game_test

import (
	"fmt"
	"testing"

	"github.com/taleforge/taleforge/internal/game"
)

func newTestState(t *testing.T) *game.State {
	t.Helper()
	rs, ok := game.RulesetByKey("dnd5e")
	if !ok {
		t.Fatal("dnd5e ruleset missing")
	}
	st := game.NewState()
	st.SetCharacter(rs.Key, rs.Templates[0].Character) // Aelthos, 24/24 HP
	return st
}

func TestAdjustHP_ClampInvariant(t *testing.T) {
	t.Parallel()
	st := newTestState(t)

	// -30 from 24 floors at 0, +50 caps at maxHp, -5 lands at 19.
	if got := st.AdjustHP(-30); got != 0 {
		t.Errorf("after -30: hp = %d, want 0", got)
	}
	if got := st.AdjustHP(+50); got != 24 {
		t.Errorf("after +50: hp = %d, want 24", got)
	}
	if got := st.AdjustHP(-5); got != 19 {
		t.Errorf("after -5: hp = %d, want 19", got)
	}

	ch, ok := st.Character()
	if !ok {
		t.Fatal("character missing")
	}
	if ch.HP != 19 {
		t.Errorf("sheet hp = %d, want 19", ch.HP)
	}
}

func TestAdjustHP_WithoutCharacter(t *testing.T) {
	t.Parallel()
	st := game.NewState()
	if got := st.AdjustHP(-10); got != 0 {
		t.Errorf("AdjustHP without character = %d, want 0", got)
	}
}

func TestAppendMessage_LogBound(t *testing.T) {
	t.Parallel()
	st := game.NewState()

	for i := range 60 {
		st.AppendMessage(game.RoleModel, fmt.Sprintf("entry %d", i))
	}

	msgs := st.Messages()
	if len(msgs) != game.MaxLogEntries {
		t.Fatalf("log length = %d, want %d", len(msgs), game.MaxLogEntries)
	}
	// Exactly the last 50, in original relative order.
	if msgs[0].Text != "entry 10" {
		t.Errorf("oldest surviving entry = %q, want %q", msgs[0].Text, "entry 10")
	}
	if msgs[len(msgs)-1].Text != "entry 59" {
		t.Errorf("newest entry = %q, want %q", msgs[len(msgs)-1].Text, "entry 59")
	}
}

func TestUpsertQuest_UpdatesInPlace(t *testing.T) {
	t.Parallel()
	st := game.NewState()

	st.UpsertQuest("Find the Artifact", game.QuestActive, "Search the crypt.")
	st.UpsertQuest("Lift the Curse", game.QuestActive, "Talk to the elder.")
	st.UpsertQuest("Find the Artifact", game.QuestCompleted, "")

	quests := st.Quests()
	if len(quests) != 2 {
		t.Fatalf("quest count = %d, want 2", len(quests))
	}
	if quests[0].Title != "Find the Artifact" {
		t.Errorf("quest order changed: %q first", quests[0].Title)
	}
	if quests[0].Status != game.QuestCompleted {
		t.Errorf("status = %q, want completed", quests[0].Status)
	}
	// Empty description on update keeps the original.
	if quests[0].Description != "Search the crypt." {
		t.Errorf("description = %q, want original kept", quests[0].Description)
	}
}

func TestAddNPC_IdempotentByName(t *testing.T) {
	t.Parallel()
	st := game.NewState()

	st.AddNPC("Mira", "The innkeeper.", "Raven's Hollow")
	st.AddNPC("Mira", "A different description.", "Elsewhere")

	npcs := st.NPCs()
	if len(npcs) != 1 {
		t.Fatalf("npc count = %d, want 1", len(npcs))
	}
	if npcs[0].Description != "The innkeeper." {
		t.Errorf("description = %q, want first registration kept", npcs[0].Description)
	}
}

func TestAddNPC_DefaultLocation(t *testing.T) {
	t.Parallel()
	st := game.NewState()
	st.AddNPC("Shade", "A whispering shadow.", "")
	if got := st.NPCs()[0].Location; got != "Unknown" {
		t.Errorf("location = %q, want Unknown", got)
	}
}

func TestAddAndDropItem(t *testing.T) {
	t.Parallel()
	st := newTestState(t)

	st.AddItem("Rusty Key", "Opens something, somewhere.", game.ItemMisc, "")
	ch, _ := st.Character()
	added := ch.Inventory[len(ch.Inventory)-1]
	if added.Name != "Rusty Key" || added.Quantity != 1 {
		t.Fatalf("added item = %+v", added)
	}

	if !st.DropItem(added.ID) {
		t.Fatal("DropItem reported no removal")
	}
	if st.DropItem(added.ID) {
		t.Fatal("second DropItem should report no removal")
	}
}

func TestSetResource_Clamped(t *testing.T) {
	t.Parallel()
	rs, _ := game.RulesetByKey("vtm")
	st := game.NewState()
	st.SetCharacter(rs.Key, rs.Templates[0].Character) // Darius: Hunger 1/5

	st.SetResource("Hunger", 9)
	ch, _ := st.Character()
	if ch.Resources[0].Current != 5 {
		t.Errorf("hunger = %d, want clamped to 5", ch.Resources[0].Current)
	}

	st.SetResource("Hunger", -2)
	ch, _ = st.Character()
	if ch.Resources[0].Current != 0 {
		t.Errorf("hunger = %d, want clamped to 0", ch.Resources[0].Current)
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestState(t)
	st.AppendMessage(game.RoleUser, "Hello?")
	st.AppendMessage(game.RoleModel, "Only fog answers.")
	st.UpsertQuest("Lift the Curse", game.QuestActive, "Find the source of the fog.")
	st.AddNPC("Mira", "The innkeeper.", "Raven's Hollow")
	st.AppendNote("\n\nDM: Only fog answers.")
	st.AdjustHP(-6)

	save := st.Snapshot()
	if save.ID == "" || save.Timestamp == 0 {
		t.Fatalf("snapshot missing id/timestamp: %+v", save)
	}
	if save.SystemKey != "dnd5e" {
		t.Errorf("systemKey = %q", save.SystemKey)
	}

	restored := game.NewState()
	restored.Restore(save)

	if got := restored.Messages(); len(got) != 2 || got[1].Text != "Only fog answers." {
		t.Errorf("restored messages = %+v", got)
	}
	if got := restored.Quests(); len(got) != 1 || got[0].Title != "Lift the Curse" {
		t.Errorf("restored quests = %+v", got)
	}
	if got := restored.NPCs(); len(got) != 1 || got[0].Name != "Mira" {
		t.Errorf("restored npcs = %+v", got)
	}
	if got := restored.Notepad(); got != "\n\nDM: Only fog answers." {
		t.Errorf("restored notepad = %q", got)
	}
	ch, ok := restored.Character()
	if !ok || ch.HP != 18 {
		t.Errorf("restored character hp = %d (ok=%v), want 18", ch.HP, ok)
	}
}

func TestResetCampaign_ClearsEverything(t *testing.T) {
	t.Parallel()
	st := newTestState(t)
	st.AppendMessage(game.RoleModel, "…")
	st.UpsertQuest("Q", game.QuestActive, "")
	st.AddNPC("N", "", "")
	st.AppendNote("note")

	st.ResetCampaign()

	if _, ok := st.Character(); ok {
		t.Error("character should be cleared")
	}
	if st.MessageCount() != 0 || len(st.Quests()) != 0 || len(st.NPCs()) != 0 {
		t.Error("log, quests and npcs should be cleared")
	}
	if st.Notepad() != "" {
		t.Error("notepad should be cleared")
	}
	if st.SystemKey() != "" {
		t.Error("systemKey should be cleared")
	}
}

func TestCharacter_ReturnsCopy(t *testing.T) {
	t.Parallel()
	st := newTestState(t)

	ch, _ := st.Character()
	ch.Stats["Str"] = 99
	ch.Inventory[0].Name = "Tampered"

	again, _ := st.Character()
	if again.Stats["Str"] == 99 {
		t.Error("Stats aliases internal map")
	}
	if again.Inventory[0].Name == "Tampered" {
		t.Error("Inventory aliases internal slice")
	}
}

func TestRulesetByKey(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"dnd5e", "vtm", "isekai"} {
		rs, ok := game.RulesetByKey(key)
		if !ok {
			t.Fatalf("missing ruleset %q", key)
		}
		if rs.Instruction == "" || rs.IntroText == "" || len(rs.Templates) == 0 {
			t.Errorf("ruleset %q incomplete", key)
		}
	}
	if _, ok := game.RulesetByKey("gurps"); ok {
		t.Error("unknown ruleset should not resolve")
	}
}
