package game

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxLogEntries bounds the adventure log; appending beyond it evicts the
// oldest entries first.
const MaxLogEntries = 50

// defaultNPCLocation is recorded when the narrator registers an NPC without
// saying where they were met.
const defaultNPCLocation = "Unknown"

// State owns all mutable campaign data for one player. Safe for concurrent
// use; accessors return copies so callers never alias internal slices.
type State struct {
	mu        sync.Mutex
	systemKey string
	character *Character
	messages  []ChatMessage
	notepad   strings.Builder
	quests    []Quest
	npcs      []NPC
	chapters  []StoryChapter
}

// NewState creates an empty campaign state.
func NewState() *State {
	return &State{}
}

// SetCharacter installs the player's sheet and records the ruleset it belongs
// to. A copy is stored.
func (s *State) SetCharacter(systemKey string, ch Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyCharacter(ch)
	s.systemKey = systemKey
	s.character = &c
}

// Character returns a copy of the current sheet, or false if none is set.
func (s *State) Character() (Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return Character{}, false
	}
	return copyCharacter(*s.character), true
}

// SystemKey returns the ruleset key of the running campaign.
func (s *State) SystemKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemKey
}

// AppendMessage appends one log entry and enforces the log bound, evicting
// the oldest entries beyond [MaxLogEntries]. Returns the stored entry.
func (s *State) AppendMessage(role Role, text string) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, msg)
	if excess := len(s.messages) - MaxLogEntries; excess > 0 {
		s.messages = append(s.messages[:0:0], s.messages[excess:]...)
	}
	return msg
}

// Messages returns a copy of the adventure log, oldest first.
func (s *State) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// MessageCount reports the number of log entries without copying.
func (s *State) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// AdjustHP adds amount (negative for damage) to the character's HP, clamped
// to [0, MaxHP]. No-op without a character. Returns the resulting HP.
func (s *State) AdjustHP(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return 0
	}
	hp := s.character.HP + amount
	if hp < 0 {
		hp = 0
	}
	if hp > s.character.MaxHP {
		hp = s.character.MaxHP
	}
	s.character.HP = hp
	return hp
}

// AddItem appends an item to the inventory with a generated id and quantity 1.
// No-op without a character.
func (s *State) AddItem(name, description string, typ ItemType, effect string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return
	}
	s.character.Inventory = append(s.character.Inventory, Item{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Type:        typ,
		Effect:      effect,
		Quantity:    1,
	})
}

// DropItem removes the inventory item with the given id. Reports whether an
// item was removed.
func (s *State) DropItem(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return false
	}
	for i, it := range s.character.Inventory {
		if it.ID == id {
			s.character.Inventory = append(s.character.Inventory[:i], s.character.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// UpsertQuest updates the quest with the given title in place, or appends a
// new one. An empty description on update keeps the existing text.
func (s *State) UpsertQuest(title string, status QuestStatus, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.quests {
		if q.Title == title {
			s.quests[i].Status = status
			if description != "" {
				s.quests[i].Description = description
			}
			return
		}
	}
	s.quests = append(s.quests, Quest{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
	})
}

// Quests returns a copy of the quest journal.
func (s *State) Quests() []Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Quest, len(s.quests))
	copy(out, s.quests)
	return out
}

// AddNPC registers an NPC keyed by name. Re-registering an existing name is a
// no-op; the first registration wins. An empty location records "Unknown".
func (s *State) AddNPC(name, description, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.npcs {
		if n.Name == name {
			return
		}
	}
	if location == "" {
		location = defaultNPCLocation
	}
	s.npcs = append(s.npcs, NPC{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Location:    location,
	})
}

// NPCs returns a copy of the NPC registry.
func (s *State) NPCs() []NPC {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]NPC, len(s.npcs))
	copy(out, s.npcs)
	return out
}

// SetResource sets the current value of the named character resource, clamped
// to [0, Max]. Unknown resource names are ignored.
func (s *State) SetResource(name string, current int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.character == nil {
		return
	}
	for i, r := range s.character.Resources {
		if r.Name != name {
			continue
		}
		if current < 0 {
			current = 0
		}
		if current > r.Max {
			current = r.Max
		}
		s.character.Resources[i].Current = current
		return
	}
}

// AppendNote appends text to the journal notepad.
func (s *State) AppendNote(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notepad.WriteString(text)
}

// Notepad returns the journal notepad contents.
func (s *State) Notepad() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notepad.String()
}

// AddChapter appends a story chapter to the chronicle.
func (s *State) AddChapter(title, content string) StoryChapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := StoryChapter{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		Date:    time.Now().Format("2006-01-02"),
		System:  s.systemKey,
	}
	s.chapters = append(s.chapters, ch)
	return ch
}

// Chapters returns a copy of the chronicle.
func (s *State) Chapters() []StoryChapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoryChapter, len(s.chapters))
	copy(out, s.chapters)
	return out
}

// Snapshot captures everything State owns as a [Save] with a fresh id and
// the current time.
func (s *State) Snapshot() Save {
	s.mu.Lock()
	defer s.mu.Unlock()

	save := Save{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UnixMilli(),
		SystemKey:      s.systemKey,
		Messages:       make([]ChatMessage, len(s.messages)),
		NotepadContent: s.notepad.String(),
		Quests:         make([]Quest, len(s.quests)),
		NPCs:           make([]NPC, len(s.npcs)),
		Chapters:       make([]StoryChapter, len(s.chapters)),
	}
	copy(save.Messages, s.messages)
	copy(save.Quests, s.quests)
	copy(save.NPCs, s.npcs)
	copy(save.Chapters, s.chapters)
	if s.character != nil {
		c := copyCharacter(*s.character)
		save.Character = &c
	}
	return save
}

// Restore replaces all campaign data with the contents of save.
func (s *State) Restore(save Save) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.systemKey = save.SystemKey
	s.character = nil
	if save.Character != nil {
		c := copyCharacter(*save.Character)
		s.character = &c
	}
	s.messages = append(s.messages[:0:0], save.Messages...)
	s.quests = append(s.quests[:0:0], save.Quests...)
	s.npcs = append(s.npcs[:0:0], save.NPCs...)
	s.chapters = append(s.chapters[:0:0], save.Chapters...)
	s.notepad.Reset()
	s.notepad.WriteString(save.NotepadContent)
}

// ResetCampaign clears everything: sheet, log, journal, registries and
// chronicle. Exit-to-menu path.
func (s *State) ResetCampaign() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemKey = ""
	s.character = nil
	s.messages = nil
	s.quests = nil
	s.npcs = nil
	s.chapters = nil
	s.notepad.Reset()
}

// copyCharacter deep-copies a character sheet.
func copyCharacter(ch Character) Character {
	out := ch
	if ch.Stats != nil {
		out.Stats = make(map[string]int, len(ch.Stats))
		for k, v := range ch.Stats {
			out.Stats[k] = v
		}
	}
	out.Skills = append([]string(nil), ch.Skills...)
	out.Spells = append([]string(nil), ch.Spells...)
	out.Resources = append([]Resource(nil), ch.Resources...)
	out.Inventory = append([]Item(nil), ch.Inventory...)
	return out
}
