// Package game holds the campaign data model and its single mutating owner,
// [State]. All mutations funnel through State methods so invariants (HP
// clamping, log bounds, registry keys) hold no matter which collaborator —
// tool dispatch, transcription flush or the UI — triggers them.
package game

import "time"

// ItemType classifies inventory items.
type ItemType string

const (
	ItemWeapon ItemType = "weapon"
	ItemArmor  ItemType = "armor"
	ItemPotion ItemType = "potion"
	ItemMisc   ItemType = "misc"
)

// Item is one inventory entry.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        ItemType `json:"type"`
	Effect      string   `json:"effect,omitempty"`
	Quantity    int      `json:"quantity"`
}

// Resource is a named depletable pool such as spell slots, hunger or mana.
type Resource struct {
	Name    string `json:"name"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
	Color   string `json:"color,omitempty"`
}

// Character is the player's sheet for one campaign.
type Character struct {
	System     string         `json:"system"`
	Name       string         `json:"name"`
	Class      string         `json:"class"`
	Background string         `json:"background,omitempty"`
	Level      int            `json:"level"`
	HP         int            `json:"hp"`
	MaxHP      int            `json:"maxHp"`
	AC         int            `json:"ac,omitempty"`
	Stats      map[string]int `json:"stats"`
	Skills     []string       `json:"skills"`
	Spells     []string       `json:"spells"`
	Resources  []Resource     `json:"resources"`
	Inventory  []Item         `json:"inventory"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// ChatMessage is one adventure-log entry.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// QuestStatus is the lifecycle state of a quest.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

// Quest is one journal quest, keyed by title for upserts.
type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      QuestStatus `json:"status"`
}

// NPC is one registered non-player character, keyed by name.
type NPC struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// StoryChapter is a novelized chunk of past play.
type StoryChapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
	System  string `json:"system"`
}

// Save is the persisted shape of one campaign. Everything State owns round-
// trips through this struct with no loss.
type Save struct {
	ID             string         `json:"id"`
	Timestamp      int64          `json:"timestamp"`
	SystemKey      string         `json:"systemKey"`
	Character      *Character     `json:"character"`
	Messages       []ChatMessage  `json:"messages"`
	NotepadContent string         `json:"notepadContent"`
	Quests         []Quest        `json:"quests"`
	NPCs           []NPC          `json:"npcs"`
	Chapters       []StoryChapter `json:"chapters"`
}
