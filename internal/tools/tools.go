// Package tools maps the narration engine's function calls onto game state
// mutations. Arguments arrive as loosely typed key/value pairs; Decode
// validates them into typed calls at the boundary, and Dispatch applies the
// mutation and produces the acknowledgment sent back on the wire.
//
// The protocol expects exactly one response per call. Unknown call names and
// calls with missing or malformed required arguments take the no-op path and
// are still acknowledged with a generic ok, never dropped.
package tools

import (
	"fmt"
	"math"

	"github.com/taleforge/taleforge/internal/game"
	"github.com/taleforge/taleforge/pkg/narration"
)

// Call is one validated tool invocation.
type Call interface {
	isCall()
}

// UpdateHP adjusts the character's hit points; negative amounts are damage.
type UpdateHP struct {
	Amount int
}

// AddItem puts a new item in the inventory.
type AddItem struct {
	Name        string
	Description string
	Type        game.ItemType
	Effect      string
}

// UpdateQuest adds a quest or updates the one with the same title.
type UpdateQuest struct {
	Title       string
	Status      game.QuestStatus
	Description string
}

// AddNPC registers a newly met NPC.
type AddNPC struct {
	Name        string
	Description string
	Location    string
}

func (UpdateHP) isCall()    {}
func (AddItem) isCall()     {}
func (UpdateQuest) isCall() {}
func (AddNPC) isCall()      {}

// Decode validates a named call and its raw arguments into a typed [Call].
// Reports false for unknown names or missing/malformed required arguments;
// such calls are dispatched as no-ops.
func Decode(name string, args map[string]any) (Call, bool) {
	switch name {
	case "updateHp":
		amount, ok := numberArg(args, "amount")
		if !ok {
			return nil, false
		}
		return UpdateHP{Amount: int(math.Round(amount))}, true

	case "addItem":
		itemName, ok := stringArg(args, "name")
		if !ok {
			return nil, false
		}
		desc, ok := stringArg(args, "description")
		if !ok {
			return nil, false
		}
		typ, ok := stringArg(args, "type")
		if !ok {
			return nil, false
		}
		effect, _ := stringArg(args, "effect")
		return AddItem{
			Name:        itemName,
			Description: desc,
			Type:        itemType(typ),
			Effect:      effect,
		}, true

	case "updateQuest":
		title, ok := stringArg(args, "title")
		if !ok {
			return nil, false
		}
		status, ok := stringArg(args, "status")
		if !ok {
			return nil, false
		}
		desc, _ := stringArg(args, "description")
		return UpdateQuest{
			Title:       title,
			Status:      questStatus(status),
			Description: desc,
		}, true

	case "addNpc":
		npcName, ok := stringArg(args, "name")
		if !ok {
			return nil, false
		}
		desc, ok := stringArg(args, "description")
		if !ok {
			return nil, false
		}
		loc, _ := stringArg(args, "location")
		return AddNPC{Name: npcName, Description: desc, Location: loc}, true
	}
	return nil, false
}

// Dispatcher applies validated calls to the campaign state.
type Dispatcher struct {
	State *game.State

	// OnDamage, when set, fires before a negative HP mutation commits.
	// Drives the UI damage signal.
	OnDamage func(amount int)
}

// Dispatch decodes and applies one function call and returns the response to
// send back. Every call gets exactly one response.
func (d *Dispatcher) Dispatch(fc narration.FunctionCall) map[string]any {
	call, ok := Decode(fc.Name, fc.Args)
	if !ok {
		return map[string]any{"result": "ok"}
	}

	switch c := call.(type) {
	case UpdateHP:
		if c.Amount < 0 && d.OnDamage != nil {
			d.OnDamage(c.Amount)
		}
		d.State.AdjustHP(c.Amount)
		return map[string]any{"result": fmt.Sprintf("HP updated by %d.", c.Amount)}

	case AddItem:
		d.State.AddItem(c.Name, c.Description, c.Type, c.Effect)
		return map[string]any{"result": fmt.Sprintf("Added %s to inventory.", c.Name)}

	case UpdateQuest:
		d.State.UpsertQuest(c.Title, c.Status, c.Description)
		return map[string]any{"result": "Quest updated."}

	case AddNPC:
		d.State.AddNPC(c.Name, c.Description, c.Location)
		return map[string]any{"result": fmt.Sprintf("NPC %s added.", c.Name)}
	}
	return map[string]any{"result": "ok"}
}

// Declarations returns the four tool declarations advertised to the engine
// at session open.
func Declarations() []narration.ToolDeclaration {
	return []narration.ToolDeclaration{
		{
			Name:        "updateHp",
			Description: "Update the character's Hit Points (HP).",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"amount": map[string]any{"type": "NUMBER", "description": "HP to add or remove (negative for damage)."},
				},
				"required": []string{"amount"},
			},
		},
		{
			Name:        "addItem",
			Description: "Add an item to the character's inventory.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"name":        map[string]any{"type": "STRING", "description": "Item name."},
					"description": map[string]any{"type": "STRING", "description": "Short visual description."},
					"type":        map[string]any{"type": "STRING", "description": "Item type: weapon, armor, potion, or misc."},
					"effect":      map[string]any{"type": "STRING", "description": `Stat effect e.g. "+1 DMG" or "Heals 5 HP". Optional.`},
				},
				"required": []string{"name", "description", "type"},
			},
		},
		{
			Name:        "updateQuest",
			Description: "Add a new quest or update an existing one.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"title":       map[string]any{"type": "STRING", "description": "Title of the quest"},
					"description": map[string]any{"type": "STRING", "description": "Short description of the objective"},
					"status":      map[string]any{"type": "STRING", "description": "Current status: active, completed, or failed"},
				},
				"required": []string{"title", "status"},
			},
		},
		{
			Name:        "addNpc",
			Description: "Register a new NPC that the player has met.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"name":        map[string]any{"type": "STRING", "description": "Name of the NPC"},
					"description": map[string]any{"type": "STRING", "description": "Who they are and what they look like"},
					"location":    map[string]any{"type": "STRING", "description": "Where they were met"},
				},
				"required": []string{"name", "description"},
			},
		},
	}
}

// numberArg coerces args[key] to a float64. JSON numbers arrive as float64;
// strings and other types are rejected.
func numberArg(args map[string]any, key string) (float64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// stringArg coerces args[key] to a non-empty string.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// itemType normalises the loosely typed item kind; anything unrecognised is
// filed as misc.
func itemType(s string) game.ItemType {
	switch game.ItemType(s) {
	case game.ItemWeapon, game.ItemArmor, game.ItemPotion, game.ItemMisc:
		return game.ItemType(s)
	}
	return game.ItemMisc
}

// questStatus normalises the loosely typed quest status; anything
// unrecognised stays active.
func questStatus(s string) game.QuestStatus {
	switch game.QuestStatus(s) {
	case game.QuestActive, game.QuestCompleted, game.QuestFailed:
		return game.QuestStatus(s)
	}
	return game.QuestActive
}
