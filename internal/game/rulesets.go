package game

// Template is a ready-made character offered during campaign setup.
type Template struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Character   Character `json:"character"`
}

// Ruleset is one playable campaign configuration: the narrator's standing
// instruction, the opening scene and the character templates.
type Ruleset struct {
	Key         string
	Name        string
	Description string
	Instruction string
	IntroText   string
	Templates   []Template
}

const dndInstruction = `
ROLE: You are the Dungeon Master (DM) for a solo D&D 5e campaign titled "The Curse of Shadowfen".
TONE: Atmospheric, Grim, Gothic Horror, Suspenseful.

CAMPAIGN START:
The player is a lone adventurer arriving at the cursed village of Raven's Hollow. The village is plagued by a thick, supernatural fog. Villagers are missing.

YOUR RESPONSIBILITIES:
1. **IMMERSION IS KEY**: Do not just say "You see a tavern." Say "The smell of stale ale and wet dog hits you as the heavy oak door creaks open. The tavern is silent, save for the crackling fire."
2. **WORLD BUILDING**: Introduce NPCs with distinct voices and personalities. Describe the environment (weather, lighting, smells).
3. **GAMEPLAY**: This is a game. Ask the player what they want to do. Call for skill checks (e.g., "Roll for Perception").
4. **COMBAT**: Narrate combat viscera. Use the tools to track damage.
5. **INVENTORY**: If the player says "I drink the potion", act out the healing.
`

const vtmInstruction = `
ROLE: You are the Storyteller for a solo Vampire: The Masquerade (V5) chronicle titled "Neon Blood".
TONE: Noir, Political, Seductive, Dangerous.

CAMPAIGN START:
The player is a fledgling vampire in Los Angeles. The Prince has summoned them to 'The Velveteen Room' nightclub. Someone broke the Masquerade, and you are the scapegoat unless you find the truth.

YOUR RESPONSIBILITIES:
1. **ATMOSPHERE**: Describe the neon lights reflecting on wet pavement, the thumping bass of the club, the hunger inside the character.
2. **THE BEAST**: Remind the player of their Hunger. Tempt them.
3. **POLITICS**: NPCs should be manipulative. Trust no one.
4. **MECHANICS**: Call for attribute + skill rolls.
`

const isekaiInstruction = `
ROLE: You are the "System AI" for a solo Isekai adventure titled "Tower of Ascension".
TONE: Video-game-like, Epic, Slightly Sarcastic helper.

CAMPAIGN START:
The player died in the real world and has been reincarnated in the world of Aethelgard. They are standing at the base of the Great Tower. They have a "Cheat Skill".

YOUR RESPONSIBILITIES:
1. **SYSTEM NOTIFICATIONS**: Speak like a game interface when relevant (e.g., "Quest Accepted", "Level Up").
2. **POWER FANTASY**: Make the player feel their unique power, but present massive monsters to fight.
3. **WORLD**: High fantasy. Floating islands, magic crystals, dragon riders.
4. **LOOT**: Be generous with loot descriptions.
`

var rulesets = map[string]Ruleset{
	"dnd5e": {
		Key:         "dnd5e",
		Name:        "Campaign: The Curse of Shadowfen",
		Description: "A D&D 5e Gothic Horror. Uncover the secrets of a vanishing village.",
		Instruction: dndInstruction,
		IntroText:   "The heavy iron gates of Raven's Hollow screech open. A thick, unnatural fog clings to your boots. The village ahead looks abandoned, windows dark like empty eye sockets. A crow caws somewhere in the mist. You are alone.",
		Templates: []Template{
			{
				Name:        "Aelthos (Rogue)",
				Description: "A stealthy investigator seeking a lost artifact.",
				Character: Character{
					System: "dnd5e",
					Name:   "Aelthos",
					Class:  "Rogue",
					Level:  3,
					HP:     24,
					MaxHP:  24,
					AC:     14,
					Stats:  map[string]int{"Str": 10, "Dex": 16, "Con": 12, "Int": 14, "Wis": 10, "Cha": 13},
					Skills: []string{"Stealth +5", "Perception +4", "Investigation +4"},
					Spells: []string{},
					Inventory: []Item{
						{ID: "1", Name: "Shortsword", Description: "A keen blade of elven steel.", Type: ItemWeapon, Effect: "1d6 Piercing", Quantity: 1},
						{ID: "2", Name: "Studded Leather", Description: "Darkened leather for stealth.", Type: ItemArmor, Effect: "AC 12+Dex", Quantity: 1},
						{ID: "3", Name: "Healing Potion", Description: "A vial of red liquid.", Type: ItemPotion, Effect: "Heals 2d4+2 HP", Quantity: 2},
					},
				},
			},
			{
				Name:        "Valerius (Paladin)",
				Description: "A holy warrior sent to purge the darkness.",
				Character: Character{
					System: "dnd5e",
					Name:   "Valerius",
					Class:  "Paladin",
					Level:  3,
					HP:     28,
					MaxHP:  28,
					AC:     16,
					Stats:  map[string]int{"Str": 16, "Dex": 10, "Con": 14, "Int": 8, "Wis": 12, "Cha": 14},
					Skills: []string{"Athletics +5", "Religion +2"},
					Spells: []string{"Divine Smite", "Lay on Hands"},
					Resources: []Resource{
						{Name: "Spell Slots", Current: 3, Max: 3, Color: "bg-yellow-500"},
					},
					Inventory: []Item{
						{ID: "1", Name: "Warhammer", Description: "Engraved with holy runes.", Type: ItemWeapon, Effect: "1d8 Bludgeoning", Quantity: 1},
						{ID: "2", Name: "Chain Mail", Description: "Heavy protection.", Type: ItemArmor, Effect: "AC 16", Quantity: 1},
						{ID: "3", Name: "Holy Water", Description: "Burns the undead.", Type: ItemMisc, Quantity: 2},
					},
				},
			},
		},
	},
	"vtm": {
		Key:         "vtm",
		Name:        "Campaign: Neon Blood",
		Description: "Vampire: The Masquerade. Political intrigue in modern Los Angeles.",
		Instruction: vtmInstruction,
		IntroText:   "The bass of 'The Velveteen Room' vibrates in your chest. Red strobe lights cut through the cigarette smoke. You stand on the VIP balcony, looking down at the dancing vessels. The Prince is waiting for you in the back office. He does not look happy.",
		Templates: []Template{
			{
				Name:        "Darius (Brujah)",
				Description: "An ex-MMA fighter turned immortal enforcer.",
				Character: Character{
					System: "vtm",
					Name:   "Darius",
					Class:  "Brujah",
					Level:  1,
					HP:     10,
					MaxHP:  10,
					Stats:  map[string]int{"Str": 4, "Dex": 3, "Sta": 3, "Cha": 2, "Man": 2, "App": 2},
					Skills: []string{"Brawl 4", "Streetwise 3", "Intimidation 3"},
					Spells: []string{"Potence", "Celerity"},
					Resources: []Resource{
						{Name: "Hunger", Current: 1, Max: 5, Color: "bg-red-600"},
						{Name: "Willpower", Current: 5, Max: 5, Color: "bg-gray-400"},
					},
					Inventory: []Item{
						{ID: "1", Name: "Brass Knuckles", Description: "For when words fail.", Type: ItemWeapon, Effect: "+1 DMG", Quantity: 1},
						{ID: "2", Name: "Smartphone", Description: "Burner phone.", Type: ItemMisc, Quantity: 1},
					},
				},
			},
		},
	},
	"isekai": {
		Key:         "isekai",
		Name:        "Campaign: Tower of Ascension",
		Description: "Reborn in a world of magic. Climb the tower to become a god.",
		Instruction: isekaiInstruction,
		IntroText:   "Consciousness returns slowly. You are lying on a field of azure grass floating in the sky. Massive stone chains tether this island to a colossal tower that pierces the clouds. A blue window pops up in your vision: [WELCOME PLAYER. INITIATING TUTORIAL.]",
		Templates: []Template{
			{
				Name:        "Kenji (Spellblade)",
				Description: "Wields a sword and magic with a balanced build.",
				Character: Character{
					System: "isekai",
					Name:   "Kenji",
					Class:  "Spellblade",
					Level:  1,
					HP:     100,
					MaxHP:  100,
					Stats:  map[string]int{"Str": 12, "Dex": 12, "Vit": 12, "Int": 10, "Wis": 10, "Luk": 50},
					Skills: []string{"Analysis", "Double Jump"},
					Spells: []string{"Fireball", "Heal"},
					Resources: []Resource{
						{Name: "MP", Current: 50, Max: 50, Color: "bg-sky-400"},
					},
					Inventory: []Item{
						{ID: "1", Name: "Starter Sword", Description: "Basic iron blade.", Type: ItemWeapon, Effect: "10 DMG", Quantity: 1},
						{ID: "2", Name: "Health Potion", Description: "Restores HP.", Type: ItemPotion, Effect: "Heal 50 HP", Quantity: 5},
					},
				},
			},
		},
	},
}

// RulesetByKey looks up a campaign configuration by its key.
func RulesetByKey(key string) (Ruleset, bool) {
	rs, ok := rulesets[key]
	return rs, ok
}

// RulesetKeys lists the known campaign keys.
func RulesetKeys() []string {
	keys := make([]string, 0, len(rulesets))
	for k := range rulesets {
		keys = append(keys, k)
	}
	return keys
}
