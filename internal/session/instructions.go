package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taleforge/taleforge/internal/config"
	"github.com/taleforge/taleforge/internal/game"
)

// buildInstructions assembles the system instruction sent once at session
// open: the ruleset's standing instruction, the language directive, the full
// serialized character sheet, and the speak-first directive. The engine is
// told to open with the campaign intro on a fresh game and to summarize prior
// context on a resumed one, so the client never has to race the stream open
// with a first send.
func buildInstructions(rs game.Ruleset, lang config.Language, character game.Character, newGame bool) string {
	sheet, err := json.Marshal(character)
	if err != nil {
		// Character is a plain data struct; marshalling only fails on
		// programmer error. Fall back to the name so the session still opens.
		sheet = []byte(fmt.Sprintf("{%q: %q}", "name", character.Name))
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(rs.Instruction))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "LANGUAGE REQUIREMENT: You must speak, narrate, and reply strictly in %s.\n\n", lang.DisplayName())
	fmt.Fprintf(&b, "Character Context: %s\n\n", sheet)

	b.WriteString("IMPORTANT: You are the narrator and game master.\n")
	b.WriteString("You MUST speak immediately when the session starts.\n\n")

	if newGame {
		fmt.Fprintf(&b, "This is a new game. START with the intro: %q\n\n", rs.IntroText)
	} else {
		b.WriteString("This is a resumed game. Summarize the last situation before continuing.\n\n")
	}

	b.WriteString("Describe the world, the smells, the sounds, and the atmosphere vividly. Do not be brief.")
	return b.String()
}
