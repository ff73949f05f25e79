package app

import (
	"strings"

	"aipocket/internal/aichat"
)

func parsePersona(raw string) (aichat.Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "companion", "buddy":
		return aichat.ModeCompanion, true
	case "standard", "plain":
		return aichat.ModeStandard, true
	default:
		return aichat.ModeCompanion, false
	}
}
