package generation

import "strings"

var roadmapTriggers = []string{"roadmap", "learn"}

// DetermineIntent picks the intent for a user turn. The roadmap and resume
// modes are authoritative; in chat mode (or with no mode) a lexical check on
// the utterance can still promote the turn to a roadmap request.
func DetermineIntent(mode Mode, utterance string) Intent {
	switch mode {
	case ModeRoadmap:
		return RoadmapRequest
	case ModeResume:
		return ResumeCritiqueRequest
	}

	lower := strings.ToLower(utterance)
	for _, trigger := range roadmapTriggers {
		if strings.Contains(lower, trigger) {
			return RoadmapRequest
		}
	}
	return FreeChat
}

// ParseMode accepts the tab names used by clients. Unknown values map to
// ModeNone so the lexical heuristic applies.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeChat:
		return ModeChat
	case ModeRoadmap:
		return ModeRoadmap
	case ModeResume:
		return ModeResume
	default:
		return ModeNone
	}
}
