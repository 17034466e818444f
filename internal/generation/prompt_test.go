package generation

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineIntent(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		utterance string
		want      Intent
	}{
		{"roadmap tab", ModeRoadmap, "hello there", RoadmapRequest},
		{"roadmap keyword", ModeNone, "Give me a ROADMAP for Go", RoadmapRequest},
		{"learn keyword", ModeNone, "I want to learn Kubernetes", RoadmapRequest},
		{"keyword in chat tab", ModeChat, "show me a roadmap", RoadmapRequest},
		{"plain chat", ModeChat, "Explain React hooks", FreeChat},
		{"no mode", ModeNone, "How are you?", FreeChat},
		{"resume tab", ModeResume, "anything", ResumeCritiqueRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineIntent(tt.mode, tt.utterance))
		})
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeRoadmap, ParseMode(" Roadmap "))
	assert.Equal(t, ModeResume, ParseMode("resume"))
	assert.Equal(t, ModeChat, ParseMode("chat"))
	assert.Equal(t, ModeNone, ParseMode("store"))
}

func TestBuildPromptFreeChatKeepsUtteranceAndCopiesHistory(t *testing.T) {
	prior := []Turn{
		{Speaker: SpeakerUser, Text: "hi", CreatedAt: time.Unix(1, 0)},
		{Speaker: SpeakerAssistant, Text: "hello", CreatedAt: time.Unix(2, 0)},
	}

	p, err := BuildPrompt(FreeChat, "  what next?  ", prior)
	require.NoError(t, err)

	assert.Equal(t, "  what next?  ", p.Text)
	assert.Equal(t, prior, p.History)

	p.History[0].Text = "changed"
	assert.Equal(t, "hi", prior[0].Text)
}

func TestBuildPromptRoadmapContract(t *testing.T) {
	p, err := BuildPrompt(RoadmapRequest, "I want to become a DevOps Engineer with Terraform", []Turn{{Speaker: SpeakerUser, Text: "x"}})
	require.NoError(t, err)

	assert.Equal(t, RoadmapRequest, p.Intent)
	assert.Nil(t, p.History)
	assert.Contains(t, p.Text, "I want to become a DevOps Engineer with Terraform")
	assert.Contains(t, p.Text, "5 to 7")
	for _, field := range []string{`"roleTitle"`, `"phases"`, `"estimatedDuration"`, `"topics"`, `"milestoneProject"`} {
		assert.Contains(t, p.Text, field)
	}
	assert.Contains(t, p.Text, "code fences")
}

func TestBuildPromptCritiqueTruncates(t *testing.T) {
	resume := strings.Repeat("é", MaxResumeChars+500)

	p, err := BuildPrompt(ResumeCritiqueRequest, resume, nil)
	require.NoError(t, err)

	assert.Contains(t, p.Text, `"score"`)
	assert.Contains(t, p.Text, `"strengths"`)
	assert.Contains(t, p.Text, `"weaknesses"`)
	assert.NotContains(t, p.Text, strings.Repeat("é", MaxResumeChars+1))
	assert.Contains(t, p.Text, strings.Repeat("é", MaxResumeChars))
}

func TestTruncateResume(t *testing.T) {
	assert.Equal(t, "short", TruncateResume("  short \n"))
	long := strings.Repeat("ab", MaxResumeChars)
	got := TruncateResume(long)
	assert.Equal(t, MaxResumeChars, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(long, got))
}

func TestBuildPromptRejectsEmpty(t *testing.T) {
	for _, intent := range []Intent{FreeChat, RoadmapRequest, ResumeCritiqueRequest} {
		_, err := BuildPrompt(intent, " \n\t", nil)
		assert.ErrorIs(t, err, ErrEmptyInput, intent.String())
	}
}
