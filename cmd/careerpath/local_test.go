package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/muhammadolammi/careerpath/internal/conversation"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	replies []string
	err     error
	intents []generation.Intent
}

func (m *scriptedModel) Generate(_ context.Context, p generation.Prompt) (string, error) {
	m.intents = append(m.intents, p.Intent)
	if m.err != nil {
		return "", m.err
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func TestChatLoopSwitchesMode(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"Hello there.",
		`{"roleTitle":"Data Engineer","phases":[{"title":"SQL","topics":["joins"]}]}`,
	}}
	conv := conversation.New(model)
	in := strings.NewReader("hi\n\n/mode roadmap\ndata engineering\n/quit\nignored\n")
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), conv, generation.ModeChat, in, &out))

	assert.Equal(t, []generation.Intent{generation.FreeChat, generation.RoadmapRequest}, model.intents)
	assert.Contains(t, out.String(), "Hello there.")
	assert.Contains(t, out.String(), "Roadmap: Data Engineer")
	assert.Contains(t, out.String(), "[roadmap] > ")
	assert.Len(t, conv.Snapshot().Turns, 4)
}

func TestChatLoopKeepsGoingAfterTransportFailure(t *testing.T) {
	model := &scriptedModel{err: errors.New("dial tcp: connection refused")}
	conv := conversation.New(model)
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), conv, generation.ModeNone, strings.NewReader("hello\n"), &out))

	assert.Contains(t, out.String(), conversation.ConnectionErrorText)
	assert.Contains(t, out.String(), "[auto] > ")
	assert.Equal(t, conversation.StateErrored, conv.State())
}
