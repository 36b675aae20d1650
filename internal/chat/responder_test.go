package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records the messages it was given and returns a canned reply.
type fakeClient struct {
	gotMessages []Message
	reply       string
	err         error
}

func (f *fakeClient) Complete(_ context.Context, messages []Message, _ int) (string, error) {
	f.gotMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestBuildMessagesOrder(t *testing.T) {
	transcript := []Turn{
		{Role: RoleUser, Text: "first question"},
		{Role: RoleAssistant, Text: "first answer"},
	}

	msgs := BuildMessages("DATA CONTEXT", transcript, "second question")

	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "DATA CONTEXT")
	assert.Equal(t, "first question", msgs[1].Content)
	assert.Equal(t, "first answer", msgs[2].Content)
	assert.Equal(t, RoleUser, msgs[3].Role)
	assert.Equal(t, "second question", msgs[3].Content)
}

func TestBuildMessagesTruncatesHistory(t *testing.T) {
	var transcript []Turn
	for i := 0; i < 20; i++ {
		transcript = append(transcript, Turn{Role: RoleUser, Text: fmt.Sprintf("q%d", i)})
	}

	msgs := BuildMessages("ctx", transcript, "latest")

	// system + historyLimit turns + question
	require.Len(t, msgs, historyLimit+2)
	assert.Equal(t, "q14", msgs[1].Content, "oldest turns are dropped first")
	assert.Equal(t, "latest", msgs[len(msgs)-1].Content)
}

func TestRespondSuccess(t *testing.T) {
	fc := &fakeClient{reply: "about 14.5 degrees"}
	r := NewResponder(fc, 128)

	turn, err := r.Respond(context.Background(), "ctx", nil, "average temperature?")
	require.NoError(t, err)

	assert.Equal(t, RoleAssistant, turn.Role)
	assert.Equal(t, "about 14.5 degrees", turn.Text)
	assert.Equal(t, "average temperature?", fc.gotMessages[len(fc.gotMessages)-1].Content)
}

func TestRespondUpstreamFailure(t *testing.T) {
	fc := &fakeClient{err: fmt.Errorf("%w: timeout", ErrUpstream)}
	r := NewResponder(fc, 128)

	turn, err := r.Respond(context.Background(), "ctx", nil, "q")

	assert.ErrorIs(t, err, ErrUpstream)
	assert.Zero(t, turn)
}
