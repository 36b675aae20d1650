package chat

import "context"

// systemPrompt frames the assistant; the data context is appended per turn.
const systemPrompt = "You are a weather assistant. Answer using only the weather data " +
	"provided below. If the data cannot answer the question, say so instead of guessing."

// historyLimit bounds how many prior turns are replayed to the model.
const historyLimit = 6

// Responder builds the per-turn prompt and calls the completion endpoint.
type Responder struct {
	client    Client
	maxTokens int
}

func NewResponder(client Client, maxTokens int) *Responder {
	return &Responder{client: client, maxTokens: maxTokens}
}

// BuildMessages assembles the single prompt for one turn: system
// instructions plus data context, the recent transcript, and the question.
func BuildMessages(promptContext string, transcript []Turn, question string) []Message {
	msgs := make([]Message, 0, historyLimit+2)
	msgs = append(msgs, Message{
		Role:    "system",
		Content: systemPrompt + "\n\n" + promptContext,
	})

	recent := transcript
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}
	for _, t := range recent {
		msgs = append(msgs, Message{Role: t.Role, Content: t.Text})
	}

	msgs = append(msgs, Message{Role: RoleUser, Content: question})
	return msgs
}

// Respond asks the model one question. On upstream failure the error is
// returned and no turn is produced, leaving the transcript untouched.
func (r *Responder) Respond(ctx context.Context, promptContext string, transcript []Turn, question string) (Turn, error) {
	answer, err := r.client.Complete(ctx, BuildMessages(promptContext, transcript, question), r.maxTokens)
	if err != nil {
		return Turn{}, err
	}
	return Turn{Role: RoleAssistant, Text: answer}, nil
}
