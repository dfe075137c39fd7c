// Package memory holds the run-local conversation state: the ordered sequence
// of goal, model, and observation turns owned by exactly one run. It grows by
// appending only and is discarded when the run terminates; nothing is
// persisted across runs.
package memory

import "github.com/anthropics/anthropic-sdk-go"

// Conversation is an append-only ordered turn sequence. Not safe for
// concurrent use; each run owns exactly one.
type Conversation struct {
	msgs []anthropic.MessageParam
}

// NewConversation seeds a fresh conversation with the goal as the opening
// user turn.
func NewConversation(goal string) *Conversation {
	return &Conversation{
		msgs: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(goal)),
		},
	}
}

// AppendAssistant records the model's message for this iteration.
func (c *Conversation) AppendAssistant(m anthropic.MessageParam) {
	c.msgs = append(c.msgs, m)
}

// AppendObservation records tool results as a single user turn. The API
// requires every tool_use block to be answered, so all result blocks for one
// assistant message travel together.
func (c *Conversation) AppendObservation(blocks ...anthropic.ContentBlockParamUnion) {
	if len(blocks) == 0 {
		return
	}
	c.msgs = append(c.msgs, anthropic.NewUserMessage(blocks...))
}

// Messages returns the turns oldest-first for the next model call.
func (c *Conversation) Messages() []anthropic.MessageParam {
	return c.msgs
}

// Len returns the number of turns recorded so far.
func (c *Conversation) Len() int {
	return len(c.msgs)
}
