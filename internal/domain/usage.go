package domain

// TokenUsage counts the provider tokens one operation spent.
// Embedding is zero when the vector came from the embedding cache.
type TokenUsage struct {
	Embedding  int
	Prompt     int
	Completion int
}

// Generation returns the prompt plus completion tokens of the chat model.
func (u TokenUsage) Generation() int { return u.Prompt + u.Completion }
