package domain

// ConversationCounter is the per-conversation turn counter record. Created
// on the first message turn with Turns 0 before the increment; mutated once
// per message turn, never decremented.
type ConversationCounter struct {
	ConversationID string
	Turns          int
	LastActivity   string
	TTL            int64
}
