package domain

import "github.com/google/uuid"

// CardAction is a single quick-reply action offered to the user.
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// ActionTypeIMBack makes the channel echo the action value back as a
// message when the user taps it.
const ActionTypeIMBack = "imBack"

// SuggestedActions is the set of quick-reply actions attached to a message.
type SuggestedActions struct {
	Actions []CardAction `json:"actions"`
}

// Attachment carries an opaque structured payload, e.g. an adaptive card.
// Content is never inspected here, only forwarded.
type Attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content"`
}

// OutboundMessage is a reply produced during a turn and immediately sent.
type OutboundMessage struct {
	Type             string              `json:"type"`
	ID               string              `json:"id,omitempty"`
	ServiceURL       string              `json:"serviceUrl,omitempty"`
	ChannelID        string              `json:"channelId,omitempty"`
	Conversation     ConversationAccount `json:"conversation"`
	From             ChannelAccount      `json:"from"`
	Recipient        ChannelAccount      `json:"recipient"`
	Text             string              `json:"text,omitempty"`
	Attachments      []Attachment        `json:"attachments,omitempty"`
	SuggestedActions *SuggestedActions   `json:"suggestedActions,omitempty"`
	ReplyToID        string              `json:"replyToId,omitempty"`
}

// NewReply builds a message reply addressed back at the sender of the
// inbound activity: from/recipient are swapped, conversation and service
// URL are carried over, and a fresh id is assigned.
func NewReply(inbound Activity, text string) OutboundMessage {
	return OutboundMessage{
		Type:         TypeMessage,
		ID:           uuid.NewString(),
		ServiceURL:   inbound.ServiceURL,
		ChannelID:    inbound.ChannelID,
		Conversation: inbound.Conversation,
		From:         inbound.Recipient,
		Recipient:    inbound.From,
		Text:         text,
		ReplyToID:    inbound.ID,
	}
}
