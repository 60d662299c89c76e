package domain

import "strings"

// ActivityKind classifies an inbound activity for dispatch. The set is
// closed: anything that is not a message or a conversation update falls
// through to KindOther.
type ActivityKind int

const (
	KindOther ActivityKind = iota
	KindMessage
	KindConversationUpdate
)

// Wire values for Activity.Type.
const (
	TypeMessage            = "message"
	TypeConversationUpdate = "conversationUpdate"
)

// ChannelAccount identifies a conversation participant on the channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to.
type ConversationAccount struct {
	ID string `json:"id"`
}

// Activity is a single inbound event delivered by the channel connector.
// It is transient: one per turn, never retained.
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	Conversation ConversationAccount `json:"conversation"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Text         string              `json:"text,omitempty"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
}

// Kind maps the wire type onto the closed dispatch set.
func (a Activity) Kind() ActivityKind {
	switch strings.TrimSpace(a.Type) {
	case TypeMessage:
		return KindMessage
	case TypeConversationUpdate:
		return KindConversationUpdate
	default:
		return KindOther
	}
}
