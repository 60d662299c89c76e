package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"welcome-bot/internal/domain"
)

const (
	suggestedActionsText = "I can help you with these?"
	invalidOptionText    = "Not a valid option"
	infoPromptText       = "I am the venue assistant. Ask me about ticket FAQs, the bands playing, or how to get around."
)

// validOptions are the normalized inputs that route to the "valid option"
// branch. Matching is trim + lowercase only; punctuation is preserved.
var validOptions = map[string]struct{}{
	"faq":         {},
	"band search": {},
	"navigate":    {},
}

// quickReplyTitles is the fixed quick-reply set, in display order. Each
// action carries its title as the reply value when tapped.
var quickReplyTitles = []string{"FAQ", "Band Search", "Navigate"}

// CounterStore is the keyed external state accessor for per-conversation
// turn counters. A message turn calls Get, mutates, Set, Commit, in that
// order, exactly once. Absent conversations read as 0.
type CounterStore interface {
	Get(ctx context.Context, conversationID string) (int, error)
	Set(ctx context.Context, conversationID string, turns int) error
	Commit(ctx context.Context) error
}

// Sender delivers one outbound message. Call order within a turn is
// significant and must be preserved by implementations.
type Sender interface {
	Send(ctx context.Context, msg domain.OutboundMessage) error
}

// CardProvider supplies the welcome adaptive-card attachment. Failures are
// configuration errors: there is no fallback card.
type CardProvider interface {
	WelcomeCard() (domain.Attachment, error)
}

// Dispatcher decides the reply for one inbound activity. One invocation
// handles one activity to completion; there is no internal parallelism.
type Dispatcher struct {
	state CounterStore
	cards CardProvider
}

// NewDispatcher validates collaborators up front so a misconfigured host
// fails at startup rather than on the first turn.
func NewDispatcher(state CounterStore, cards CardProvider) (*Dispatcher, error) {
	if state == nil {
		return nil, errors.New("usecase: counter store must not be nil")
	}
	if cards == nil {
		return nil, errors.New("usecase: card provider must not be nil")
	}
	return &Dispatcher{state: state, cards: cards}, nil
}

// HandleTurn routes one activity by kind. The sender is per-turn because the
// host derives it from the inbound activity's service URL.
func (d *Dispatcher) HandleTurn(ctx context.Context, activity domain.Activity, sender Sender) error {
	if sender == nil {
		return newError(ErrorInvalidInput, "nil_sender", nil)
	}

	switch activity.Kind() {
	case domain.KindMessage:
		return d.handleMessage(ctx, activity, sender)
	case domain.KindConversationUpdate:
		return d.handleConversationUpdate(ctx, activity, sender)
	default:
		return d.handleUnrecognized(ctx, activity, sender)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, activity domain.Activity, sender Sender) error {
	convID := activity.Conversation.ID
	if convID == "" {
		return newError(ErrorInvalidInput, "missing_conversation_id", nil)
	}

	turns, err := d.state.Get(ctx, convID)
	if err != nil {
		return newError(ErrorState, "counter_load_error", err)
	}
	turns++
	if err := d.state.Set(ctx, convID, turns); err != nil {
		return newError(ErrorState, "counter_set_error", err)
	}
	if err := d.state.Commit(ctx); err != nil {
		return newError(ErrorState, "counter_commit_error", err)
	}

	var reply string
	if _, ok := validOptions[normalize(activity.Text)]; ok {
		reply = fmt.Sprintf("Turn %d: You sent '%s'", turns, activity.Text)
	} else {
		reply = invalidOptionText
	}

	if err := sender.Send(ctx, domain.NewReply(activity, reply)); err != nil {
		return newError(ErrorSend, "reply_send_error", err)
	}
	if err := sender.Send(ctx, suggestedActionsPrompt(activity)); err != nil {
		return newError(ErrorSend, "suggested_actions_send_error", err)
	}
	return nil
}

func (d *Dispatcher) handleConversationUpdate(ctx context.Context, activity domain.Activity, sender Sender) error {
	// No members added (e.g. a removal update) is a no-op, not an error.
	if len(activity.MembersAdded) == 0 {
		return nil
	}

	card, err := d.cards.WelcomeCard()
	if err != nil {
		return newError(ErrorConfig, "welcome_card_error", err)
	}

	for _, member := range activity.MembersAdded {
		// The bot joining its own conversation must not greet itself.
		if member.ID == activity.Recipient.ID {
			continue
		}

		welcome := domain.NewReply(activity, fmt.Sprintf("Hi %s, welcome to the venue chat!", member.Name))
		welcome.Recipient = member
		if err := sender.Send(ctx, welcome); err != nil {
			return newError(ErrorSend, "welcome_send_error", err)
		}
		if err := sender.Send(ctx, domain.NewReply(activity, infoPromptText)); err != nil {
			return newError(ErrorSend, "info_send_error", err)
		}
		cardMsg := domain.NewReply(activity, "")
		cardMsg.Attachments = []domain.Attachment{card}
		if err := sender.Send(ctx, cardMsg); err != nil {
			return newError(ErrorSend, "card_send_error", err)
		}
		if err := sender.Send(ctx, suggestedActionsPrompt(activity)); err != nil {
			return newError(ErrorSend, "suggested_actions_send_error", err)
		}
	}
	return nil
}

func (d *Dispatcher) handleUnrecognized(ctx context.Context, activity domain.Activity, sender Sender) error {
	msg := domain.NewReply(activity, fmt.Sprintf("Received an unhandled activity type: '%s'", activity.Type))
	if err := sender.Send(ctx, msg); err != nil {
		return newError(ErrorSend, "diagnostic_send_error", err)
	}
	return nil
}

func suggestedActionsPrompt(activity domain.Activity) domain.OutboundMessage {
	actions := make([]domain.CardAction, 0, len(quickReplyTitles))
	for _, title := range quickReplyTitles {
		actions = append(actions, domain.CardAction{
			Type:  domain.ActionTypeIMBack,
			Title: title,
			Value: title,
		})
	}

	msg := domain.NewReply(activity, suggestedActionsText)
	msg.SuggestedActions = &domain.SuggestedActions{Actions: actions}
	return msg
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
