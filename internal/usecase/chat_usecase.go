package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/raw"
	"socialmall/internal/domain/reconcile"
	"socialmall/internal/domain/repository"
	"socialmall/internal/infrastructure/ratelimit"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
	"socialmall/pkg/metrics"
)

const attachmentPreviewText = "[attachment]"

type ChatUseCase struct {
	background

	convRepo    repository.ConversationRepository
	entityRepo  repository.EntityRepository
	normalizer  *normalize.Normalizer
	sessions    *SessionStore
	notifier    Notifier
	rateLimiter *ratelimit.RateLimiter
	pageSize    int
	now         func() time.Time
}

func NewChatUseCase(
	convRepo repository.ConversationRepository,
	entityRepo repository.EntityRepository,
	normalizer *normalize.Normalizer,
	sessions *SessionStore,
	notifier Notifier,
	rateLimiter *ratelimit.RateLimiter,
	pageSize int,
) *ChatUseCase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ChatUseCase{
		convRepo:    convRepo,
		entityRepo:  entityRepo,
		normalizer:  normalizer,
		sessions:    sessions,
		notifier:    notifier,
		rateLimiter: rateLimiter,
		pageSize:    pageSize,
		now:         time.Now,
	}
}

type CreateConversationInput struct {
	ParticipantID   string
	ParticipantType string
	ProductID       string
	Topic           string
}

type AttachmentInput struct {
	URL  string
	Type string
	Name string
}

type SendMessageInput struct {
	Text        string
	Attachments []AttachmentInput
}

func (uc *ChatUseCase) allow(me entity.ID, action string) error {
	if uc.rateLimiter == nil {
		return nil
	}
	if ok, wait := uc.rateLimiter.Allow(me.String(), action); !ok {
		return errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded. Try again in %s", wait.Round(time.Second)))
	}
	return nil
}

// Open selects a conversation, resets its unread counter locally and loads
// its messages. The read receipt is sent in the background.
func (uc *ChatUseCase) Open(ctx context.Context, me entity.ID, rawID string) (*ChatView, error) {
	if !me.Resolved() {
		return nil, errors.Unresolved("session")
	}
	convID := normalize.ResolveID(raw.Str(rawID))
	if !convID.Resolved() {
		return nil, errors.Unresolved("conversation id")
	}
	sess := uc.sessions.Get(me)

	sess.mu.Lock()
	ticket := sess.conversation.Select(convID.String())
	sess.opened = convID
	known := false
	if i := sess.conversationIndex(convID); i >= 0 {
		sess.inbox[i].MarkOpened()
		known = true
	}
	sess.mu.Unlock()

	uc.run(func() {
		if err := uc.convRepo.MarkRead(context.WithoutCancel(ctx), convID, me); err != nil {
			logger.Warn("Failed to mark conversation %s read for %s: %v", convID, me, err)
		}
	})

	var fetched *entity.Conversation
	if !known {
		v, err := uc.convRepo.GetByID(ctx, convID)
		if err != nil {
			return nil, err
		}
		c := uc.normalizer.Conversation(v, me)
		if !c.ID.Resolved() {
			c.ID = convID
		}
		convs := []entity.Conversation{c}
		backfillProducts(ctx, uc.entityRepo, uc.normalizer, convs)
		fetched = &convs[0]
	}

	payload, err := uc.convRepo.Messages(ctx, convID, uc.pageSize)
	if err != nil {
		return nil, err
	}
	msgs := uc.normalizer.Messages(payload, me)
	for _, m := range msgs {
		if !m.ID.Resolved() {
			metrics.UnresolvedRecords.WithLabelValues("messages").Inc()
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.conversation.Current(ticket) {
		metrics.StaleResponses.WithLabelValues("messages").Inc()
		return nil, errors.Stale("conversation")
	}

	// Sends still in flight for this conversation stay at the end.
	for _, m := range sess.messages {
		if m.Pending && m.ConversationID.Equal(convID) {
			msgs = append(msgs, m)
		}
	}
	sess.messages = msgs

	if fetched != nil {
		fetched.MarkOpened()
		sess.inbox = normalize.MergeInbox(sess.inbox, []entity.Conversation{*fetched})
	}

	return uc.render(sess, convID), nil
}

// Messages renders the open conversation without reloading it.
func (uc *ChatUseCase) Messages(me entity.ID, rawID string) (*ChatView, error) {
	if !me.Resolved() {
		return nil, errors.Unresolved("session")
	}
	convID := normalize.ResolveID(raw.Str(rawID))
	if !convID.Resolved() {
		return nil, errors.Unresolved("conversation id")
	}
	sess := uc.sessions.Get(me)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.opened.Equal(convID) {
		return nil, errors.BadRequest("Conversation is not open", nil)
	}
	return uc.render(sess, convID), nil
}

func (uc *ChatUseCase) render(sess *Session, convID entity.ID) *ChatView {
	view := &ChatView{
		Conversation: entity.Conversation{ID: convID, Topic: entity.TopicGeneral},
		Messages:     renderMessages(sess.messages, sess.friends),
	}
	if i := sess.conversationIndex(convID); i >= 0 {
		view.Conversation = sess.inbox[i]
	}
	return view
}

// Send appends a pending message right away and delivers it in the
// background. The pending message is replaced in place by the stored one,
// or removed when delivery fails.
func (uc *ChatUseCase) Send(ctx context.Context, me entity.ID, rawID string, in SendMessageInput) (*SendResult, error) {
	if !me.Resolved() {
		return nil, errors.Unresolved("session")
	}
	convID := normalize.ResolveID(raw.Str(rawID))
	if !convID.Resolved() {
		return nil, errors.Unresolved("conversation id")
	}

	text := strings.TrimSpace(in.Text)
	attachments := make([]entity.Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		v := raw.From(map[string]any{"url": a.URL, "type": a.Type, "name": a.Name})
		if att, ok := uc.normalizer.Attachment(v, ""); ok {
			attachments = append(attachments, att)
		}
	}
	if text == "" && len(attachments) == 0 {
		return nil, errors.BadRequest("Message must have text or an attachment", nil)
	}
	if err := uc.allow(me, ratelimit.ActionSendMessage); err != nil {
		return nil, err
	}

	sess := uc.sessions.Get(me)
	preview := text
	if preview == "" {
		preview = attachmentPreviewText
	}

	var (
		temp      entity.Message
		committed entity.Message
		previous  string
	)
	sess.mu.Lock()
	edit := sess.rec.Begin(reconcile.Mutation{
		Kind:   entity.EditMessage,
		Target: convID.String(),
		Apply: func(localID string) {
			temp = entity.Message{
				LocalID:        localID,
				ConversationID: convID,
				Sender:         entity.EntityRef{ID: me, Kind: entity.KindUser, DisplayName: "You"},
				IsMine:         true,
				Text:           text,
				Attachments:    attachments,
				CreatedAt:      uc.now().UTC(),
				Pending:        true,
			}
			committed = temp
			if sess.opened.Equal(convID) {
				sess.messages = append(sess.messages, temp)
			}
			if i := sess.conversationIndex(convID); i >= 0 {
				previous = sess.inbox[i].LastMessageText
				sess.inbox[i].LastMessageText = preview
			}
		},
		Commit: func(localID string, canonical raw.Value) {
			i := messageIndex(sess.messages, localID)
			msg := uc.normalizer.Message(canonical, me)
			if !msg.ID.Resolved() {
				// Nothing usable came back; keep the local record.
				msg = committed
				msg.Pending = false
			}
			if !msg.ConversationID.Resolved() {
				msg.ConversationID = convID
			}
			msg.LocalID = ""
			msg.Pending = false
			committed = msg
			if i >= 0 {
				sess.messages[i] = msg
			} else if sess.opened.Equal(convID) && !hasMessage(sess.messages, msg.ID) {
				sess.messages = append(sess.messages, msg)
			}
		},
		Revert: func(localID string) {
			if i := messageIndex(sess.messages, localID); i >= 0 {
				sess.messages = append(sess.messages[:i], sess.messages[i+1:]...)
			}
			if i := sess.conversationIndex(convID); i >= 0 && sess.inbox[i].LastMessageText == preview {
				sess.inbox[i].LastMessageText = previous
			}
		},
	})
	result := &SendResult{Edit: edit, Message: temp}
	sess.mu.Unlock()

	uc.run(func() {
		canonical, err := uc.convRepo.SendMessage(context.WithoutCancel(ctx), repository.SendMessageInput{
			ConversationID: convID,
			Sender:         me,
			LocalID:        edit.LocalID,
			Text:           text,
			Attachments:    attachments,
		})
		settle(sess, uc.notifier, edit.LocalID, canonical, err, func() interface{} {
			if err != nil {
				return nil
			}
			return committed
		})
	})

	return result, nil
}

// CreateConversation opens the conversation between me and a participant,
// creating it when none exists. A product reference makes it an ask-buyer
// conversation unless a topic is given.
func (uc *ChatUseCase) CreateConversation(ctx context.Context, me entity.ID, in CreateConversationInput) (*entity.Conversation, error) {
	if !me.Resolved() {
		return nil, errors.Unresolved("session")
	}
	otherID := normalize.ResolveID(raw.Str(in.ParticipantID))
	if !otherID.Resolved() {
		return nil, errors.Unresolved("participant id")
	}

	kind := entity.ParseKind(in.ParticipantType)
	if kind == entity.KindUser && otherID.Equal(me) {
		return nil, errors.BadRequest("Cannot start a conversation with yourself", nil)
	}
	v, err := uc.entityRepo.Lookup(ctx, kind, otherID)
	if err != nil {
		return nil, err
	}
	other := uc.normalizer.EntityRef(v, kind)
	if !other.ID.Resolved() {
		other.ID = otherID
	}
	if other.Kind == entity.KindUnknown {
		return nil, errors.BadRequest("Participant must be a user or a shop", nil)
	}
	if other.Kind == entity.KindUser && other.ID.Equal(me) {
		return nil, errors.BadRequest("Cannot start a conversation with yourself", nil)
	}

	topic := entity.TopicGeneral
	var productID entity.ID
	if strings.TrimSpace(in.ProductID) != "" {
		productID = normalize.ResolveID(raw.Str(in.ProductID))
		if !productID.Resolved() {
			return nil, errors.Unresolved("product id")
		}
		topic = entity.TopicAskBuyer
	}
	if strings.TrimSpace(in.Topic) != "" {
		topic = entity.ParseTopic(in.Topic)
	}

	if err := uc.allow(me, ratelimit.ActionCreateChat); err != nil {
		return nil, err
	}

	record, err := uc.convRepo.Create(ctx, repository.CreateConversationInput{
		Me:        me,
		Other:     other,
		Topic:     topic,
		ProductID: productID,
	})
	if err != nil {
		return nil, err
	}

	c := uc.normalizer.Conversation(record, me)
	if !c.ID.Resolved() {
		metrics.UnresolvedRecords.WithLabelValues("conversation").Inc()
		return nil, errors.Unresolved("conversation")
	}
	if !c.OtherParty.ID.Resolved() {
		c.OtherParty = other
	}
	convs := []entity.Conversation{c}
	backfillProducts(ctx, uc.entityRepo, uc.normalizer, convs)
	c = convs[0]

	sess := uc.sessions.Get(me)
	sess.mu.Lock()
	sess.inbox = normalize.MergeInbox(convs, sess.inbox)
	sess.mu.Unlock()

	logger.Info("Conversation %s ready between %s and %s %s", c.ID, me, other.Kind, other.ID)
	return &c, nil
}

func messageIndex(msgs []entity.Message, localID string) int {
	for i := range msgs {
		if msgs[i].LocalID == localID {
			return i
		}
	}
	return -1
}

func hasMessage(msgs []entity.Message, id entity.ID) bool {
	for i := range msgs {
		if msgs[i].ID.Equal(id) {
			return true
		}
	}
	return false
}
