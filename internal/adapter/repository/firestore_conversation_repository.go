package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
	"socialmall/internal/domain/repository"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection)
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, me entity.ID, limit int) (raw.Value, error) {
	query := r.conversations().
		Where("participantIds", "array-contains", me.String()).
		OrderBy("updatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for %s: %v", me, err)
		return raw.Value{}, mapError("Conversations", "fetch conversations", err)
	}
	return wrapList("conversations", docValues(docs)), nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id entity.ID) (raw.Value, error) {
	doc, err := r.conversations().Doc(id.String()).Get(ctx)
	if err != nil {
		return raw.Value{}, mapError("Conversation", "get conversation", err)
	}
	return docValue(doc), nil
}

func (r *firestoreConversationRepository) Messages(ctx context.Context, conversationID entity.ID, limit int) (raw.Value, error) {
	query := r.conversations().Doc(conversationID.String()).
		Collection(messagesCollection).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for conversation %s: %v", conversationID, err)
		return raw.Value{}, mapError("Messages", "fetch messages", err)
	}

	// newest page first from the query, oldest first for display
	values := docValues(docs)
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	return wrapList("messages", values), nil
}

func (r *firestoreConversationRepository) Create(ctx context.Context, in repository.CreateConversationInput) (raw.Value, error) {
	me, other := in.Me.String(), in.Other.ID.String()

	existing, err := r.findExisting(ctx, me, other, in.ProductID.String())
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return raw.Value{}, err
	}

	id := newObjectID()
	now := time.Now()
	data := map[string]interface{}{
		"participantIds": []string{me, other},
		"participants": []map[string]interface{}{
			{"type": string(entity.KindUser), "entityId": me},
			{"type": string(in.Other.Kind), "entityId": other},
		},
		"topic":       string(in.Topic),
		"productId":   in.ProductID.String(),
		"unreadCount": map[string]interface{}{me: 0, other: 0},
		"lastText":    "",
		"createdAt":   now,
		"updatedAt":   now,
	}

	if _, err := r.conversations().Doc(id).Set(ctx, data); err != nil {
		return raw.Value{}, errors.Internal("Failed to create conversation", err)
	}

	data["_id"] = id
	return raw.From(data), nil
}

// findExisting looks for a conversation between the same two participants
// about the same product.
func (r *firestoreConversationRepository) findExisting(ctx context.Context, me, other, productID string) (raw.Value, error) {
	query := r.conversations().
		Where("participantIds", "array-contains", me).
		Where("productId", "==", productID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return raw.Value{}, errors.Internal("Failed to query conversations", err)
	}

	for _, doc := range docs {
		ids, err := doc.DataAt("participantIds")
		if err != nil {
			continue // Skip malformed documents
		}
		list, ok := ids.([]interface{})
		if ok && len(list) == 2 && containsString(list, other) {
			return docValue(doc), nil
		}
	}
	return raw.Value{}, errors.NotFound("Conversation", nil)
}

func (r *firestoreConversationRepository) SendMessage(ctx context.Context, in repository.SendMessageInput) (raw.Value, error) {
	convRef := r.conversations().Doc(in.ConversationID.String())
	sender := in.Sender.String()
	msgID := newObjectID()
	now := time.Now()

	attachments := make([]interface{}, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		attachments = append(attachments, map[string]interface{}{
			"url":  a.URL,
			"type": string(a.Kind),
			"name": a.DisplayName,
		})
	}
	record := map[string]interface{}{
		"conversationId": in.ConversationID.String(),
		"senderType":     string(entity.KindUser),
		"senderEntityId": sender,
		"text":           in.Text,
		"attachments":    attachments,
		"localId":        in.LocalID,
		"createdAt":      now,
	}

	preview := in.Text
	if preview == "" && len(attachments) > 0 {
		preview = "[attachment]"
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(convRef)
		if err != nil {
			return err
		}
		ids, _ := snap.DataAt("participantIds")
		participants, _ := ids.([]interface{})
		if !containsString(participants, sender) {
			return errors.Forbidden("Not a participant of this conversation", nil)
		}

		updates := []firestore.Update{
			{Path: "lastText", Value: preview},
			{Path: "updatedAt", Value: now},
		}
		for _, p := range participants {
			if id, ok := p.(string); ok && id != sender {
				updates = append(updates, firestore.Update{
					FieldPath: firestore.FieldPath{"unreadCount", id},
					Value:     firestore.Increment(1),
				})
			}
		}

		if err := tx.Create(convRef.Collection(messagesCollection).Doc(msgID), record); err != nil {
			return err
		}
		return tx.Update(convRef, updates)
	})
	if err != nil {
		return raw.Value{}, mapError("Conversation", "send message", err)
	}

	record["_id"] = msgID
	return raw.From(record), nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID, me entity.ID) error {
	_, err := r.conversations().Doc(conversationID.String()).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", me.String()}, Value: 0},
	})
	if err != nil {
		return mapError("Conversation", "mark conversation read", err)
	}
	return nil
}
