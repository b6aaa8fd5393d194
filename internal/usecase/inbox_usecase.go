package usecase

import (
	"context"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/repository"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
	"socialmall/pkg/metrics"
)

type InboxUseCase struct {
	convRepo   repository.ConversationRepository
	entityRepo repository.EntityRepository
	normalizer *normalize.Normalizer
	sessions   *SessionStore
	pageSize   int
}

func NewInboxUseCase(
	convRepo repository.ConversationRepository,
	entityRepo repository.EntityRepository,
	normalizer *normalize.Normalizer,
	sessions *SessionStore,
	pageSize int,
) *InboxUseCase {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &InboxUseCase{
		convRepo:   convRepo,
		entityRepo: entityRepo,
		normalizer: normalizer,
		sessions:   sessions,
		pageSize:   pageSize,
	}
}

// Load fetches the inbox of me and renders it through filter. A load that
// is overtaken by a newer one is discarded.
func (uc *InboxUseCase) Load(ctx context.Context, me entity.ID, filter normalize.InboxFilter) (*InboxView, error) {
	if !me.Resolved() {
		return nil, errors.Unresolved("session")
	}
	sess := uc.sessions.Get(me)

	sess.mu.Lock()
	ticket := sess.inboxLoad.Select("inbox")
	sess.mu.Unlock()

	payload, err := uc.convRepo.ListByParticipant(ctx, me, uc.pageSize)
	if err != nil {
		return nil, err
	}

	convs, stats := uc.normalizer.Inbox(payload, me)
	if stats.Dropped > 0 {
		metrics.UnresolvedRecords.WithLabelValues("inbox").Add(float64(stats.Dropped))
		logger.Warn("Inbox of %s: dropped %d conversations without a usable id", me, stats.Dropped)
	}
	if stats.Duplicates > 0 {
		metrics.InboxDuplicates.Add(float64(stats.Duplicates))
	}

	backfillProducts(ctx, uc.entityRepo, uc.normalizer, convs)

	friends, err := uc.entityRepo.Friends(ctx, me)
	if err != nil {
		logger.Warn("Failed to load friends of %s: %v", me, err)
		friends = nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.inboxLoad.Current(ticket) {
		metrics.StaleResponses.WithLabelValues("inbox").Inc()
		return nil, errors.Stale("inbox")
	}

	// The open conversation has been read locally even if the backend has
	// not recorded it yet.
	for i := range convs {
		if convs[i].ID.Equal(sess.opened) {
			convs[i].MarkOpened()
		}
	}
	sess.inbox = convs
	if friends != nil {
		sess.friends = friends
	}
	return renderInbox(sess, filter), nil
}

// View renders the inbox already held by the session.
func (uc *InboxUseCase) View(me entity.ID, filter normalize.InboxFilter) (*InboxView, error) {
	if !me.Resolved() {
		return nil, errors.Unresolved("session")
	}
	sess := uc.sessions.Get(me)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return renderInbox(sess, filter), nil
}

// backfillProducts fills in previews for conversations that only carry a
// product id. Failed lookups leave the preview empty.
func backfillProducts(ctx context.Context, repo repository.EntityRepository, n *normalize.Normalizer, convs []entity.Conversation) {
	cache := make(map[string]*entity.ProductPreview)
	for i := range convs {
		c := &convs[i]
		if c.ProductPreview != nil || !c.ProductID.Resolved() {
			continue
		}
		key := c.ProductID.String()
		preview, seen := cache[key]
		if !seen {
			v, err := repo.Product(ctx, c.ProductID)
			if err != nil {
				logger.Debug("Product preview %s unavailable: %v", key, err)
			} else {
				p := n.ProductPreview(v)
				if !p.ProductID.Resolved() {
					p.ProductID = c.ProductID
				}
				preview = &p
			}
			cache[key] = preview
		}
		if preview != nil {
			p := *preview
			c.ProductPreview = &p
		}
	}
}
