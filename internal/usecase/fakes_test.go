package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/raw"
	"socialmall/internal/domain/repository"
	"socialmall/pkg/errors"
)

const (
	meHex    = "65a1b2c3d4e5f6a7b8c9d0e1"
	userHex  = "65a1b2c3d4e5f6a7b8c9d0e2"
	shopHex  = "65a1b2c3d4e5f6a7b8c9d0e3"
	convA    = "66000000000000000000000a"
	convB    = "66000000000000000000000b"
	postHex  = "67000000000000000000000f"
	prodHex  = "68000000000000000000000c"
	c1Hex    = "69000000000000000000c001"
	c2Hex    = "69000000000000000000c002"
	c3Hex    = "69000000000000000000c003"
	storeHex = "6a00000000000000000000ff"
)

var me = entity.MustID(meHex)

func obj(m map[string]any) raw.Value { return raw.From(m) }

func testNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.Options{AssetBaseURL: "https://cdn.example.com"})
}

type reply struct {
	v   raw.Value
	err error
}

// gate makes a fake call block until the test answers it.
type gate struct {
	entered chan struct{}
	replies chan reply
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), replies: make(chan reply, 16)}
}

func (g *gate) wait() (raw.Value, error) {
	g.entered <- struct{}{}
	r := <-g.replies
	return r.v, r.err
}

func (g *gate) awaitCall(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("backend call not made")
	}
}

type fakeConversationRepo struct {
	mu       sync.Mutex
	list     raw.Value
	byID     map[string]raw.Value
	messages map[string]raw.Value
	gates    map[string]*gate // Messages of a conversation wait on its gate
	send     *gate
	created  raw.Value
	creates  []repository.CreateConversationInput
	reads    []string
	sent     []repository.SendMessageInput
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:     map[string]raw.Value{},
		messages: map[string]raw.Value{},
		gates:    map[string]*gate{},
	}
}

func (f *fakeConversationRepo) ListByParticipant(ctx context.Context, me entity.ID, limit int) (raw.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list, nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, id entity.ID) (raw.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id.String()]
	if !ok {
		return raw.Value{}, errors.NotFound("Conversation", nil)
	}
	return v, nil
}

func (f *fakeConversationRepo) Messages(ctx context.Context, id entity.ID, limit int) (raw.Value, error) {
	f.mu.Lock()
	g := f.gates[id.String()]
	v := f.messages[id.String()]
	f.mu.Unlock()
	if g != nil {
		return g.wait()
	}
	return v, nil
}

func (f *fakeConversationRepo) Create(ctx context.Context, in repository.CreateConversationInput) (raw.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, in)
	return f.created, nil
}

func (f *fakeConversationRepo) SendMessage(ctx context.Context, in repository.SendMessageInput) (raw.Value, error) {
	f.mu.Lock()
	f.sent = append(f.sent, in)
	g := f.send
	f.mu.Unlock()
	if g != nil {
		return g.wait()
	}
	return raw.Value{}, nil
}

func (f *fakeConversationRepo) MarkRead(ctx context.Context, id, me entity.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, id.String())
	return nil
}

type fakeEntityRepo struct {
	entities map[string]raw.Value
	products map[string]raw.Value
	friends  entity.IDSet
	lookups  int
}

func (f *fakeEntityRepo) Lookup(ctx context.Context, kind entity.Kind, id entity.ID) (raw.Value, error) {
	f.lookups++
	v, ok := f.entities[id.String()]
	if !ok {
		return raw.Value{}, errors.NotFound("Participant", nil)
	}
	return v, nil
}

func (f *fakeEntityRepo) Product(ctx context.Context, id entity.ID) (raw.Value, error) {
	v, ok := f.products[id.String()]
	if !ok {
		return raw.Value{}, errors.NotFound("Product", nil)
	}
	return v, nil
}

func (f *fakeEntityRepo) Friends(ctx context.Context, me entity.ID) (entity.IDSet, error) {
	if f.friends == nil {
		return entity.NewIDSet(), nil
	}
	return f.friends.Clone(), nil
}

type fakePostRepo struct {
	mu          sync.Mutex
	post        raw.Value
	comments    raw.Value
	feed        raw.Value
	addGate     *gate
	deleteGate  *gate
	likeGate    *gate
	commentLike *gate
	fetches     int
}

func (f *fakePostRepo) GetByID(ctx context.Context, id entity.ID) (raw.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.post, nil
}

func (f *fakePostRepo) Comments(ctx context.Context, postID entity.ID) (raw.Value, error) {
	return f.comments, nil
}

func (f *fakePostRepo) ShopFeed(ctx context.Context, shopID entity.ID, limit int) (raw.Value, error) {
	return f.feed, nil
}

func (f *fakePostRepo) AddComment(ctx context.Context, in repository.AddCommentInput) (raw.Value, error) {
	return f.addGate.wait()
}

func (f *fakePostRepo) DeleteComment(ctx context.Context, postID entity.ID, commentID string, me entity.ID) error {
	_, err := f.deleteGate.wait()
	return err
}

func (f *fakePostRepo) ToggleLike(ctx context.Context, postID, me entity.ID) (raw.Value, error) {
	return f.likeGate.wait()
}

func (f *fakePostRepo) ToggleCommentLike(ctx context.Context, postID entity.ID, commentID string, me entity.ID) (raw.Value, error) {
	return f.commentLike.wait()
}

type recordedEvent struct {
	userID    string
	eventType string
	event     EditEvent
}

type fakeNotifier struct {
	events chan recordedEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(chan recordedEvent, 16)}
}

func (f *fakeNotifier) Notify(userID, eventType string, data interface{}) {
	ev, _ := data.(EditEvent)
	f.events <- recordedEvent{userID: userID, eventType: eventType, event: ev}
}

func (f *fakeNotifier) next(t *testing.T) recordedEvent {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return recordedEvent{}
	}
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, code), "expected %s, got %v", code, err)
}
