package review

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/store"
	"github.com/ahrav/go-greenlight/pkg/activity"
	"github.com/ahrav/go-greenlight/pkg/events"
)

// fakeCompleter records completion signals so tests can assert on ordering
// and delivery without a Temporal server.
type fakeCompleter struct {
	mu          sync.Mutex
	completions []fakeCompletion
	failures    []fakeFailure

	completeErr error
	failErr     error
}

type fakeCompletion struct {
	token   domain.CallbackToken
	outcome domain.DecisionOutcome
}

type fakeFailure struct {
	token  domain.CallbackToken
	reason string
}

func (f *fakeCompleter) Complete(
	_ context.Context,
	token domain.CallbackToken,
	outcome domain.DecisionOutcome,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completions = append(f.completions, fakeCompletion{token: token, outcome: outcome})
	return nil
}

func (f *fakeCompleter) Fail(_ context.Context, token domain.CallbackToken, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.failures = append(f.failures, fakeFailure{token: token, reason: reason})
	return nil
}

func (f *fakeCompleter) Completions() []fakeCompletion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCompletion(nil), f.completions...)
}

func (f *fakeCompleter) Failures() []fakeFailure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeFailure(nil), f.failures...)
}

type testFixture struct {
	acts      *Activities
	items     *store.InMemoryItemStore
	completer *fakeCompleter
	sink      *events.CapturingEventSink
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	items := store.NewInMemoryItemStore()
	completer := &fakeCompleter{}
	sink := events.NewCapturingEventSink()
	base := activity.NewBaseActivities(sink)
	return &testFixture{
		acts:      NewActivities(base, items, completer, nil, time.Hour),
		items:     items,
		completer: completer,
		sink:      sink,
	}
}

// seedPending creates an item already parked in PENDING with a live token.
func (f *testFixture) seedPending(t *testing.T, id string) domain.CallbackToken {
	t.Helper()
	token := domain.MintCallbackToken()
	require.NoError(t, f.items.Create(context.Background(), domain.Item{
		ID:                     id,
		Status:                 domain.StatusPending,
		StagingMediaKey:        "staging/" + id + "/media.jpg",
		CallbackToken:          token,
		CallbackTokenExpiresAt: time.Now().Add(time.Hour),
		RequestedAt:            time.Now().UTC(),
	}))
	return token
}

// seedDraft creates a fresh DRAFT item.
func (f *testFixture) seedDraft(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.items.Create(context.Background(), domain.Item{
		ID:              id,
		Status:          domain.StatusDraft,
		StagingMediaKey: "staging/" + id + "/media.jpg",
	}))
}
