package conversation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Pratham2403/insights-dashboard-sub001/conversation"
	"github.com/Pratham2403/insights-dashboard-sub001/conversation/store"
	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

func newManager() *conversation.Manager {
	return conversation.NewManager(conversation.WithStore(store.NewInMemoryStore()))
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	mgr := newManager()

	conv, err := mgr.Create(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if conv.ID() != "conv-1" {
		t.Errorf("ID() = %q", conv.ID())
	}

	got, err := mgr.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != conv {
		t.Error("Get() should return the cached conversation")
	}
}

func TestCreateGeneratesID(t *testing.T) {
	conv, err := newManager().Create(context.Background(), "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if conv.ID() == "" {
		t.Error("expected generated conversation ID")
	}
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	mgr := newManager()
	if _, err := mgr.Create(ctx, "conv-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := mgr.Create(ctx, "conv-1"); err == nil {
		t.Error("expected duplicate creation error")
	}
}

func TestGetMissing(t *testing.T) {
	_, err := newManager().Get(context.Background(), "nope")
	if !errors.Is(err, inserr.ErrConversationNotFound) {
		t.Errorf("Get() error = %v, want ErrConversationNotFound", err)
	}
}

func TestGetRehydratesFromStore(t *testing.T) {
	ctx := context.Background()
	backing := store.NewInMemoryStore()

	st := state.New("conv-1")
	st.Requirements.Products = []string{"Pixel"}
	if err := st.AdvanceTo(state.StageValidating); err != nil {
		t.Fatalf("AdvanceTo() error = %v", err)
	}
	if err := backing.Save(ctx, st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	mgr := conversation.NewManager(conversation.WithStore(backing))
	conv, err := mgr.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	snapshot := conv.Snapshot()
	if snapshot.Stage != state.StageValidating {
		t.Errorf("rehydrated stage = %s", snapshot.Stage)
	}
	if len(snapshot.Requirements.Products) != 1 {
		t.Errorf("rehydrated products = %v", snapshot.Requirements.Products)
	}
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	mgr := newManager()

	conv, err := mgr.GetOrCreate(ctx, "conv-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	again, err := mgr.GetOrCreate(ctx, "conv-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if conv != again {
		t.Error("GetOrCreate() should return the same conversation")
	}
}

// flakyLoadStore simulates a backend whose reads fail transiently.
type flakyLoadStore struct {
	conversation.Store
	loadErr error
}

func (s *flakyLoadStore) Load(ctx context.Context, id string) (*state.State, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Store.Load(ctx, id)
}

func TestGetOrCreateKeepsLiveConversationOnLoadFailure(t *testing.T) {
	ctx := context.Background()
	backing := store.NewInMemoryStore()

	st := state.New("conv-1")
	st.Requirements.Products = []string{"Pixel"}
	if err := st.AdvanceTo(state.StageValidating); err != nil {
		t.Fatalf("AdvanceTo() error = %v", err)
	}
	if err := backing.Save(ctx, st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	flaky := &flakyLoadStore{Store: backing, loadErr: errors.New("connection refused")}
	mgr := conversation.NewManager(conversation.WithStore(flaky))

	if _, err := mgr.GetOrCreate(ctx, "conv-1"); err == nil {
		t.Fatal("GetOrCreate() should propagate a transient load failure")
	}

	loaded, err := backing.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Stage != state.StageValidating || len(loaded.Requirements.Products) != 1 {
		t.Errorf("stored conversation was overwritten: %+v", loaded)
	}

	// Once the store recovers, the live conversation comes back intact.
	flaky.loadErr = nil
	conv, err := mgr.GetOrCreate(ctx, "conv-1")
	if err != nil {
		t.Fatalf("GetOrCreate() after recovery error = %v", err)
	}
	if conv.Snapshot().Stage != state.StageValidating {
		t.Errorf("rehydrated stage = %s, want validating", conv.Snapshot().Stage)
	}
}

func TestUpdateSerializesWrites(t *testing.T) {
	ctx := context.Background()
	mgr := newManager()
	conv, err := mgr.Create(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.Update(func(st *state.State) error {
				st.Requirements.Goals = append(st.Requirements.Goals, "g")
				return nil
			})
		}()
	}
	wg.Wait()

	if got := len(conv.Snapshot().Requirements.Goals); got != writers {
		t.Errorf("goals = %d, want %d (lost update)", got, writers)
	}
}

func TestPersistAndReload(t *testing.T) {
	ctx := context.Background()
	backing := store.NewInMemoryStore()
	mgr := conversation.NewManager(conversation.WithStore(backing))

	conv, err := mgr.Create(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	conv.Update(func(st *state.State) error {
		st.Requirements.Channels = []string{"twitter"}
		return nil
	})
	if err := mgr.Persist(ctx, conv); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	loaded, err := backing.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Requirements.Channels) != 1 {
		t.Errorf("persisted channels = %v", loaded.Requirements.Channels)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	mgr := newManager()
	if _, err := mgr.Create(ctx, "conv-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mgr.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := mgr.Get(ctx, "conv-1"); !errors.Is(err, inserr.ErrConversationNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
}

func TestCleanupInactive(t *testing.T) {
	ctx := context.Background()
	backing := store.NewInMemoryStore()
	mgr := conversation.NewManager(conversation.WithStore(backing))

	ended, err := mgr.Create(ctx, "conv-ended")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ended.Update(func(st *state.State) error {
		st.Stage = state.StageEnd
		st.UpdatedAt = time.Now()
		return nil
	})

	active, err := mgr.Create(ctx, "conv-active")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	active.Update(func(st *state.State) error {
		st.UpdatedAt = time.Now()
		return nil
	})

	evicted, err := mgr.CleanupInactive(ctx, time.Hour)
	if err != nil {
		t.Fatalf("CleanupInactive() error = %v", err)
	}
	if evicted != 1 {
		t.Errorf("evicted = %d, want 1 (ended conversation only)", evicted)
	}

	// The ended conversation is still loadable from the store.
	if _, err := mgr.Get(ctx, "conv-ended"); err != nil {
		t.Errorf("Get() after cleanup error = %v", err)
	}
}

func TestManagerWithoutStore(t *testing.T) {
	mgr := conversation.NewManager()
	if _, err := mgr.Create(context.Background(), "conv-1"); err == nil {
		t.Error("expected error without configured store")
	}
}
