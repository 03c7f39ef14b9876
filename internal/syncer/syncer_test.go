package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/kv"
)

type fakeRemote struct {
	mu       sync.Mutex
	calls    []string
	failOn   string
	records  map[string]model.DailyRecord
	ledgers  map[string]model.LedgerItem
	onUpsert func()
	// branch each delete was scoped to, by id
	deletedIn map[string]string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: map[string]model.DailyRecord{}, ledgers: map[string]model.LedgerItem{}, deletedIn: map[string]string{}}
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if call == f.failOn {
		return errors.New("network unreachable")
	}
	return nil
}

func (f *fakeRemote) UpsertRecord(ctx context.Context, rec model.DailyRecord) error {
	if f.onUpsert != nil {
		f.onUpsert()
	}
	if err := f.record("upsert-record:" + rec.ID); err != nil {
		return err
	}
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeRemote) UpsertLedger(ctx context.Context, item model.LedgerItem) error {
	if err := f.record("upsert-ledger:" + item.ID); err != nil {
		return err
	}
	f.ledgers[item.ID] = item
	return nil
}

func (f *fakeRemote) DeleteRecord(ctx context.Context, branchID, id string) error {
	if err := f.record("delete-record:" + id); err != nil {
		return err
	}
	f.deletedIn[id] = branchID
	delete(f.records, id)
	return nil
}

func (f *fakeRemote) DeleteLedger(ctx context.Context, branchID, id string) error {
	if err := f.record("delete-ledger:" + id); err != nil {
		return err
	}
	f.deletedIn[id] = branchID
	delete(f.ledgers, id)
	return nil
}

func (f *fakeRemote) FetchRecords(ctx context.Context, branchID string) ([]model.DailyRecord, error) {
	out := []model.DailyRecord{}
	for _, r := range f.records {
		if r.BranchID == branchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRemote) FetchLedgers(ctx context.Context, branchID string) ([]model.LedgerItem, error) {
	out := []model.LedgerItem{}
	for _, l := range f.ledgers {
		if l.BranchID == branchID {
			out = append(out, l)
		}
	}
	return out, nil
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(kv.NewMemory(), store.Options{})
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func record(id, date string) model.DailyRecord {
	r := model.NewDailyRecord(id, date)
	r.Income.Cash = 10
	return r
}

func TestPush_SequentialAndMarksSynced(t *testing.T) {
	st := newStore(t)
	st.AddRecord(record("r1", "2024-01-01"))
	st.AddRecord(record("r2", "2024-01-02"))
	st.AddLedger(model.LedgerItem{ID: "l1", Customer: "A", Amount: 5})
	st.AddRecord(record("gone", "2024-01-03"))
	st.DeleteRecord("gone")

	remote := newFakeRemote()
	sy := New(st, remote, nil)

	var progress []Progress
	res, err := sy.Push(context.Background(), func(p Progress) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	want := []string{"upsert-record:r1", "upsert-record:r2", "upsert-ledger:l1", "delete-record:gone"}
	if len(remote.calls) != len(want) {
		t.Fatalf("calls = %v", remote.calls)
	}
	for i := range want {
		if remote.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", remote.calls, want)
		}
	}

	if res.Total != 4 || res.Pushed != 4 || res.Failed != nil {
		t.Errorf("result %+v", res)
	}
	if len(progress) != 4 || progress[3].Done != 4 || progress[3].Total != 4 {
		t.Errorf("progress %+v", progress)
	}
	if p := st.Pending(); p.Len() != 0 {
		t.Errorf("everything should be synced, pending %+v", p)
	}
}

func TestPush_StopsAtFirstFailure(t *testing.T) {
	st := newStore(t)
	st.AddRecord(record("r1", "2024-01-01"))
	st.AddRecord(record("r2", "2024-01-02"))
	st.AddRecord(record("r3", "2024-01-03"))

	remote := newFakeRemote()
	remote.failOn = "upsert-record:r2"
	sy := New(st, remote, nil)

	res, err := sy.Push(context.Background(), nil)

	var failure *Failure
	if !errors.As(err, &failure) || failure.ID != "r2" || failure.Kind != "record" {
		t.Fatalf("expected failure on r2, got %v", err)
	}
	if res.Pushed != 1 || res.Total != 3 {
		t.Errorf("result %+v", res)
	}
	if len(remote.calls) != 2 {
		t.Errorf("r3 must not be attempted, calls %v", remote.calls)
	}

	r1, _ := st.Record("r1")
	r2, _ := st.Record("r2")
	r3, _ := st.Record("r3")
	if !r1.IsSynced || r2.IsSynced || r3.IsSynced {
		t.Errorf("synced flags r1=%v r2=%v r3=%v", r1.IsSynced, r2.IsSynced, r3.IsSynced)
	}

	if st := sy.Status(); st.Last == nil || st.Last.Failed == nil || st.Pending != 2 {
		t.Errorf("status %+v", st)
	}
}

func TestPush_EditDuringUploadStaysDirty(t *testing.T) {
	st := newStore(t)
	st.AddRecord(record("r1", "2024-01-01"))

	remote := newFakeRemote()
	remote.onUpsert = func() {
		rec, _ := st.Record("r1")
		rec.Note = "changed while uploading"
		st.UpdateRecord(rec)
	}
	sy := New(st, remote, nil)

	if _, err := sy.Push(context.Background(), nil); err != nil {
		t.Fatalf("Push: %v", err)
	}

	rec, _ := st.Record("r1")
	if rec.IsSynced {
		t.Error("record edited during upload must stay unsynced")
	}
}

func TestPush_PaidLedgerUpsertsSettledItem(t *testing.T) {
	st := newStore(t)
	st.AddLedger(model.LedgerItem{ID: "l1", Customer: "A", Amount: 5})
	remote := newFakeRemote()
	sy := New(st, remote, nil)
	sy.Push(context.Background(), nil)

	if _, err := st.PayLedger("l1", "2024-01-05"); err != nil {
		t.Fatalf("PayLedger: %v", err)
	}
	if _, err := sy.Push(context.Background(), nil); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if item, ok := remote.ledgers["l1"]; !ok || !item.IsPaid {
		t.Errorf("remote should keep the tab as paid, got %+v", item)
	}
	if st.Pending().Len() != 0 {
		t.Errorf("pending after push: %+v", st.Pending())
	}
}

func TestPush_RejectsConcurrentRun(t *testing.T) {
	st := newStore(t)
	sy := New(st, newFakeRemote(), nil)
	sy.running = true

	if _, err := sy.Push(context.Background(), nil); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress, got %v", err)
	}
}

func TestPull(t *testing.T) {
	st := newStore(t)
	remote := newFakeRemote()
	remote.records["x"] = model.DailyRecord{ID: "x", BranchID: "b1", Date: "2024-01-01"}
	remote.records["y"] = model.DailyRecord{ID: "y", BranchID: "other", Date: "2024-01-01"}
	remote.ledgers["l"] = model.LedgerItem{ID: "l", BranchID: "b1", Customer: "C", Amount: 1}
	sy := New(st, remote, nil)

	if _, err := sy.Pull(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	st.SetUserProfile(&model.UserProfile{ID: "u", BranchID: "b1"})
	n, err := sy.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if n != 2 {
		t.Errorf("applied %d, want 2", n)
	}
	if rec, ok := st.Record("x"); !ok || !rec.IsSynced {
		t.Errorf("pulled record %+v", rec)
	}
	if _, ok := st.Record("y"); ok {
		t.Error("other branch's record must not be pulled")
	}
}

func TestPush_DeletesAreScopedToOwningBranch(t *testing.T) {
	st := newStore(t)
	st.SetUserProfile(&model.UserProfile{ID: "u1", BranchID: "b7"})
	st.AddRecord(record("r1", "2024-01-01"))
	st.AddLedger(model.LedgerItem{ID: "l1", Customer: "A", Amount: 5})
	st.DeleteRecord("r1")
	st.RemoveLedger("l1")

	remote := newFakeRemote()
	if _, err := New(st, remote, nil).Push(context.Background(), nil); err != nil {
		t.Fatalf("Push: %v", err)
	}
	for _, id := range []string{"r1", "l1"} {
		if got := remote.deletedIn[id]; got != "b7" {
			t.Errorf("delete of %s scoped to %q, want b7", id, got)
		}
	}
}
