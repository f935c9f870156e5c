package medicines

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byUser map[string]map[string]string

	putCalls int
	failPut  error
	failList error
}

func newTestRepo() *testRepo {
	return &testRepo{byUser: map[string]map[string]string{}}
}

func (r *testRepo) Put(ctx context.Context, userID, key, time string) error {
	r.putCalls++
	if r.failPut != nil {
		return r.failPut
	}
	if r.byUser[userID] == nil {
		r.byUser[userID] = map[string]string{}
	}
	r.byUser[userID][key] = time
	return nil
}

func (r *testRepo) Delete(ctx context.Context, userID, key string) error {
	delete(r.byUser[userID], key)
	return nil
}

func (r *testRepo) List(ctx context.Context, userID string) ([]Record, error) {
	if r.failList != nil {
		return nil, r.failList
	}
	out := make([]Record, 0)
	for k, t := range r.byUser[userID] {
		out = append(out, Record{Key: k, Time: t})
	}
	return out, nil
}

// seed mete un registro crudo sin pasar por el service (data sucia).
func (r *testRepo) seed(userID, key, time string) {
	if r.byUser[userID] == nil {
		r.byUser[userID] = map[string]string{}
	}
	r.byUser[userID][key] = time
}

// -------------------------
// Tests
// -------------------------

func TestService_Upsert_TrimsAndNormalizes(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	med, err := svc.Upsert(context.Background(), "user-1", "  Aspirin ", "07:05 pm")
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if med.Name != "Aspirin" {
		t.Fatalf("expected trimmed name, got %q", med.Name)
	}
	if med.Time != "7:05 PM" {
		t.Fatalf("expected canonical time 7:05 PM, got %q", med.Time)
	}

	list, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Aspirin" || list[0].Time != "7:05 PM" {
		t.Fatalf("unexpected list: %#v", list)
	}
}

func TestService_Upsert_SameNameOverwrites(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	if _, err := svc.Upsert(context.Background(), "user-1", "Aspirin", "7:30 AM"); err != nil {
		t.Fatalf("Upsert #1 error: %v", err)
	}
	if _, err := svc.Upsert(context.Background(), "user-1", "Aspirin", "8:00 AM"); err != nil {
		t.Fatalf("Upsert #2 error: %v", err)
	}

	list, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly 1 entry for Aspirin, got %d", len(list))
	}
	if list[0].Time != "8:00 AM" {
		t.Fatalf("expected 8:00 AM after overwrite, got %q", list[0].Time)
	}
}

func TestService_Upsert_RejectsBeforeAnyRemoteCall(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	if _, err := svc.Upsert(context.Background(), "user-1", "Aspirin", "bad"); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
	}
	if _, err := svc.Upsert(context.Background(), "user-1", "   ", "7:30 AM"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if repo.putCalls != 0 {
		t.Fatalf("validation must reject before any remote call, saw %d puts", repo.putCalls)
	}
}

func TestService_UpdateTime_CreatesWhenAbsent(t *testing.T) {
	// el store remoto es permisivo: editar una key ausente la crea
	repo := newTestRepo()
	svc := NewService(repo, nil)

	med, err := svc.UpdateTime(context.Background(), "user-1", "Iron", "2:00 PM")
	if err != nil {
		t.Fatalf("UpdateTime error: %v", err)
	}
	if med.Time != "2:00 PM" {
		t.Fatalf("unexpected time %q", med.Time)
	}

	list, _ := svc.List(context.Background(), "user-1")
	if len(list) != 1 || list[0].Name != "Iron" {
		t.Fatalf("expected Iron created by permissive edit, got %#v", list)
	}
}

func TestService_Delete_AbsentNameSucceeds(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	if err := svc.Delete(context.Background(), "user-1", "Ghost"); err != nil {
		t.Fatalf("idempotent delete must not fail, got %v", err)
	}
}

func TestService_List_ChronologicalNotLexicographic(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	ctx := context.Background()
	for _, m := range []Medicine{
		{"Iron", "2:00 PM"},
		{"Zinc", "9:00 AM"},
		{"Calcium", "10:00 AM"},
		{"Melatonin", "12:00 AM"},
	} {
		if _, err := svc.Upsert(ctx, "user-1", m.Name, m.Time); err != nil {
			t.Fatalf("Upsert %s error: %v", m.Name, err)
		}
	}

	list, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	want := []string{"Melatonin", "Zinc", "Calcium", "Iron"}
	if len(list) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(list))
	}
	for i, name := range want {
		if list[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s (order: %#v)", i, name, list[i].Name, list)
		}
	}
	// sanity del bug que se corrige: lexicográficamente "10:00 AM" < "9:00 AM"
	if !("10:00 AM" < "9:00 AM") {
		t.Fatalf("sanity: lexicographic comparison should invert these")
	}
}

func TestService_List_SkipsMalformedRecords(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	ctx := context.Background()
	if _, err := svc.Upsert(ctx, "user-1", "Aspirin", "7:30 AM"); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	repo.seed("user-1", "%zz", "8:00 AM")     // key indecodificable
	repo.seed("user-1", "Broken", "notatime") // time imparseable

	list, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("malformed records must not fail the batch: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Aspirin" {
		t.Fatalf("expected only Aspirin to survive, got %#v", list)
	}
}

func TestService_List_DecodesLegacyUnderscoreKeysAsThemselves(t *testing.T) {
	// datos viejos guardados con "_" en vez de espacio: decodifican igual
	// a sí mismos, la lectura no se rompe
	repo := newTestRepo()
	svc := NewService(repo, nil)

	repo.seed("user-1", "Vitamin_D", "9:00 AM")

	list, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Vitamin_D" {
		t.Fatalf("expected legacy key kept verbatim, got %#v", list)
	}
}

func TestService_NameEncoding_NoCollision(t *testing.T) {
	// "a_b" y "a b" deben ser registros distintos (el encoding viejo colisionaba)
	repo := newTestRepo()
	svc := NewService(repo, nil)

	ctx := context.Background()
	if _, err := svc.Upsert(ctx, "user-1", "a_b", "7:00 AM"); err != nil {
		t.Fatalf("Upsert a_b error: %v", err)
	}
	if _, err := svc.Upsert(ctx, "user-1", "a b", "8:00 AM"); err != nil {
		t.Fatalf("Upsert 'a b' error: %v", err)
	}

	list, _ := svc.List(ctx, "user-1")
	if len(list) != 2 {
		t.Fatalf("expected 2 distinct entries, got %#v", list)
	}
}

func TestService_Subscribe_PushesOnEveryConfirmedMutation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	ch, cancel, err := svc.Subscribe(ctx, "user-1")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer cancel()

	initial := <-ch
	if len(initial.Medicines) != 0 {
		t.Fatalf("expected empty initial snapshot, got %#v", initial.Medicines)
	}
	if initial.ID == "" || !initial.At.Equal(now) {
		t.Fatalf("snapshot metadata missing: %#v", initial)
	}

	if _, err := svc.Upsert(ctx, "user-1", "Aspirin", "7:30 AM"); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	snap := <-ch
	if len(snap.Medicines) != 1 || snap.Medicines[0].Name != "Aspirin" {
		t.Fatalf("expected push with Aspirin, got %#v", snap.Medicines)
	}
	if snap.ID == initial.ID {
		t.Fatalf("each push must carry a fresh snapshot id")
	}

	if err := svc.Delete(ctx, "user-1", "Aspirin"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	snap = <-ch
	if len(snap.Medicines) != 0 {
		t.Fatalf("expected empty snapshot after delete, got %#v", snap.Medicines)
	}
}

func TestService_Subscribe_SlowConsumerGetsLatestSnapshot(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	ctx := context.Background()
	ch, cancel, err := svc.Subscribe(ctx, "user-1")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer cancel()

	// el consumidor no lee: dos mutaciones seguidas no deben bloquear
	if _, err := svc.Upsert(ctx, "user-1", "Aspirin", "7:30 AM"); err != nil {
		t.Fatalf("Upsert #1 error: %v", err)
	}
	if _, err := svc.Upsert(ctx, "user-1", "Zinc", "9:00 AM"); err != nil {
		t.Fatalf("Upsert #2 error: %v", err)
	}

	snap := <-ch
	if len(snap.Medicines) != 2 {
		t.Fatalf("slow consumer must see the latest snapshot, got %#v", snap.Medicines)
	}
}

func TestService_Subscribe_CancelClosesChannel(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	ch, cancel, err := svc.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	<-ch // initial
	cancel()
	cancel() // doble cancel no debe panickear

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}

	// mutar después de cancelar no debe escribir en el canal cerrado
	if _, err := svc.Upsert(context.Background(), "user-1", "Aspirin", "7:30 AM"); err != nil {
		t.Fatalf("Upsert after cancel error: %v", err)
	}
}

func TestService_Subscribe_CancelReleasesWatcher(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	base := runtime.NumGoroutine()

	// un contexto no cancelable no debe dejar viva la goroutine de
	// vigilancia una vez invocado el cancel explícito
	for i := 0; i < 20; i++ {
		ch, cancel, err := svc.Subscribe(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Subscribe error: %v", err)
		}
		<-ch
		cancel()
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > base && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > base {
		t.Fatalf("expected watcher goroutines to exit after cancel, %d leaked", n-base)
	}
}

func TestService_StoreErrors_SurfacedNotSwallowed(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	repo.failPut = errors.New("connection refused")
	_, err := svc.Upsert(context.Background(), "user-1", "Aspirin", "7:30 AM")
	se, ok := AsStoreError(err)
	if !ok {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if se.Kind != StoreNetworkFailure {
		t.Fatalf("expected network_failure, got %s", se.Kind)
	}

	// errores ya clasificados por el adapter se preservan
	repo.failPut = NewStoreError(StorePermissionDenied, errors.New("rules"))
	_, err = svc.Upsert(context.Background(), "user-1", "Aspirin", "7:30 AM")
	se, ok = AsStoreError(err)
	if !ok || se.Kind != StorePermissionDenied {
		t.Fatalf("expected permission_denied preserved, got %v", err)
	}
}

func TestService_FailedMutationDoesNotPublish(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	ctx := context.Background()
	ch, cancel, err := svc.Subscribe(ctx, "user-1")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer cancel()
	<-ch // initial

	repo.failPut = errors.New("down")
	if _, err := svc.Upsert(ctx, "user-1", "Aspirin", "7:30 AM"); err == nil {
		t.Fatalf("expected error")
	}

	select {
	case snap := <-ch:
		t.Fatalf("failed mutation must not publish, got %#v", snap)
	default:
	}
}
