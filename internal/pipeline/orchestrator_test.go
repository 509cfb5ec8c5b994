package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/chunker"
	"github.com/contractintel/contract-intel/internal/classifier"
	"github.com/contractintel/contract-intel/internal/entity"
	"github.com/contractintel/contract-intel/internal/fallback"
	"github.com/contractintel/contract-intel/internal/llm"
	"github.com/contractintel/contract-intel/internal/store"
	"github.com/contractintel/contract-intel/internal/textextract"
)

const exampleContract = "Customer: Acme Inc (acme@x.com). Vendor: Globex LLC. Total: $10,000. Payment Terms: Net 30."

// fakeAI scripts per-chunk behavior for the orchestrator tests.
type fakeAI struct {
	calls atomic.Int32
	fail  bool
	frag  func(req llm.ExtractRequest) entity.Fragment
}

func (f *fakeAI) ExtractChunk(_ context.Context, req llm.ExtractRequest) (entity.Fragment, []byte, error) {
	f.calls.Add(1)
	if f.fail {
		return entity.Fragment{}, nil, llm.ErrUnavailable
	}
	if f.frag != nil {
		return f.frag(req), nil, nil
	}
	return entity.Fragment{
		Source:     entity.SourceAI,
		ChunkIndex: req.ChunkIndex,
		Parties:    []entity.Party{{Name: "Acme Inc", Role: "customer"}},
		ConfidenceByCategory: map[constants.Category]float64{
			constants.PartyIdentification: 90,
		},
	}, nil, nil
}

func newTestOrchestrator(t *testing.T, st store.ContractStore, ai llm.ChunkExtractor) *Orchestrator {
	t.Helper()
	ch, err := chunker.New(400, 50)
	require.NoError(t, err)
	return NewOrchestrator(
		st,
		textextract.NewExtractor(textextract.Config{}, nil),
		ai,
		fallback.New(nil),
		ch,
		classifier.New(),
		Config{Workers: 2, CallTimeout: time.Second},
		nil,
	)
}

func seedContract(t *testing.T, st store.ContractStore) *entity.Contract {
	t.Helper()
	now := time.Now().UTC()
	c := &entity.Contract{
		ID:         uuid.New(),
		Filename:   "contract.txt",
		FileSize:   len(exampleContract),
		Status:     constants.StatusPending,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	require.NoError(t, st.Save(context.Background(), c))
	return c
}

func TestProcessCompletesWithFallbackOnly(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := newTestOrchestrator(t, st, nil)
	c := seedContract(t, st)

	require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte(exampleContract)))

	got, err := st.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.ParsedData)
	assert.Len(t, got.ParsedData.Parties, 2)
	require.NotNil(t, got.Score)
	assert.Greater(t, *got.Score, 0)
	assert.Contains(t, got.Gaps, "No SLA information found")
	assert.Nil(t, got.Error)
}

func TestProcessUsesAIFragments(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ai := &fakeAI{}
	o := newTestOrchestrator(t, st, ai)
	c := seedContract(t, st)

	require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte(exampleContract)))
	assert.Greater(t, ai.calls.Load(), int32(0))

	got, err := st.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParsedData)
	// The AI fragment's high party confidence dominates the merge.
	assert.Equal(t, 90.0, got.ParsedData.ConfidenceScores[constants.PartyIdentification])
}

func TestProcessAIFailureRoutesToFallback(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ai := &fakeAI{fail: true}
	o := newTestOrchestrator(t, st, ai)
	c := seedContract(t, st)

	require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte(exampleContract)))
	assert.Greater(t, ai.calls.Load(), int32(0), "AI path attempted")

	got, err := st.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, got.Status, "AI outage is never fatal")
	require.NotNil(t, got.ParsedData)
	assert.Len(t, got.ParsedData.Parties, 2, "fallback recovered the parties")
}

func TestProcessEmptyTextIsFatal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := newTestOrchestrator(t, st, nil)
	c := seedContract(t, st)

	err := o.Process(ctx, c.ID, c.Filename, []byte("   \n\n  "))
	require.Error(t, err)

	got, gerr := st.Get(ctx, c.ID)
	require.NoError(t, gerr)
	assert.Equal(t, constants.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "no extractable text")
	assert.Nil(t, got.ParsedData, "no record persisted on fatal failure")
}

func TestProcessTerminalIsNoOp(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := newTestOrchestrator(t, st, nil)
	c := seedContract(t, st)

	require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte(exampleContract)))
	first, err := st.Get(ctx, c.ID)
	require.NoError(t, err)

	// Second invocation must not touch the record.
	require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte("different text entirely")))
	second, err := st.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReprocessRerunsTerminalContract(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := newTestOrchestrator(t, st, nil)
	c := seedContract(t, st)

	require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte(exampleContract)))

	withSLA := exampleContract + " The vendor guarantees 99.9% uptime. Technical Support: 24x7."
	require.NoError(t, o.Reprocess(ctx, c.ID, c.Filename, []byte(withSLA)))

	got, err := st.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, got.Status)
	assert.NotContains(t, got.Gaps, "No SLA information found")
}

func TestProcessUnknownContract(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(t, st, nil)

	err := o.Process(context.Background(), uuid.New(), "x.txt", []byte(exampleContract))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProcessDeterministicAcrossRuns(t *testing.T) {
	ctx := context.Background()

	run := func() *entity.Contract {
		st := store.NewMemoryStore()
		o := newTestOrchestrator(t, st, nil)
		c := seedContract(t, st)
		require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte(exampleContract)))
		got, err := st.Get(ctx, c.ID)
		require.NoError(t, err)
		return got
	}

	a, b := run(), run()
	require.NotNil(t, a.ParsedData)
	assert.Equal(t, a.ParsedData, b.ParsedData)
	assert.Equal(t, *a.Score, *b.Score)
	assert.Equal(t, a.Gaps, b.Gaps)
}

func TestQueueProcessesAndDrains(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := newTestOrchestrator(t, st, nil)
	c := seedContract(t, st)

	q := NewQueue(o, nil, WithWorkers(2), WithQueueSize(8))
	require.NoError(t, q.Enqueue(ctx, Job{
		ContractID:  c.ID,
		Filename:    c.Filename,
		Data:        []byte(exampleContract),
		SubmittedAt: time.Now(),
	}))

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	got, err := st.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, got.Status)

	// Post-shutdown enqueue is dropped without panicking.
	require.NoError(t, q.Enqueue(ctx, Job{ContractID: c.ID}))
}

// deletingAI removes the contract from the store while extraction is in
// flight, simulating a DELETE racing the pipeline.
type deletingAI struct {
	st store.ContractStore
	id uuid.UUID
}

func (d *deletingAI) ExtractChunk(ctx context.Context, req llm.ExtractRequest) (entity.Fragment, []byte, error) {
	_ = d.st.Delete(ctx, d.id)
	return entity.Fragment{
		Source:               entity.SourceAI,
		ChunkIndex:           req.ChunkIndex,
		Parties:              []entity.Party{{Name: "Acme Inc", Role: "customer"}},
		ConfidenceByCategory: map[constants.Category]float64{constants.PartyIdentification: 90},
	}, nil, nil
}

func TestProcessDeletedMidRunIsDiscarded(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := seedContract(t, st)
	o := newTestOrchestrator(t, st, &deletingAI{st: st, id: c.ID})

	// The run stops cleanly; a deleted contract is not an error.
	require.NoError(t, o.Process(ctx, c.ID, c.Filename, []byte(exampleContract)))

	_, err := st.Get(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "deleted contract must stay deleted")
}

func TestFailDoesNotResurrectDeletedContract(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := newTestOrchestrator(t, st, nil)
	c := seedContract(t, st)
	require.NoError(t, st.Delete(ctx, c.ID))

	// The failure reason still surfaces, but no FAILED record is written.
	err := o.fail(ctx, c, "text extraction failed: boom")
	require.EqualError(t, err, "text extraction failed: boom")

	_, gerr := st.Get(ctx, c.ID)
	assert.ErrorIs(t, gerr, store.ErrNotFound)
}

// failAfterGet simulates a store outage on the persist path.
type failingStore struct {
	store.ContractStore
	failSaves atomic.Bool
}

func (f *failingStore) Save(ctx context.Context, c *entity.Contract) error {
	if f.failSaves.Load() {
		return errors.New("store down")
	}
	return f.ContractStore.Save(ctx, c)
}

func TestProcessStoreOutageSurfaces(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{ContractStore: store.NewMemoryStore()}
	o := newTestOrchestrator(t, fs, nil)
	c := seedContract(t, fs)

	fs.failSaves.Store(true)
	err := o.Process(ctx, c.ID, c.Filename, []byte(exampleContract))
	require.Error(t, err)

	// The previously persisted record is untouched.
	fs.failSaves.Store(false)
	got, gerr := fs.Get(ctx, c.ID)
	require.NoError(t, gerr)
	assert.Equal(t, constants.StatusPending, got.Status)
}
