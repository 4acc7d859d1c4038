package bootstrap

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/db"
	"github.com/nordveil/shopsearch/internal/domain"
)

type fakeIndexStore struct {
	existing  map[string]bool
	created   []string
	defs      map[string]*db.IndexDefinition
	createErr map[string]error
}

func newFakeIndexStore() *fakeIndexStore {
	return &fakeIndexStore{
		existing:  map[string]bool{},
		defs:      map[string]*db.IndexDefinition{},
		createErr: map[string]error{},
	}
}

func (f *fakeIndexStore) IndexExists(_ context.Context, name string) (bool, error) {
	return f.existing[name], nil
}

func (f *fakeIndexStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := f.createErr[def.Name]; err != nil {
		return err
	}
	f.existing[def.Name] = true
	f.created = append(f.created, def.Name)
	f.defs[def.Name] = def
	return nil
}

type fakeCatalog struct {
	count     int
	countErr  error
	inserted  []domain.Product
	insertErr error
}

func (f *fakeCatalog) Count(context.Context) (int, error) { return f.count, f.countErr }

func (f *fakeCatalog) Insert(_ context.Context, products []domain.Product) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, products...)
	return nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
}

func testConfig() Config {
	return Config{EmbeddingDim: 3, HNSWM: 16, HNSWEFConstruct: 200}
}

func TestEnsureCreatesAllThreeIndexes(t *testing.T) {
	store := newFakeIndexStore()
	svc := NewService(store, &fakeCatalog{}, &fakeEmbedder{}, testConfig(), zap.NewNop())

	if err := svc.Ensure(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{domain.TagIndexName, domain.TextIndexName, domain.VectorIndexName}
	if len(store.created) != 3 {
		t.Fatalf("created %v, want 3 indexes", store.created)
	}
	for i, name := range want {
		if store.created[i] != name {
			t.Errorf("index %d = %q, want %q", i, store.created[i], name)
		}
	}
}

func TestEnsureTextIndexFieldWeights(t *testing.T) {
	store := newFakeIndexStore()
	svc := NewService(store, &fakeCatalog{}, &fakeEmbedder{}, testConfig(), zap.NewNop())

	if err := svc.Ensure(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := store.defs[domain.TextIndexName]
	if def == nil {
		t.Fatal("text index not created")
	}

	want := map[string]float64{"title": 3, "description": 0, "category": 2}
	for _, f := range def.Fields {
		w, ok := want[f.Name]
		if !ok {
			t.Errorf("unexpected field %q in text index", f.Name)
			continue
		}
		if f.TextWeight != w {
			t.Errorf("field %q weight = %v, want %v", f.Name, f.TextWeight, w)
		}
		delete(want, f.Name)
	}
	for name := range want {
		t.Errorf("field %q missing from text index", name)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	store := newFakeIndexStore()
	svc := NewService(store, &fakeCatalog{}, &fakeEmbedder{}, testConfig(), zap.NewNop())

	if err := svc.Ensure(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	created := len(store.created)

	if err := svc.Ensure(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(store.created) != created {
		t.Errorf("second run created %d more indexes", len(store.created)-created)
	}
}

func TestEnsureTagIndexFailureAborts(t *testing.T) {
	store := newFakeIndexStore()
	wantErr := errors.New("store down")
	store.createErr[domain.TagIndexName] = wantErr
	svc := NewService(store, &fakeCatalog{}, &fakeEmbedder{}, testConfig(), zap.NewNop())

	if err := svc.Ensure(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected tag index error to abort, got %v", err)
	}
}

func TestEnsureSearchIndexFailuresDegrade(t *testing.T) {
	store := newFakeIndexStore()
	store.createErr[domain.TextIndexName] = errors.New("no FT module")
	store.createErr[domain.VectorIndexName] = errors.New("no FT module")
	svc := NewService(store, &fakeCatalog{}, &fakeEmbedder{}, testConfig(), zap.NewNop())

	if err := svc.Ensure(context.Background()); err != nil {
		t.Fatalf("text/vector index failures must not abort, got %v", err)
	}
}

func TestEnsureTreatsCreationRaceAsSuccess(t *testing.T) {
	store := newFakeIndexStore()
	store.createErr[domain.TagIndexName] = db.ErrIndexExists
	svc := NewService(store, &fakeCatalog{}, &fakeEmbedder{}, testConfig(), zap.NewNop())

	if err := svc.Ensure(context.Background()); err != nil {
		t.Fatalf("ErrIndexExists must be treated as success, got %v", err)
	}
}

func TestSeedPopulatesEmptyCatalog(t *testing.T) {
	cat := &fakeCatalog{}
	emb := &fakeEmbedder{}
	svc := NewService(newFakeIndexStore(), cat, emb, testConfig(), zap.NewNop())

	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cat.inserted) == 0 {
		t.Fatal("expected products inserted")
	}
	if emb.calls != len(cat.inserted) {
		t.Errorf("embed calls = %d, want one per product (%d)", emb.calls, len(cat.inserted))
	}

	var foundRedShoes bool
	for _, p := range cat.inserted {
		if len(p.Embedding) == 0 {
			t.Errorf("product %s seeded without embedding", p.ID)
		}
		if p.Title == "Red Shoes" && p.Category == "Footwear" {
			foundRedShoes = true
		}
	}
	if !foundRedShoes {
		t.Error("seed catalog must include the Red Shoes footwear product")
	}
}

func TestSeedSkipsNonEmptyCatalog(t *testing.T) {
	cat := &fakeCatalog{count: 5}
	emb := &fakeEmbedder{}
	svc := NewService(newFakeIndexStore(), cat, emb, testConfig(), zap.NewNop())

	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.inserted) != 0 || emb.calls != 0 {
		t.Error("seeding must be skipped when the catalog has documents")
	}
}

func TestSeedFallsBackToZeroVector(t *testing.T) {
	cat := &fakeCatalog{}
	emb := &fakeEmbedder{err: domain.ErrModelProviderError}
	svc := NewService(newFakeIndexStore(), cat, emb, testConfig(), zap.NewNop())

	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("embedding failure must not fail seeding: %v", err)
	}

	for _, p := range cat.inserted {
		if len(p.Embedding) != 3 {
			t.Fatalf("product %s: embedding len %d, want zero vector of dim 3", p.ID, len(p.Embedding))
		}
		for _, v := range p.Embedding {
			if v != 0 {
				t.Fatalf("product %s: expected zero vector, got %v", p.ID, p.Embedding)
			}
		}
	}
}

func TestSeedInsertErrorPropagates(t *testing.T) {
	wantErr := errors.New("write failed")
	cat := &fakeCatalog{insertErr: wantErr}
	svc := NewService(newFakeIndexStore(), cat, &fakeEmbedder{}, testConfig(), zap.NewNop())

	if err := svc.Seed(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected insert error, got %v", err)
	}
}
