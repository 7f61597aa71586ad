package index

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/redis"
)

func newTestStore(t *testing.T, database string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, nil)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewStore(client, database), mini
}

func TestStore_AddAndQuery(t *testing.T) {
	store, mini := newTestStore(t, "genes")
	ctx := context.Background()

	added, err := store.Add(ctx, []Feature{
		{Chrom: "chr1", Start: 100, End: 200, Kind: "gene", Name: "A"},
		{Chrom: "chr1", Start: 150, End: 160, Kind: "exon", Name: "A.1"},
		{Chrom: "chr1", Start: 500, End: 900, Kind: "gene", Name: "B"},
		{Chrom: "chr2", Start: 1, End: 10, Kind: "gene", Name: "C"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added != 4 {
		t.Errorf("expected 4 added, got %d", added)
	}

	again, err := store.Add(ctx, []Feature{{Chrom: "chr1", Start: 100, End: 200, Kind: "gene", Name: "A"}})
	if err != nil || again != 0 {
		t.Errorf("expected duplicate to add nothing, got %d, %v", again, err)
	}

	if !mini.Exists("genes:regions:chr1") || !mini.Exists("genes:chroms") {
		t.Fatalf("expected namespaced keys, have %v", mini.Keys())
	}

	tests := []struct {
		chrom      string
		start, end int64
		want       []string
	}{
		{"chr1", 155, 155, []string{"A", "A.1"}},
		{"chr1", 190, 600, []string{"A", "B"}},
		{"chr1", 201, 499, nil},
		{"chr2", 1, 1, []string{"C"}},
		{"chr3", 1, 100, nil},
	}
	for _, tc := range tests {
		got, err := store.Query(ctx, tc.chrom, tc.start, tc.end)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		var names []string
		for _, f := range got {
			names = append(names, f.Name)
		}
		if len(names) != len(tc.want) {
			t.Errorf("Query(%s:%d-%d) = %v, want %v", tc.chrom, tc.start, tc.end, names, tc.want)
			continue
		}
		for i := range names {
			if names[i] != tc.want[i] {
				t.Errorf("Query(%s:%d-%d) = %v, want %v", tc.chrom, tc.start, tc.end, names, tc.want)
				break
			}
		}
	}

	chroms, err := store.Chromosomes(ctx)
	if err != nil || len(chroms) != 2 || chroms[0] != "chr1" {
		t.Errorf("unexpected chromosomes %v, %v", chroms, err)
	}
	if n, err := store.Count(ctx); err != nil || n != 4 {
		t.Errorf("expected 4 regions, got %d, %v", n, err)
	}
}

func TestStore_ResetAndManifest(t *testing.T) {
	store, mini := newTestStore(t, "ns")
	ctx := context.Background()

	store.Add(ctx, []Feature{{Chrom: "chr1", Start: 1, End: 2, Kind: "region"}})
	if err := store.SaveManifest(ctx, Manifest{Input: "a.bed", Format: FormatBED, Added: 1}); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	if err := store.SaveManifest(ctx, Manifest{Input: "b.gff", Format: FormatGFF, LoadType: LoadAppend, RunID: "r2"}); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	m, err := store.Manifest(ctx, "a.bed")
	if err != nil || m == nil || m.Added != 1 || m.Format != FormatBED {
		t.Fatalf("unexpected manifest %+v, %v", m, err)
	}
	if m, _ := store.Manifest(ctx, "b.gff"); m == nil || m.RunID != "r2" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if m, err := store.Manifest(ctx, "never.bed"); err != nil || m != nil {
		t.Fatalf("expected no manifest for an unknown input, got %+v, %v", m, err)
	}
	for _, key := range []string{"ns:loads:a.bed", "ns:loads:b.gff"} {
		if !mini.Exists(key) {
			t.Errorf("expected manifest key %s", key)
		}
	}
	if inputs, err := store.Inputs(ctx); err != nil || len(inputs) != 2 || inputs[0] != "a.bed" || inputs[1] != "b.gff" {
		t.Fatalf("unexpected inputs %v, %v", inputs, err)
	}

	// Other namespaces are untouched by a reset.
	mini.Set("other:regions:chr1", "x")

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("expected empty namespace, got %d", n)
	}
	if m, _ := store.Manifest(ctx, "a.bed"); m != nil {
		t.Errorf("expected manifest removed, got %+v", m)
	}
	for _, key := range []string{"ns:loads:a.bed", "ns:loads:b.gff", "ns:inputs", "ns:chroms", "ns:regions:chr1"} {
		if mini.Exists(key) {
			t.Errorf("reset left %s behind", key)
		}
	}
	if !mini.Exists("other:regions:chr1") {
		t.Error("reset removed another namespace")
	}
}

func TestStore_Unavailable(t *testing.T) {
	store, mini := newTestStore(t, "ns")
	mini.Close()

	_, err := store.Add(context.Background(), []Feature{{Chrom: "chr1", Start: 1, End: 1}})
	if !errors.IsCode(err, errors.ErrCodeIndexStore) {
		t.Fatalf("expected INDEX_STORE, got %v", err)
	}
	if _, err := store.Query(context.Background(), "chr1", 1, 2); !errors.IsCode(err, errors.ErrCodeIndexStore) {
		t.Fatalf("expected INDEX_STORE, got %v", err)
	}
}
