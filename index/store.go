package index

import (
	"context"
	"slices"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/redis"
)

// Store is the region index of one database namespace. It is safe for
// concurrent use.
type Store struct {
	client    *redis.Client
	db        string
	manifests *redis.TypedStore[Manifest]
}

// NewStore returns the store for namespace database.
func NewStore(client *redis.Client, database string) *Store {
	return &Store{
		client:    client,
		db:        database,
		manifests: redis.NewTypedStore[Manifest](client, database+":loads", database+":inputs"),
	}
}

// Database returns the namespace name.
func (s *Store) Database() string { return s.db }

func (s *Store) regionKey(chrom string) string { return s.db + ":regions:" + chrom }
func (s *Store) chromKey() string              { return s.db + ":chroms" }

// Add writes features in one round trip and returns how many were new.
func (s *Store) Add(ctx context.Context, features []Feature) (int64, error) {
	if len(features) == 0 {
		return 0, nil
	}
	var cmds []*goredis.IntCmd
	err := s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		byChrom := make(map[string][]goredis.Z)
		for _, f := range features {
			byChrom[f.Chrom] = append(byChrom[f.Chrom], goredis.Z{Score: float64(f.Start), Member: f.member()})
		}
		chroms := make([]interface{}, 0, len(byChrom))
		for chrom, zs := range byChrom {
			cmds = append(cmds, p.ZAdd(ctx, s.regionKey(chrom), zs...))
			chroms = append(chroms, chrom)
		}
		p.SAdd(ctx, s.chromKey(), chroms...)
		return nil
	})
	if err != nil {
		return 0, errors.IndexStore("add", err)
	}
	var added int64
	for _, c := range cmds {
		added += c.Val()
	}
	return added, nil
}

// Query returns every region on chrom overlapping [start, end], ordered by start.
func (s *Store) Query(ctx context.Context, chrom string, start, end int64) ([]Feature, error) {
	members, err := s.client.ZRangeByScore(ctx, s.regionKey(chrom), "-inf", strconv.FormatInt(end, 10))
	if err != nil {
		return nil, errors.IndexStore("query", err)
	}
	out := make([]Feature, 0, len(members))
	for _, m := range members {
		f, err := parseMember(chrom, m)
		if err != nil {
			return nil, errors.IndexStore("query", err)
		}
		if f.Overlaps(start, end) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Chromosomes returns the indexed chromosomes in lexical order.
func (s *Store) Chromosomes(ctx context.Context) ([]string, error) {
	chroms, err := s.client.SMembers(ctx, s.chromKey())
	if err != nil {
		return nil, errors.IndexStore("chromosomes", err)
	}
	slices.Sort(chroms)
	return chroms, nil
}

// Count returns the number of regions in the namespace.
func (s *Store) Count(ctx context.Context) (int64, error) {
	chroms, err := s.Chromosomes(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range chroms {
		n, err := s.client.ZCard(ctx, s.regionKey(c))
		if err != nil {
			return 0, errors.IndexStore("count", err)
		}
		total += n
	}
	return total, nil
}

// Reset deletes every region and manifest of the namespace.
func (s *Store) Reset(ctx context.Context) error {
	chroms, err := s.client.SMembers(ctx, s.chromKey())
	if err != nil {
		return errors.IndexStore("reset", err)
	}
	keys, err := s.manifests.Keys(ctx)
	if err != nil {
		return errors.IndexStore("reset", err)
	}
	keys = append(keys, s.chromKey())
	for _, c := range chroms {
		keys = append(keys, s.regionKey(c))
	}
	if err := s.client.Del(ctx, keys...); err != nil {
		return errors.IndexStore("reset", err)
	}
	return nil
}

// SaveManifest records the outcome of a load.
func (s *Store) SaveManifest(ctx context.Context, m Manifest) error {
	if err := s.manifests.Save(ctx, m.Input, &m, 0); err != nil {
		return errors.IndexStore("save manifest", err)
	}
	return nil
}

// Inputs returns every input with a recorded load, in lexical order.
func (s *Store) Inputs(ctx context.Context) ([]string, error) {
	inputs, err := s.manifests.IDs(ctx)
	if err != nil {
		return nil, errors.IndexStore("inputs", err)
	}
	return inputs, nil
}

// Manifest returns the manifest of the last load of input, or nil.
func (s *Store) Manifest(ctx context.Context, input string) (*Manifest, error) {
	m, err := s.manifests.Load(ctx, input)
	if err != nil {
		return nil, errors.IndexStore("load manifest", err)
	}
	return m, nil
}
