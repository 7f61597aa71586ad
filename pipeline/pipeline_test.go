package pipeline

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestFromSlice_Collect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestFromSlice_Empty(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFrom_Iterator(t *testing.T) {
	iter := FromSlice([]string{"a", "b"}).Iter(context.Background())
	got, err := Collect(context.Background(), From(iter))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("got %v, want [a b]", got)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"some", []int{1, 2, 3, 4, 5, 6}, []int{2, 4, 6}},
		{"none", []int{1, 3, 5}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evens := Filter(FromSlice(tc.in), func(n int) bool { return n%2 == 0 })
			got, err := Collect(context.Background(), evens)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTap(t *testing.T) {
	var tapped []int
	observed := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		tapped = append(tapped, n)
		return nil
	})
	got, err := Collect(context.Background(), observed)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("values should pass through unchanged, got %v", got)
	}
	if !slices.Equal(tapped, []int{1, 2, 3}) {
		t.Errorf("tap should see all values, got %v", tapped)
	}
}

func TestTap_Error(t *testing.T) {
	failing := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		if n == 2 {
			return errors.New("tap failed")
		}
		return nil
	})
	_, err := Collect(context.Background(), failing)
	if err == nil || !strings.Contains(err.Error(), "tap failed") {
		t.Errorf("expected tap error, got %v", err)
	}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		init int
		want int
	}{
		{"sum", []int{1, 2, 3, 4, 5}, 0, 15},
		{"empty yields init", nil, 42, 42},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sum := Reduce(FromSlice(tc.in), tc.init, func(acc, n int) int { return acc + n })
			got, err := Collect(context.Background(), sum)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0] != tc.want {
				t.Errorf("expected [%d], got %v", tc.want, got)
			}
		})
	}
}

func TestBuffer(t *testing.T) {
	got, err := Collect(context.Background(), Buffer(FromSlice([]int{1, 2, 3, 4, 5}), 3))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("buffer must keep order, got %v", got)
	}
}

func TestBuffer_SourceError(t *testing.T) {
	failing := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		if n == 3 {
			return errors.New("read failed")
		}
		return nil
	})
	got, err := Collect(context.Background(), Buffer(failing, 8))
	if err == nil || err.Error() != "read failed" {
		t.Fatalf("expected source error, got %v", err)
	}
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("values before the error must be delivered, got %v", got)
	}
}

func TestBuffer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it := Buffer(FromSlice([]int{1, 2, 3}), 1).Iter(ctx)
	defer it.Close()
	for {
		_, ok, err := it.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
			return
		}
		if !ok {
			// The producer may close the channel before Next sees ctx.Done.
			return
		}
	}
}

func TestParallel(t *testing.T) {
	doubled := Parallel(FromSlice([]int{1, 2, 3, 4, 5}), 3, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), doubled)
	if err != nil {
		t.Fatal(err)
	}
	sort.Ints(got)
	if !slices.Equal(got, []int{2, 4, 6, 8, 10}) {
		t.Errorf("got %v", got)
	}
}

func TestParallel_Error(t *testing.T) {
	failing := Parallel(FromSlice([]int{1, 2, 3, 4, 5}), 2, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("worker failed")
		}
		return n, nil
	})
	if _, err := Collect(context.Background(), failing); err == nil {
		t.Fatal("expected error from parallel worker")
	}
}

func TestParallel_StopsAtFirstError(t *testing.T) {
	var calls atomic.Int64
	failing := Parallel(FromSlice(make([]int, 100)), 2, func(ctx context.Context, _ int) (int, error) {
		if calls.Add(1) == 3 {
			return 0, errors.New("store unavailable")
		}
		time.Sleep(time.Millisecond)
		return 1, nil
	})

	it := failing.Iter(context.Background())
	defer it.Close()
	var err error
	for {
		_, ok, nerr := it.Next(context.Background())
		if nerr != nil {
			err = nerr
			break
		}
		if !ok {
			break
		}
	}
	if err == nil || err.Error() != "store unavailable" {
		t.Fatalf("expected the worker error, got %v", err)
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("expected exhaustion after the error, got ok=%v err=%v", ok, err)
	}
	if n := calls.Load(); n > 10 {
		t.Errorf("workers kept running after the error: %d calls", n)
	}
}

func TestParallel_SourceError(t *testing.T) {
	failing := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		if n == 2 {
			return errors.New("parse failed")
		}
		return nil
	})
	_, err := Collect(context.Background(), Parallel(failing, 2, func(_ context.Context, n int) (int, error) {
		return n, nil
	}))
	if err == nil || err.Error() != "parse failed" {
		t.Fatalf("expected the source error, got %v", err)
	}
}

func TestTap_StopsAfterError(t *testing.T) {
	var seen []int
	it := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		seen = append(seen, n)
		if n == 1 {
			return errors.New("bad record")
		}
		return nil
	}).Iter(context.Background())
	defer it.Close()

	if _, _, err := it.Next(context.Background()); err == nil {
		t.Fatal("expected the tap error")
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("expected exhaustion after the error, got ok=%v err=%v", ok, err)
	}
	if !slices.Equal(seen, []int{1}) {
		t.Errorf("values after the error must not be pulled, saw %v", seen)
	}
}

func TestChunk_BySize(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		size int
		want [][]int
	}{
		{"partial tail", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"exact multiple", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"size one", []int{1, 2}, 1, [][]int{{1}, {2}}},
		{"zero size and timeout", []int{7, 8}, 0, [][]int{{7}, {8}}},
		{"empty", nil, 3, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Collect(context.Background(), Chunk(FromSlice(tc.in), tc.size, 0))
			if err != nil {
				t.Fatal(err)
			}
			if !slices.EqualFunc(got, tc.want, slices.Equal[[]int]) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestChunk_ErrorAfterPartial(t *testing.T) {
	failing := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		if n == 3 {
			return errors.New("parse failed")
		}
		return nil
	})
	it := Chunk(failing, 5, 0).Iter(context.Background())
	defer it.Close()

	first, ok, err := it.Next(context.Background())
	if err != nil || !ok || !slices.Equal(first, []int{1, 2}) {
		t.Fatalf("expected partial chunk [1 2], got %v ok=%v err=%v", first, ok, err)
	}
	if _, ok, err := it.Next(context.Background()); ok || err == nil {
		t.Fatalf("expected the pending error, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("expected exhaustion after the error, got ok=%v err=%v", ok, err)
	}
}

// slowIter yields n values, sleeping between them.
type slowIter struct {
	n, i  int
	delay time.Duration
}

func (s *slowIter) Next(ctx context.Context) (int, bool, error) {
	if s.i >= s.n {
		return 0, false, nil
	}
	if s.i > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}
	s.i++
	return s.i, true, nil
}

func (s *slowIter) Close() error { return nil }

func TestChunk_Timeout(t *testing.T) {
	src := From[int](&slowIter{n: 3, delay: 30 * time.Millisecond})
	got, err := Collect(context.Background(), Chunk(src, 100, 10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, c := range got {
		total += len(c)
	}
	if total != 3 || len(got) < 2 {
		t.Errorf("expected the timeout to split 3 values into several chunks, got %v", got)
	}
}

func TestSequenced(t *testing.T) {
	got, err := Collect(context.Background(), Sequenced(FromSlice([]string{"a", "b", "c"})))
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range got {
		if b.Seq != int64(i) {
			t.Errorf("batch %d has seq %d", i, b.Seq)
		}
	}
	if len(got) != 3 || got[2].Data != "c" {
		t.Errorf("unexpected batches %+v", got)
	}
}

func TestIter(t *testing.T) {
	ctx := context.Background()
	iter := FromSlice([]int{1, 2}).Iter(ctx)
	defer iter.Close()

	for want := 1; want <= 2; want++ {
		v, ok, err := iter.Next(ctx)
		if err != nil || !ok || v != want {
			t.Errorf("Next: val=%d ok=%v err=%v, want %d", v, ok, err, want)
		}
	}
	if _, ok, err := iter.Next(ctx); err != nil || ok {
		t.Errorf("expected exhaustion: ok=%v err=%v", ok, err)
	}
}

func TestChained_Pipeline(t *testing.T) {
	// source -> filter -> tap -> chunk -> parallel -> reduce, as the index loader wires it
	var tapped int
	evens := Filter(FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), func(n int) bool { return n%2 == 0 })
	observed := Tap(evens, func(context.Context, int) error {
		tapped++
		return nil
	})
	sums := Parallel(Chunk(Buffer(observed, 4), 2, 0), 3, func(_ context.Context, c []int) (int, error) {
		s := 0
		for _, n := range c {
			s += n
		}
		return s, nil
	})
	total := Reduce(sums, 0, func(acc, n int) int { return acc + n })

	got, err := Collect(context.Background(), total)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 30 {
		t.Errorf("expected [30], got %v", got)
	}
	if tapped != 5 {
		t.Errorf("tapped %d values, want 5", tapped)
	}
}
