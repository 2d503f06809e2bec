package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prepsetu/prepsetu-backend/internal/question"
)

/* ---------------- in-memory fake that satisfies ChapterSource ---------------- */

type fetchCall struct {
	Chapter string
	Limit   int
}

type fakeSource struct {
	mu    sync.Mutex
	pools map[string][]question.Question
	errs  map[string]error
	calls []fetchCall

	// when set, every FetchForChapter blocks until the channel is closed
	block chan struct{}

	// how many times each id was handed out; >1 means a batch failed to
	// exclude an already seen question
	handedOut map[int64]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pools:     map[string][]question.Question{},
		errs:      map[string]error{},
		handedOut: map[int64]int{},
	}
}

// addChapter fills a chapter with n questions whose ids start at base.
func (f *fakeSource) addChapter(chapter string, base int64, n int) {
	for i := 0; i < n; i++ {
		f.pools[chapter] = append(f.pools[chapter], question.Question{
			ID:        base + int64(i),
			Subject:   "Physics",
			ChapterID: chapter,
			Prompt:    question.Text{EN: fmt.Sprintf("q%d", base+int64(i))},
			Options: map[question.OptionTag]question.Text{
				question.OptionA: {EN: "a"}, question.OptionB: {EN: "b"},
				question.OptionC: {EN: "c"}, question.OptionD: {EN: "d"},
			},
			Correct: question.OptionA,
		})
	}
}

func (f *fakeSource) FetchForChapter(ctx context.Context, chapter string, excluded map[int64]struct{}, limit int) ([]question.Question, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{Chapter: chapter, Limit: limit})
	if err := f.errs[chapter]; err != nil {
		return nil, err
	}
	var out []question.Question
	for _, q := range f.pools[chapter] {
		if _, ok := excluded[q.ID]; ok {
			continue
		}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	for _, q := range out {
		f.handedOut[q.ID]++
	}
	return out, nil
}

// maxHandouts returns the highest number of times any single id was served.
func (f *fakeSource) maxHandouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, n := range f.handedOut {
		if n > max {
			max = n
		}
	}
	return max
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) limits() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Limit
	}
	return out
}

/* ---------------- tests ---------------- */

func TestFetchBatchPullsEvenlyAndDeduplicates(t *testing.T) {
	src := newFakeSource()
	src.addChapter("kin", 100, 10)
	src.addChapter("opt", 200, 10)
	src.addChapter("mod", 300, 10)
	sup := NewSupplier(src)

	excluded := map[int64]struct{}{100: {}, 200: {}}
	batch, err := sup.FetchBatch(context.Background(), []string{"kin", "opt", "mod"}, excluded, 4)
	require.NoError(t, err)
	require.Len(t, batch, 12)

	seen := map[int64]struct{}{}
	for _, q := range batch {
		require.NotContains(t, excluded, q.ID, "excluded id returned")
		require.NotContains(t, seen, q.ID, "duplicate id in batch")
		seen[q.ID] = struct{}{}
	}
	// excluded set untouched
	require.Len(t, excluded, 2)
}

func TestFetchBatchShortChapterYieldsFewerRows(t *testing.T) {
	src := newFakeSource()
	src.addChapter("kin", 100, 2)
	src.addChapter("opt", 200, 10)
	sup := NewSupplier(src)

	batch, err := sup.FetchBatch(context.Background(), []string{"kin", "opt"}, nil, 5)
	require.NoError(t, err)
	require.Len(t, batch, 7)
}

func TestFetchBatchToleratesPartialFailure(t *testing.T) {
	src := newFakeSource()
	src.addChapter("kin", 100, 5)
	src.addChapter("opt", 200, 5)
	src.errs["opt"] = errors.New("connection reset")
	sup := NewSupplier(src)

	batch, err := sup.FetchBatch(context.Background(), []string{"kin", "opt"}, nil, 3)
	require.NoError(t, err)
	require.Len(t, batch, 3)
}

func TestFetchBatchTotalFailureReturnsError(t *testing.T) {
	src := newFakeSource()
	src.errs["kin"] = errors.New("down")
	src.errs["opt"] = errors.New("down")
	sup := NewSupplier(src)

	_, err := sup.FetchBatch(context.Background(), []string{"kin", "opt"}, nil, 3)
	require.Error(t, err)
}

func TestFetchBatchEmptyMeansExhausted(t *testing.T) {
	src := newFakeSource()
	src.addChapter("kin", 100, 1)
	sup := NewSupplier(src)

	excluded := map[int64]struct{}{100: {}}
	batch, err := sup.FetchBatch(context.Background(), []string{"kin"}, excluded, 3)
	require.NoError(t, err)
	require.Empty(t, batch)
}

func TestQuantityForRound(t *testing.T) {
	cases := []struct {
		round, chapters, want int
	}{
		{1, 3, 2},
		{2, 3, 3},
		{3, 3, 4},
		{1, 2, 1},
		{1, 1, 1}, // never below one
		{2, 5, 5},
		{3, 5, 6},
	}
	for _, tc := range cases {
		got := quantityForRound(tc.round, tc.chapters)
		require.Equal(t, tc.want, got, "round %d chapters %d", tc.round, tc.chapters)
	}
}
