package session

import (
	"context"
	"log"
	"math/rand"

	"github.com/prepsetu/prepsetu-backend/internal/question"
)

// ChapterSource is the slice of the question store the supplier needs.
type ChapterSource interface {
	FetchForChapter(ctx context.Context, chapterID string, excluded map[int64]struct{}, limit int) ([]question.Question, error)
}

// Supplier pulls question batches evenly across chapters, deduplicated
// against an excluded-id set and shuffled so chapter origin is not
// detectable from position. Read-only: it never mutates excluded.
type Supplier struct {
	src ChapterSource
}

func NewSupplier(src ChapterSource) *Supplier {
	return &Supplier{src: src}
}

// FetchBatch issues one sub-query per chapter asking for up to perChapter
// unseen questions, concatenates the results and shuffles them. A chapter
// whose sub-query fails contributes nothing; the batch proceeds with the
// other chapters. An empty result with a nil error means every chapter is
// cleanly exhausted; an error is returned only when every sub-query failed,
// so the caller can retry later instead of marking the set exhausted.
func (s *Supplier) FetchBatch(ctx context.Context, chapterIDs []string, excluded map[int64]struct{}, perChapter int) ([]question.Question, error) {
	var batch []question.Question
	taken := make(map[int64]struct{})
	failed := 0
	var lastErr error
	for _, ch := range chapterIDs {
		qs, err := s.src.FetchForChapter(ctx, ch, excluded, perChapter)
		if err != nil {
			log.Printf("session: fetch chapter %s failed: %v", ch, err)
			failed++
			lastErr = err
			continue
		}
		for _, q := range qs {
			if _, seen := excluded[q.ID]; seen {
				continue
			}
			if _, dup := taken[q.ID]; dup {
				continue
			}
			taken[q.ID] = struct{}{}
			batch = append(batch, q)
		}
	}
	if failed == len(chapterIDs) && failed > 0 {
		return nil, lastErr
	}
	rand.Shuffle(len(batch), func(i, j int) {
		batch[i], batch[j] = batch[j], batch[i]
	})
	return batch, nil
}

// quantityForRound returns the per-chapter fetch count for a replenishment
// round. The size cycles so small chapter selections still get variety and
// large ones do not over-fetch.
func quantityForRound(round, chapterCount int) int {
	switch round {
	case 1:
		if chapterCount-1 < 1 {
			return 1
		}
		return chapterCount - 1
	case 2:
		return chapterCount
	default:
		return chapterCount + 1
	}
}
