package question

import "context"

// PastYearOpts filters a past-year paper fetch.
type PastYearOpts struct {
	Subject string
	Year    string
	Type    string // objective|subjective; empty = objective
}

type Store interface {
	// FetchForChapter returns up to limit questions from one chapter whose ids
	// are not in excluded, in random order. A short chapter yields fewer rows,
	// never an error.
	FetchForChapter(ctx context.Context, chapterID string, excluded map[int64]struct{}, limit int) ([]Question, error)

	// FetchPastYear returns the fixed question set for one past-year paper.
	FetchPastYear(ctx context.Context, opts PastYearOpts) ([]Question, error)

	ListSubjects(ctx context.Context) ([]string, error)
	ListChapters(ctx context.Context, subject string) ([]Chapter, error)

	PutChapter(ctx context.Context, c Chapter) error
	// BulkInsert stores questions and returns the count inserted.
	BulkInsert(ctx context.Context, qs []Question) (int, error)
}
