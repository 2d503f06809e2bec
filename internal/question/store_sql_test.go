package question_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prepsetu/prepsetu-backend/internal/db"
	"github.com/prepsetu/prepsetu-backend/internal/question"
)

func openStore(t *testing.T) *question.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })
	return question.NewSQLStore(dbh, "sqlite")
}

func seedChapter(t *testing.T, store *question.SQLStore, chapterID string, n int) []question.Question {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.PutChapter(ctx, question.Chapter{
		ID: chapterID, Subject: "Physics", Name: question.Text{EN: chapterID},
	}))
	qs := make([]question.Question, n)
	for i := range qs {
		qs[i] = question.Question{
			Subject:   "Physics",
			ChapterID: chapterID,
			Prompt:    question.Text{EN: "prompt", HI: "प्रश्न"},
			Options: map[question.OptionTag]question.Text{
				question.OptionA: {EN: "a"}, question.OptionB: {EN: "b"},
				question.OptionC: {EN: "c"}, question.OptionD: {EN: "d"},
			},
			Correct: question.OptionB,
		}
	}
	inserted, err := store.BulkInsert(ctx, qs)
	require.NoError(t, err)
	require.Equal(t, n, inserted)

	got, err := store.FetchForChapter(ctx, chapterID, nil, n)
	require.NoError(t, err)
	require.Len(t, got, n)
	return got
}

func TestFetchForChapterExcludesAndLimits(t *testing.T) {
	store := openStore(t)
	all := seedChapter(t, store, "kinematics", 6)

	excluded := map[int64]struct{}{all[0].ID: {}, all[1].ID: {}}
	got, err := store.FetchForChapter(context.Background(), "kinematics", excluded, 10)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, q := range got {
		require.NotContains(t, excluded, q.ID)
	}

	got, err = store.FetchForChapter(context.Background(), "kinematics", nil, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestFetchForChapterRoundTripsBilingualFields(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutChapter(ctx, question.Chapter{
		ID: "optics", Subject: "Physics", Name: question.Text{EN: "Optics", HI: "प्रकाशिकी"},
	}))
	exp := question.Text{EN: "because", HI: "क्योंकि"}
	_, err := store.BulkInsert(ctx, []question.Question{{
		Subject:   "Physics",
		ChapterID: "optics",
		Prompt:    question.Text{EN: "what", HI: "क्या"},
		Options: map[question.OptionTag]question.Text{
			question.OptionA: {EN: "one", HI: "एक"}, question.OptionB: {EN: "two"},
			question.OptionC: {EN: "three"}, question.OptionD: {EN: "four"},
		},
		Correct:     question.OptionC,
		Explanation: &exp,
		ExamYear:    "2019",
	}})
	require.NoError(t, err)

	got, err := store.FetchForChapter(ctx, "optics", nil, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	q := got[0]
	require.Equal(t, question.Text{EN: "Optics", HI: "प्रकाशिकी"}, q.ChapterName)
	require.Equal(t, "क्या", q.Prompt.HI)
	require.Equal(t, question.Text{EN: "one", HI: "एक"}, q.Options[question.OptionA])
	require.Equal(t, question.OptionC, q.Correct)
	require.NotNil(t, q.Explanation)
	require.Equal(t, exp, *q.Explanation)
	require.Equal(t, "2019", q.ExamYear)
}

func TestBulkInsertRejectsBadCorrectOption(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutChapter(ctx, question.Chapter{
		ID: "waves", Subject: "Physics", Name: question.Text{EN: "Waves"},
	}))
	_, err := store.BulkInsert(ctx, []question.Question{{
		Subject:   "Physics",
		ChapterID: "waves",
		Prompt:    question.Text{EN: "p"},
		Options: map[question.OptionTag]question.Text{
			question.OptionA: {EN: "a"}, question.OptionB: {EN: "b"},
			question.OptionC: {EN: "c"}, question.OptionD: {EN: "d"},
		},
		Correct: "Z",
	}})
	require.Error(t, err)
}

func TestFetchPastYear(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutChapter(ctx, question.Chapter{
		ID: "modern", Subject: "Physics", Name: question.Text{EN: "Modern Physics"},
	}))
	mk := func(year string) question.Question {
		return question.Question{
			Subject:   "Physics",
			ChapterID: "modern",
			Prompt:    question.Text{EN: "p"},
			Options: map[question.OptionTag]question.Text{
				question.OptionA: {EN: "a"}, question.OptionB: {EN: "b"},
				question.OptionC: {EN: "c"}, question.OptionD: {EN: "d"},
			},
			Correct:  question.OptionA,
			ExamYear: year,
		}
	}
	_, err := store.BulkInsert(ctx, []question.Question{mk("2019"), mk("2019"), mk("2020")})
	require.NoError(t, err)

	got, err := store.FetchPastYear(ctx, question.PastYearOpts{Subject: "Physics", Year: "2019"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = store.FetchPastYear(ctx, question.PastYearOpts{Subject: "Physics", Year: "2021"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestListSubjectsAndChapters(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutChapter(ctx, question.Chapter{ID: "kin", Subject: "Physics", Name: question.Text{EN: "Kinematics"}}))
	require.NoError(t, store.PutChapter(ctx, question.Chapter{ID: "org", Subject: "Chemistry", Name: question.Text{EN: "Organic"}}))

	subjects, err := store.ListSubjects(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Chemistry", "Physics"}, subjects)

	chapters, err := store.ListChapters(ctx, "Physics")
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	require.Equal(t, "kin", chapters[0].ID)
}
