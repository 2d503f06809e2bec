package question_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prepsetu/prepsetu-backend/internal/question"
)

const seedYAML = `subject: Physics
chapters:
  - id: kinematics
    name_en: Kinematics
    name_hi: गतिकी
    questions:
      - prompt_en: A body moves with constant velocity. Its acceleration is
        prompt_hi: एक वस्तु नियत वेग से चलती है। उसका त्वरण है
        options:
          A: zero
          B: constant and non-zero
          C: increasing
          D: decreasing
        options_hi:
          A: शून्य
        correct: A
        explanation_en: Constant velocity means zero acceleration.
        exam_year: "2018"
      - prompt_en: SI unit of force
        options:
          A: joule
          B: newton
          C: watt
          D: pascal
        correct: B
`

func TestSeedFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "physics.yaml"), []byte(seedYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	store := openStore(t)
	n, err := question.SeedFromDir(context.Background(), store, dir)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	qs, err := store.FetchForChapter(context.Background(), "kinematics", nil, 10)
	require.NoError(t, err)
	require.Len(t, qs, 2)

	byPrompt := map[string]question.Question{}
	for _, q := range qs {
		byPrompt[q.Prompt.EN] = q
	}
	q := byPrompt["A body moves with constant velocity. Its acceleration is"]
	require.Equal(t, question.OptionA, q.Correct)
	require.Equal(t, "शून्य", q.Options[question.OptionA].HI)
	require.Equal(t, "zero", q.Options[question.OptionA].EN)
	require.NotNil(t, q.Explanation)
	require.Equal(t, "2018", q.ExamYear)
	require.Equal(t, question.Text{EN: "Kinematics", HI: "गतिकी"}, q.ChapterName)
}

func TestSeedRejectsBadCorrectTag(t *testing.T) {
	dir := t.TempDir()
	bad := `subject: Physics
chapters:
  - id: waves
    name_en: Waves
    questions:
      - prompt_en: p
        options: {A: a, B: b, C: c, D: d}
        correct: X
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644))

	_, err := question.SeedFromDir(context.Background(), openStore(t), dir)
	require.Error(t, err)
}

func TestSeedRequiresAllFourOptions(t *testing.T) {
	dir := t.TempDir()
	bad := `subject: Physics
chapters:
  - id: waves
    name_en: Waves
    questions:
      - prompt_en: p
        options: {A: a, B: b}
        correct: A
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644))

	_, err := question.SeedFromDir(context.Background(), openStore(t), dir)
	require.Error(t, err)
}
