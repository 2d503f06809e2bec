package question

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Seed file layout: one YAML document per subject, chapters with inline
// questions. Used to load a question bank into an empty database.
type seedFile struct {
	Subject  string        `yaml:"subject"`
	Chapters []seedChapter `yaml:"chapters"`
}

type seedChapter struct {
	ID        string         `yaml:"id"`
	NameEN    string         `yaml:"name_en"`
	NameHI    string         `yaml:"name_hi"`
	Questions []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	PromptEN      string            `yaml:"prompt_en"`
	PromptHI      string            `yaml:"prompt_hi"`
	Options       map[string]string `yaml:"options"`    // tag -> english text
	OptionsHI     map[string]string `yaml:"options_hi"` // tag -> hindi text, optional
	Correct       string            `yaml:"correct"`
	ExplanationEN string            `yaml:"explanation_en"`
	ExplanationHI string            `yaml:"explanation_hi"`
	ExamYear      string            `yaml:"exam_year"`
	Type          string            `yaml:"type"`
}

// SeedFromDir loads every *.yaml/*.yml file under dir into the store.
// Returns the number of questions inserted.
func SeedFromDir(ctx context.Context, store Store, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		n, err := seedFromFile(ctx, store, filepath.Join(dir, e.Name()))
		if err != nil {
			return total, fmt.Errorf("seed %s: %w", e.Name(), err)
		}
		total += n
	}
	return total, nil
}

func seedFromFile(ctx context.Context, store Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return 0, err
	}
	if sf.Subject == "" {
		return 0, fmt.Errorf("missing subject")
	}

	total := 0
	for _, ch := range sf.Chapters {
		if ch.ID == "" || ch.NameEN == "" {
			return total, fmt.Errorf("chapter needs id and name_en")
		}
		c := Chapter{ID: ch.ID, Subject: sf.Subject, Name: Text{EN: ch.NameEN, HI: ch.NameHI}}
		if err := store.PutChapter(ctx, c); err != nil {
			return total, err
		}
		qs := make([]Question, 0, len(ch.Questions))
		for i, sq := range ch.Questions {
			q, err := sq.toQuestion(sf.Subject, ch.ID)
			if err != nil {
				return total, fmt.Errorf("chapter %s question %d: %w", ch.ID, i+1, err)
			}
			qs = append(qs, q)
		}
		n, err := store.BulkInsert(ctx, qs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (sq seedQuestion) toQuestion(subject, chapterID string) (Question, error) {
	tag := OptionTag(sq.Correct)
	if !ValidTag(tag) {
		return Question{}, fmt.Errorf("bad correct option %q", sq.Correct)
	}
	opts := map[OptionTag]Text{}
	for _, t := range []OptionTag{OptionA, OptionB, OptionC, OptionD} {
		en, ok := sq.Options[string(t)]
		if !ok || en == "" {
			return Question{}, fmt.Errorf("missing option %s", t)
		}
		opts[t] = Text{EN: en, HI: sq.OptionsHI[string(t)]}
	}
	q := Question{
		Subject:   subject,
		ChapterID: chapterID,
		Prompt:    Text{EN: sq.PromptEN, HI: sq.PromptHI},
		Options:   opts,
		Correct:   tag,
		ExamYear:  sq.ExamYear,
		Type:      sq.Type,
	}
	if q.Prompt.EN == "" {
		return Question{}, fmt.Errorf("missing prompt_en")
	}
	if sq.ExplanationEN != "" || sq.ExplanationHI != "" {
		q.Explanation = &Text{EN: sq.ExplanationEN, HI: sq.ExplanationHI}
	}
	return q, nil
}
