package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) FetchForChapter(ctx context.Context, chapterID string, excluded map[int64]struct{}, limit int) ([]Question, error) {
	if limit <= 0 {
		return nil, nil
	}
	args := []any{chapterID}
	where := `q.chapter_id=$1`
	if len(excluded) > 0 {
		ph := make([]string, 0, len(excluded))
		for id := range excluded {
			args = append(args, id)
			ph = append(ph, fmt.Sprintf("$%d", len(args)))
		}
		where += ` AND q.id NOT IN (` + strings.Join(ph, ",") + `)`
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT q.id,q.subject,q.chapter_id,c.name_en,c.name_hi,
		q.prompt_en,q.prompt_hi,q.options_json,q.correct_option,
		q.explanation_en,q.explanation_hi,q.exam_year,q.qtype
		FROM questions q JOIN chapters c ON c.id=q.chapter_id
		WHERE %s ORDER BY RANDOM() LIMIT $%d`, where, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *SQLStore) FetchPastYear(ctx context.Context, opts PastYearOpts) ([]Question, error) {
	qtype := opts.Type
	if qtype == "" {
		qtype = "objective"
	}
	rows, err := s.db.QueryContext(ctx, `SELECT q.id,q.subject,q.chapter_id,c.name_en,c.name_hi,
		q.prompt_en,q.prompt_hi,q.options_json,q.correct_option,
		q.explanation_en,q.explanation_hi,q.exam_year,q.qtype
		FROM questions q JOIN chapters c ON c.id=q.chapter_id
		WHERE q.subject=$1 AND q.exam_year=$2 AND q.qtype=$3 ORDER BY q.id`,
		opts.Subject, opts.Year, qtype)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *SQLStore) ListSubjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT subject FROM chapters ORDER BY subject`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListChapters(ctx context.Context, subject string) ([]Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,subject,name_en,name_hi FROM chapters WHERE subject=$1 ORDER BY name_en`, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Chapter
	for rows.Next() {
		var c Chapter
		if err := rows.Scan(&c.ID, &c.Subject, &c.Name.EN, &c.Name.HI); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutChapter(ctx context.Context, c Chapter) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO chapters (id,subject,name_en,name_hi)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET subject=EXCLUDED.subject, name_en=EXCLUDED.name_en, name_hi=EXCLUDED.name_hi`,
		c.ID, c.Subject, c.Name.EN, c.Name.HI)
	return err
}

func (s *SQLStore) BulkInsert(ctx context.Context, qs []Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, q := range qs {
		if !ValidTag(q.Correct) {
			return n, fmt.Errorf("question %q: bad correct option %q", q.Prompt.EN, q.Correct)
		}
		oj, err := json.Marshal(q.Options)
		if err != nil {
			return n, err
		}
		var expEN, expHI string
		if q.Explanation != nil {
			expEN, expHI = q.Explanation.EN, q.Explanation.HI
		}
		qtype := q.Type
		if qtype == "" {
			qtype = "objective"
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO questions
			(subject,chapter_id,prompt_en,prompt_hi,options_json,correct_option,
			 explanation_en,explanation_hi,exam_year,qtype,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			q.Subject, q.ChapterID, q.Prompt.EN, q.Prompt.HI, string(oj), string(q.Correct),
			expEN, expHI, q.ExamYear, qtype, time.Now().Unix())
		if err != nil {
			return n, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, err
	}
	return n, nil
}

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	var out []Question
	for rows.Next() {
		var q Question
		var oj, expEN, expHI string
		if err := rows.Scan(&q.ID, &q.Subject, &q.ChapterID, &q.ChapterName.EN, &q.ChapterName.HI,
			&q.Prompt.EN, &q.Prompt.HI, &oj, &q.Correct,
			&expEN, &expHI, &q.ExamYear, &q.Type); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			return nil, fmt.Errorf("question %d: bad options json: %w", q.ID, err)
		}
		if expEN != "" || expHI != "" {
			q.Explanation = &Text{EN: expEN, HI: expHI}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
