package result

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/prepsetu/prepsetu-backend/internal/question"
	"github.com/prepsetu/prepsetu-backend/internal/session"
)

// XP awards. Correct answers earn marks-style XP; finishing a session earns
// a flat bonus so short sessions still move the leaderboard.
const (
	XPPerCorrect   = 4
	XPSessionBonus = 10
)

// SQLStore persists answer events and session results and maintains user XP.
// It implements session.Reporter.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// ReportAnswer appends one answer event and credits XP for a correct pick.
func (s *SQLStore) ReportAnswer(ctx context.Context, userID string, questionID int64, selected question.OptionTag, correct bool, timeTakenSec int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answer_events (user_id,question_id,selected_option,is_correct,time_taken_sec,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		userID, questionID, string(selected), correct, timeTakenSec, time.Now().Unix())
	if err != nil {
		return err
	}
	if correct {
		return s.addXP(ctx, userID, XPPerCorrect)
	}
	return nil
}

// ReportSessionResult stores the scorecard row and credits the session bonus.
func (s *SQLStore) ReportSessionResult(ctx context.Context, sub session.ResultSubmission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO test_results (id,user_id,subject,test_type,total_questions,correct,wrong,skipped,time_taken_sec,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		uuid.NewString(), sub.UserID, sub.Subject, sub.TestType,
		sub.TotalQuestions, sub.Correct, sub.Wrong, sub.Skipped,
		sub.TimeTakenSec, sub.Timestamp.Unix())
	if err != nil {
		return err
	}
	return s.addXP(ctx, sub.UserID, XPSessionBonus)
}

func (s *SQLStore) addXP(ctx context.Context, userID string, amount int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET xp = xp + $1 WHERE id=$2`, amount, userID)
	return err
}

// LeaderboardRow is one ranked user.
type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
}

func (s *SQLStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,username,xp FROM users WHERE role='student' ORDER BY xp DESC, username LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.XP); err != nil {
			return nil, err
		}
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// UserStats aggregates a learner's lifetime practice numbers.
type UserStats struct {
	UserID        string  `json:"user_id"`
	XP            int     `json:"xp"`
	TestsTaken    int     `json:"tests_taken"`
	QuestionsSeen int     `json:"questions_seen"`
	Correct       int     `json:"correct"`
	Wrong         int     `json:"wrong"`
	Accuracy      float64 `json:"accuracy"` // correct / answered, 0 when unanswered
}

func (s *SQLStore) Stats(ctx context.Context, userID string) (UserStats, error) {
	st := UserStats{UserID: userID}
	if err := s.db.QueryRowContext(ctx, `SELECT xp FROM users WHERE id=$1`, userID).Scan(&st.XP); err != nil {
		return UserStats{}, err
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_questions),0) FROM test_results WHERE user_id=$1`, userID).
		Scan(&st.TestsTaken, &st.QuestionsSeen)
	if err != nil {
		return UserStats{}, err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END),0),
		        COALESCE(SUM(CASE WHEN is_correct THEN 0 ELSE 1 END),0)
		 FROM answer_events WHERE user_id=$1`, userID).
		Scan(&st.Correct, &st.Wrong)
	if err != nil {
		return UserStats{}, err
	}
	if answered := st.Correct + st.Wrong; answered > 0 {
		st.Accuracy = float64(st.Correct) / float64(answered)
	}
	return st, nil
}

// TestResult is one finished session as stored.
type TestResult struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	TestType       string `json:"test_type"`
	TotalQuestions int    `json:"total_questions"`
	Correct        int    `json:"correct"`
	Wrong          int    `json:"wrong"`
	Skipped        int    `json:"skipped"`
	TimeTakenSec   int    `json:"time_taken_sec"`
	CreatedAt      int64  `json:"created_at"`
}

func (s *SQLStore) ListResults(ctx context.Context, userID string, limit, offset int) ([]TestResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,subject,test_type,total_questions,correct,wrong,skipped,time_taken_sec,created_at
		 FROM test_results WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TestResult
	for rows.Next() {
		var r TestResult
		if err := rows.Scan(&r.ID, &r.Subject, &r.TestType, &r.TotalQuestions,
			&r.Correct, &r.Wrong, &r.Skipped, &r.TimeTakenSec, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
