package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/prepsetu/prepsetu-backend/internal/question"
)

type Mode string

const (
	ModeInfinity Mode = "infinity"
	ModePastYear Mode = "pyq"
)

type State string

const (
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateFinished State = "finished"
)

var (
	ErrNotActive    = errors.New("session is not active")
	ErrReplenishing = errors.New("more questions are loading, please wait")
	ErrBadOption    = errors.New("invalid option")
	ErrExited       = errors.New("session was exited without finishing")
)

// AnswerRecord is written the moment the learner picks an option and is
// immutable afterward: the first answer is final.
type AnswerRecord struct {
	Selected     question.OptionTag `json:"selected"`
	Correct      bool               `json:"correct"`
	TimeTakenSec int                `json:"time_taken_sec"`
}

// Scorecard is the terminal snapshot of one session.
type Scorecard struct {
	TestType       string `json:"test_type"`
	Subject        string `json:"subject"`
	TotalQuestions int    `json:"total_questions"`
	Correct        int    `json:"correct"`
	Wrong          int    `json:"wrong"`
	Skipped        int    `json:"skipped"`
	Visited        int    `json:"visited"`
	NotVisited     int    `json:"not_visited"`
	NotAnswered    int    `json:"not_answered"` // visited but left blank
	TimeTakenSec   int    `json:"time_taken_sec"`
}

// ResultSubmission is what gets reported once per Finish.
type ResultSubmission struct {
	UserID         string
	Subject        string
	TestType       string
	TotalQuestions int
	Correct        int
	Wrong          int
	Skipped        int
	TimeTakenSec   int
	Timestamp      time.Time
}

// Reporter receives per-answer and per-session results. Failures are logged
// and never block the learner's local progress.
type Reporter interface {
	ReportAnswer(ctx context.Context, userID string, questionID int64, selected question.OptionTag, correct bool, timeTakenSec int) error
	ReportSessionResult(ctx context.Context, sub ResultSubmission) error
}

// Config describes one practice session.
type Config struct {
	UserID     string
	Subject    string
	Mode       Mode
	ChapterIDs []string // infinity mode; the HTTP caller enforces the 2-chapter minimum
	Supplier   *Supplier
	Reporter   Reporter
	Now        func() time.Time
}

// Controller owns the state of one live practice session: the growing
// question list, cursor, answer and visit state, seen-id set and the
// replenishment round cycle. All exported methods are safe for concurrent
// use; the replenishment goroutine is the only background writer.
type Controller struct {
	mu sync.Mutex

	userID     string
	subject    string
	mode       Mode
	chapterIDs []string
	supplier   *Supplier
	reporter   Reporter
	now        func() time.Time

	state        State
	exitConfirm  bool
	questions    []question.Question
	currentIndex int
	answers      map[int64]AnswerRecord
	visited      map[int]struct{}
	seen         map[int64]struct{}
	round        int // 1..3, advances once per successful non-empty fetch
	inFlight     bool
	exhausted    bool
	correct      int
	wrong        int
	startedAt    time.Time
	shownAt      time.Time
	scorecard    *Scorecard
	exited       bool
}

func newController(cfg Config) *Controller {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		userID:     cfg.UserID,
		subject:    cfg.Subject,
		mode:       cfg.Mode,
		chapterIDs: cfg.ChapterIDs,
		supplier:   cfg.Supplier,
		reporter:   cfg.Reporter,
		now:        now,
		state:      StateLoading,
		answers:    map[int64]AnswerRecord{},
		visited:    map[int]struct{}{},
		seen:       map[int64]struct{}{},
		round:      1,
	}
}

// StartInfinity creates a session that streams questions from the selected
// chapters until they run dry. The initial fetch uses round 1's quantity;
// an empty or failed initial fetch is terminal.
func StartInfinity(ctx context.Context, cfg Config) (*Controller, error) {
	cfg.Mode = ModeInfinity
	c := newController(cfg)
	if len(c.chapterIDs) == 0 {
		c.state = StateFinished
		return nil, errors.New("no chapters selected")
	}
	batch, err := c.supplier.FetchBatch(ctx, c.chapterIDs, c.seen, quantityForRound(1, len(c.chapterIDs)))
	if err != nil {
		c.state = StateFinished
		return nil, err
	}
	if len(batch) == 0 {
		c.state = StateFinished
		return nil, errors.New("no questions available for the selected chapters")
	}
	c.appendBatchLocked(batch)
	c.round = 2
	c.activate()
	c.mu.Lock()
	c.maybeReplenishLocked()
	c.mu.Unlock()
	return c, nil
}

// StartFixed creates a fixed-length session (past-year papers): the question
// list is final from the start and no replenishment loop applies.
func StartFixed(cfg Config, qs []question.Question) (*Controller, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModePastYear
	}
	c := newController(cfg)
	if len(qs) == 0 {
		c.state = StateFinished
		return nil, errors.New("no questions in paper")
	}
	c.appendBatchLocked(qs)
	c.exhausted = true
	c.activate()
	return c, nil
}

func (c *Controller) activate() {
	c.state = StateActive
	c.startedAt = c.now()
	c.shownAt = c.startedAt
	c.visited[0] = struct{}{}
}

// appendBatchLocked assumes either exclusive setup-time access or c.mu held.
func (c *Controller) appendBatchLocked(batch []question.Question) {
	for _, q := range batch {
		if _, dup := c.seen[q.ID]; dup {
			continue
		}
		c.seen[q.ID] = struct{}{}
		c.questions = append(c.questions, q)
	}
}

// Snapshot is the client-facing view of the session. The current question is
// served answer-key-stripped until it has been answered.
type Snapshot struct {
	State         State             `json:"state"`
	ExitConfirm   bool              `json:"exit_confirm"`
	CurrentIndex  int               `json:"current_index"`
	Loaded        int               `json:"loaded"`
	Exhausted     bool              `json:"exhausted"`
	Replenishing  bool              `json:"replenishing"`
	AtFinalScreen bool              `json:"at_final_screen"` // Next shows as Finish
	Question      question.Question `json:"question"`
	Answer        *AnswerRecord     `json:"answer,omitempty"`
	AnsweredCount int               `json:"answered_count"`
	ElapsedSec    int               `json:"elapsed_sec"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:         c.state,
		ExitConfirm:   c.exitConfirm,
		CurrentIndex:  c.currentIndex,
		Loaded:        len(c.questions),
		Exhausted:     c.exhausted,
		Replenishing:  c.inFlight,
		AnsweredCount: len(c.answers),
	}
	if c.state == StateActive {
		s.ElapsedSec = int(c.now().Sub(c.startedAt).Seconds())
	}
	if len(c.questions) > 0 && c.currentIndex < len(c.questions) {
		q := c.questions[c.currentIndex]
		if rec, ok := c.answers[q.ID]; ok {
			s.Question = q
			s.Answer = &rec
		} else {
			s.Question = q.Public()
		}
	}
	s.AtFinalScreen = c.exhausted && c.currentIndex == len(c.questions)-1
	return s
}

// Answer records the learner's pick for the current question. The first
// answer wins: a second selection on the same question is a no-op that
// returns the existing record. The full question (with answer key and
// explanation) is returned so the caller can reveal the solution.
func (c *Controller) Answer(tag question.OptionTag) (AnswerRecord, question.Question, error) {
	if !question.ValidTag(tag) {
		return AnswerRecord{}, question.Question{}, ErrBadOption
	}
	c.mu.Lock()
	if c.state != StateActive || c.exitConfirm {
		c.mu.Unlock()
		return AnswerRecord{}, question.Question{}, ErrNotActive
	}
	q := c.questions[c.currentIndex]
	if rec, ok := c.answers[q.ID]; ok {
		c.mu.Unlock()
		return rec, q, nil
	}
	rec := AnswerRecord{
		Selected:     tag,
		Correct:      tag == q.Correct,
		TimeTakenSec: int(c.now().Sub(c.shownAt).Seconds()),
	}
	c.answers[q.ID] = rec
	if rec.Correct {
		c.correct++
	} else {
		c.wrong++
	}
	c.maybeReplenishLocked()
	c.mu.Unlock()

	// Fire and forget: a failed report never blocks or reverses local state.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.reporter.ReportAnswer(ctx, c.userID, q.ID, rec.Selected, rec.Correct, rec.TimeTakenSec); err != nil {
			log.Printf("session: report answer for question %d: %v", q.ID, err)
		}
	}()
	return rec, q, nil
}

// Next advances the cursor. At the last loaded question it either finishes
// the session (question set exhausted, or fixed-length mode) or rejects with
// ErrReplenishing while a background fetch is still outstanding.
func (c *Controller) Next(ctx context.Context) (finished bool, err error) {
	c.mu.Lock()
	if c.state != StateActive || c.exitConfirm {
		c.mu.Unlock()
		return false, ErrNotActive
	}
	if c.currentIndex < len(c.questions)-1 {
		c.currentIndex++
		c.visited[c.currentIndex] = struct{}{}
		c.shownAt = c.now()
		c.maybeReplenishLocked()
		c.mu.Unlock()
		return false, nil
	}
	if c.exhausted {
		c.mu.Unlock()
		_, err := c.Finish(ctx)
		return true, err
	}
	c.maybeReplenishLocked()
	c.mu.Unlock()
	return false, ErrReplenishing
}

// Prev moves the cursor back one question. Visit state is untouched: the
// index was marked when first reached going forward.
func (c *Controller) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || c.exitConfirm {
		return ErrNotActive
	}
	if c.currentIndex > 0 {
		c.currentIndex--
		c.shownAt = c.now()
	}
	return nil
}

// Jump moves the cursor to an arbitrary loaded index, clamped into range.
func (c *Controller) Jump(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || c.exitConfirm {
		return ErrNotActive
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.questions)-1 {
		index = len(c.questions) - 1
	}
	c.currentIndex = index
	c.visited[index] = struct{}{}
	c.shownAt = c.now()
	c.maybeReplenishLocked()
	return nil
}

// HandleBack is the explicit back-navigation signal: from Active it raises
// the exit-confirmation overlay without touching any counters.
func (c *Controller) HandleBack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateActive {
		c.exitConfirm = true
	}
}

// Resume dismisses the exit-confirmation overlay.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitConfirm = false
}

// Exit abandons the session without computing a scorecard. Per-answer
// progress already reported stands; no session result is submitted.
func (c *Controller) Exit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFinished {
		return
	}
	c.state = StateFinished
	c.exited = true
}

// Finish computes the scorecard, reports it exactly once and moves the
// session to Finished. It is idempotent: concurrent or repeated calls return
// the same scorecard and trigger a single result submission.
func (c *Controller) Finish(ctx context.Context) (Scorecard, error) {
	c.mu.Lock()
	if c.scorecard != nil {
		sc := *c.scorecard
		c.mu.Unlock()
		return sc, nil
	}
	if c.exited {
		c.mu.Unlock()
		return Scorecard{}, ErrExited
	}
	sc := c.buildScorecardLocked()
	c.scorecard = &sc
	c.state = StateFinished
	sub := ResultSubmission{
		UserID:         c.userID,
		Subject:        c.subject,
		TestType:       string(c.mode),
		TotalQuestions: sc.TotalQuestions,
		Correct:        sc.Correct,
		Wrong:          sc.Wrong,
		Skipped:        sc.Skipped,
		TimeTakenSec:   sc.TimeTakenSec,
		Timestamp:      c.now(),
	}
	c.mu.Unlock()

	if err := c.reporter.ReportSessionResult(ctx, sub); err != nil {
		log.Printf("session: report result for user %s: %v", sub.UserID, err)
	}
	return sc, nil
}

func (c *Controller) buildScorecardLocked() Scorecard {
	sc := Scorecard{
		TestType:       string(c.mode),
		Subject:        c.subject,
		TotalQuestions: len(c.questions),
		TimeTakenSec:   int(c.now().Sub(c.startedAt).Seconds()),
	}
	for i, q := range c.questions {
		rec, answered := c.answers[q.ID]
		_, wasVisited := c.visited[i]
		switch {
		case answered && rec.Correct:
			sc.Correct++
		case answered:
			sc.Wrong++
		default:
			sc.Skipped++
			if wasVisited {
				sc.NotAnswered++
			}
		}
		if wasVisited {
			sc.Visited++
		} else {
			sc.NotVisited++
		}
	}
	return sc
}

// maybeReplenishLocked starts a background fetch when the learner is within
// three questions of the end of the loaded list. At most one fetch is
// outstanding at a time; once the source is exhausted no further fetches are
// issued for the rest of the session.
func (c *Controller) maybeReplenishLocked() {
	if c.mode != ModeInfinity || c.state != StateActive || c.exhausted || c.inFlight {
		return
	}
	if c.currentIndex < len(c.questions)-3 {
		return
	}
	c.inFlight = true
	qty := quantityForRound(c.round, len(c.chapterIDs))
	excluded := make(map[int64]struct{}, len(c.seen))
	for id := range c.seen {
		excluded[id] = struct{}{}
	}
	go c.replenish(excluded, qty)
}

func (c *Controller) replenish(excluded map[int64]struct{}, qty int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	batch, err := c.supplier.FetchBatch(ctx, c.chapterIDs, excluded, qty)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFinished {
		// Stale response after the session ended: ignore entirely.
		return
	}
	c.inFlight = false
	if err != nil {
		// Transient failure: eligible for another attempt on the next trigger.
		return
	}
	if len(batch) == 0 {
		c.exhausted = true
		return
	}
	c.appendBatchLocked(batch)
	c.round = c.round%3 + 1
}
