package question

// OptionTag identifies one of the four answer options.
type OptionTag string

const (
	OptionA OptionTag = "A"
	OptionB OptionTag = "B"
	OptionC OptionTag = "C"
	OptionD OptionTag = "D"
)

// ValidTag reports whether t is one of the four option tags.
func ValidTag(t OptionTag) bool {
	switch t {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Text carries a bilingual string (English primary, Hindi secondary).
type Text struct {
	EN string `json:"en"`
	HI string `json:"hi,omitempty"`
}

// Question is an immutable record once fetched. Identity is the numeric ID.
type Question struct {
	ID          int64                  `json:"id"`
	Subject     string                 `json:"subject"`
	ChapterID   string                 `json:"chapter_id"`
	ChapterName Text                   `json:"chapter_name"`
	Prompt      Text                   `json:"prompt"`
	Options     map[OptionTag]Text     `json:"options"`
	Correct     OptionTag              `json:"correct_option,omitempty"`
	Explanation *Text                  `json:"explanation,omitempty"`
	ExamYear    string                 `json:"exam_year,omitempty"`
	Type        string                 `json:"type,omitempty"` // objective|subjective
}

// Public returns a copy safe to serve before the learner has answered:
// the correct option and explanation are stripped.
func (q Question) Public() Question {
	q.Correct = ""
	q.Explanation = nil
	return q
}

// Chapter groups questions under a subject.
type Chapter struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Name    Text   `json:"name"`
}
