package quiz

// Presentation is one shuffled rendering of a question. Position i on screen
// shows Texts[i] and maps back to AnswerIDs[i]. It is ephemeral: keep it with
// the learner's session until the submission for QuestionID is processed.
type Presentation struct {
	QuestionID int64    `json:"question_id"`
	Texts      []string `json:"texts"`
	AnswerIDs  []int64  `json:"answer_ids"`
}

// AnswerAt resolves a zero-based display position.
func (p Presentation) AnswerAt(pos int) (int64, bool) {
	if pos < 0 || pos >= len(p.AnswerIDs) {
		return 0, false
	}
	return p.AnswerIDs[pos], true
}

// Empty reports a question with no options; it cannot be answered.
func (p Presentation) Empty() bool { return len(p.AnswerIDs) == 0 }

// ShuffleFunc has the signature of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

func present(q Question, shuffle ShuffleFunc) Presentation {
	answers := append([]Answer(nil), q.Answers...)
	shuffle(len(answers), func(i, j int) { answers[i], answers[j] = answers[j], answers[i] })
	p := Presentation{
		QuestionID: q.ID,
		Texts:      make([]string, len(answers)),
		AnswerIDs:  make([]int64, len(answers)),
	}
	for i, a := range answers {
		p.Texts[i] = a.Text
		p.AnswerIDs[i] = a.ID
	}
	return p
}
