package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

// SQLStore persists the question bank and attempts through database/sql.
// The same statements run on sqlite (modernc) and postgres (pgx).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) ListQuestionIDs(ctx context.Context) ([]int64, error) {
	return listQuestionIDs(ctx, s.db)
}

func listQuestionIDs(ctx context.Context, q queryer) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("quiz: list questions: %w", err)
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return getQuestion(ctx, s.db, id)
}

func getQuestion(ctx context.Context, q queryer, id int64) (Question, error) {
	var (
		out         Question
		image, expl sql.NullString
	)
	err := q.QueryRowContext(ctx, `SELECT id,text,image,explanation FROM questions WHERE id=$1`, id).
		Scan(&out.ID, &out.Text, &image, &expl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, fmt.Errorf("quiz: get question %d: %w", id, err)
	}
	out.Image, out.Explanation = image.String, expl.String

	rows, err := q.QueryContext(ctx, `SELECT id,question_id,text,is_correct FROM answers WHERE question_id=$1 ORDER BY id`, id)
	if err != nil {
		return Question{}, fmt.Errorf("quiz: get answers %d: %w", id, err)
	}
	defer rows.Close()
	out.Answers = []Answer{}
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.IsCorrect); err != nil {
			return Question{}, err
		}
		out.Answers = append(out.Answers, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) ImportQuestion(ctx context.Context, in Question) (Question, bool, error) {
	var (
		out     Question
		created bool
	)
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM questions WHERE text=$1 ORDER BY id LIMIT 1`, in.Text).Scan(&existing)
		switch {
		case err == nil:
			out, err = getQuestion(ctx, tx, existing)
			return err
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		var qid int64
		if err := tx.QueryRowContext(ctx, `INSERT INTO questions (text,image,explanation) VALUES ($1,$2,$3) RETURNING id`,
			in.Text, nullString(in.Image), nullString(in.Explanation)).Scan(&qid); err != nil {
			return err
		}
		for _, a := range in.Answers {
			if _, err := tx.ExecContext(ctx, `INSERT INTO answers (question_id,text,is_correct) VALUES ($1,$2,$3)`,
				qid, a.Text, a.IsCorrect); err != nil {
				return err
			}
		}
		created = true
		out, err = getQuestion(ctx, tx, qid)
		return err
	})
	if err != nil {
		return Question{}, false, fmt.Errorf("quiz: import question: %w", err)
	}
	return out, created, nil
}

// SaveExplanation overwrites unconditionally; concurrent generators race and
// the last write wins.
func (s *SQLStore) SaveExplanation(ctx context.Context, questionID int64, text string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET explanation=$1 WHERE id=$2`, text, questionID)
	if err != nil {
		return fmt.Errorf("quiz: save explanation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) CreateAttempt(ctx context.Context, shuffle func([]int64), startedAt time.Time) (Attempt, error) {
	var out Attempt
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		order, err := listQuestionIDs(ctx, tx)
		if err != nil {
			return err
		}
		shuffle(order)
		buf, err := json.Marshal(order)
		if err != nil {
			return err
		}
		var id int64
		if err := tx.QueryRowContext(ctx, `INSERT INTO attempts (started_at,question_order) VALUES ($1,$2) RETURNING id`,
			startedAt.Unix(), string(buf)).Scan(&id); err != nil {
			return err
		}
		out = Attempt{ID: id, StartedAt: time.Unix(startedAt.Unix(), 0), QuestionOrder: order, Answers: []AttemptAnswer{}}
		return nil
	})
	if err != nil {
		return Attempt{}, fmt.Errorf("quiz: create attempt: %w", err)
	}
	return out, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id int64) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,started_at,completed_at,question_order FROM attempts WHERE id=$1`, id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, fmt.Errorf("quiz: get attempt %d: %w", id, err)
	}
	if a.Answers, err = listAttemptAnswers(ctx, s.db, id); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,started_at,completed_at,question_order FROM attempts ORDER BY started_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("quiz: list attempts: %w", err)
	}
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// answers are loaded after the cursor is closed; sqlite runs on one connection
	for i := range out {
		if out[i].Answers, err = listAttemptAnswers(ctx, s.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) InsertAnswerIfAbsent(ctx context.Context, aa AttemptAnswer) (AttemptAnswer, bool, error) {
	selected := aa.Selected
	if selected == nil {
		selected = []int64{}
	}
	buf, err := json.Marshal(selected)
	if err != nil {
		return AttemptAnswer{}, false, err
	}

	var (
		out     AttemptAnswer
		created bool
	)
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM attempts WHERE id=$1`, aa.AttemptID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAttemptNotFound
			}
			return err
		}

		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO attempt_answers (attempt_id,question_id,selected_answers,submitted_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (attempt_id, question_id) DO NOTHING
			RETURNING id`,
			aa.AttemptID, aa.QuestionID, string(buf), aa.SubmittedAt.Unix()).Scan(&id)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, sql.ErrNoRows):
			// first write won
		default:
			return err
		}

		row := tx.QueryRowContext(ctx, `SELECT id,attempt_id,question_id,selected_answers,submitted_at
			FROM attempt_answers WHERE attempt_id=$1 AND question_id=$2`, aa.AttemptID, aa.QuestionID)
		out, err = scanAttemptAnswer(row)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return AttemptAnswer{}, false, err
		}
		return AttemptAnswer{}, false, fmt.Errorf("quiz: insert answer: %w", err)
	}
	return out, created, nil
}

func (s *SQLStore) MarkCompleted(ctx context.Context, attemptID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET completed_at=$1 WHERE id=$2 AND completed_at IS NULL`,
		at.Unix(), attemptID)
	if err != nil {
		return fmt.Errorf("quiz: mark completed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either already completed or missing
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM attempts WHERE id=$1`, attemptID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAttemptNotFound
			}
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (Attempt, error) {
	var (
		a         Attempt
		started   int64
		completed sql.NullInt64
		order     string
	)
	if err := row.Scan(&a.ID, &started, &completed, &order); err != nil {
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0)
	if completed.Valid {
		t := time.Unix(completed.Int64, 0)
		a.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(order), &a.QuestionOrder); err != nil {
		return Attempt{}, fmt.Errorf("quiz: attempt %d: decode question_order: %w", a.ID, err)
	}
	return a, nil
}

func listAttemptAnswers(ctx context.Context, q queryer, attemptID int64) ([]AttemptAnswer, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,attempt_id,question_id,selected_answers,submitted_at
		FROM attempt_answers WHERE attempt_id=$1 ORDER BY id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("quiz: list answers %d: %w", attemptID, err)
	}
	defer rows.Close()
	out := []AttemptAnswer{}
	for rows.Next() {
		aa, err := scanAttemptAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, aa)
	}
	return out, rows.Err()
}

func scanAttemptAnswer(row scanner) (AttemptAnswer, error) {
	var (
		aa        AttemptAnswer
		selected  string
		submitted int64
	)
	if err := row.Scan(&aa.ID, &aa.AttemptID, &aa.QuestionID, &selected, &submitted); err != nil {
		return AttemptAnswer{}, err
	}
	aa.SubmittedAt = time.Unix(submitted, 0)
	// a corrupt column reads as an empty selection, which scores as incorrect
	if err := json.Unmarshal([]byte(selected), &aa.Selected); err != nil || aa.Selected == nil {
		aa.Selected = []int64{}
	}
	return aa, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
