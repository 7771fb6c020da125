package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const bank = `# AWS practice questions

Some intro text that is not a question.

### Which service stores objects?
![bucket diagram](images/s3.png)
- [x] Amazon S3
- [ ] Amazon EC2
- [ ] Amazon SQS

### Pick the two managed databases
- [X] Amazon RDS
- [x] Amazon DynamoDB
- [ ] AWS Lambda

### A heading with no answers

### Which region is cheapest?
-[ ] It depends
`

func TestParse(t *testing.T) {
	qs, err := Parse(strings.NewReader(bank))
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 3 {
		t.Fatalf("parsed %d questions, want 3: %+v", len(qs), qs)
	}

	first := qs[0]
	if first.Text != "Which service stores objects?" || first.Image != "images/s3.png" {
		t.Fatalf("first = %+v", first)
	}
	if len(first.Answers) != 3 || !first.Answers[0].IsCorrect || first.Answers[1].IsCorrect || first.Answers[0].Text != "Amazon S3" {
		t.Fatalf("first answers = %+v", first.Answers)
	}

	second := qs[1]
	if second.Image != "" || len(second.CorrectAnswerIDs()) != 2 {
		t.Fatalf("second = %+v", second)
	}
	if !second.Answers[0].IsCorrect || !second.Answers[1].IsCorrect || second.Answers[2].IsCorrect {
		t.Fatalf("second answers = %+v", second.Answers)
	}

	if qs[2].Text != "Which region is cheapest?" || len(qs[2].Answers) != 1 || qs[2].Answers[0].IsCorrect {
		t.Fatalf("third = %+v", qs[2])
	}
}

func TestImport_SkipsExistingText(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	qs, err := Parse(strings.NewReader(bank))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Import(ctx, store, qs)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Inserted) != 3 || res.Skipped != 0 {
		t.Fatalf("first import = %d inserted, %d skipped", len(res.Inserted), res.Skipped)
	}
	if res.Inserted[0].ID == 0 || res.Inserted[0].Answers[0].ID == 0 {
		t.Fatalf("inserted rows carry no ids: %+v", res.Inserted[0])
	}

	res, err = Import(ctx, store, qs)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Inserted) != 0 || res.Skipped != 3 {
		t.Fatalf("second import = %d inserted, %d skipped", len(res.Inserted), res.Skipped)
	}
	ids, _ := store.ListQuestionIDs(ctx)
	if len(ids) != 3 {
		t.Fatalf("bank size = %d, want 3", len(ids))
	}
}
