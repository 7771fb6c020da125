// Package importer loads a question bank written in markdown:
//
//	### Which service stores objects?
//	![diagram](s3.png)
//	- [x] Amazon S3
//	- [ ] Amazon EC2
package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	answerRe = regexp.MustCompile(`^-\s*\[(x|X| )\]\s*(.*)$`)
	imageRe  = regexp.MustCompile(`^!\[.*?\]\((.*?)\)`)
)

// Parse reads questions in document order. Questions without any answer
// lines are dropped.
func Parse(r io.Reader) ([]quiz.Question, error) {
	var (
		out []quiz.Question
		cur *quiz.Question
	)
	flush := func() {
		if cur != nil && len(cur.Answers) > 0 {
			out = append(out, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "### "):
			flush()
			cur = &quiz.Question{Text: strings.TrimSpace(line[4:])}
		case cur == nil:
			// preamble before the first question
		case imageRe.MatchString(line):
			cur.Image = imageRe.FindStringSubmatch(line)[1]
		case answerRe.MatchString(line):
			m := answerRe.FindStringSubmatch(line)
			cur.Answers = append(cur.Answers, quiz.Answer{
				Text:      strings.TrimSpace(m[2]),
				IsCorrect: strings.EqualFold(m[1], "x"),
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("importer: read: %w", err)
	}
	flush()
	return out, nil
}

// Importer is the write side of quiz.Store used by Import.
type Importer interface {
	ImportQuestion(ctx context.Context, q quiz.Question) (quiz.Question, bool, error)
}

type Result struct {
	Inserted []quiz.Question
	Skipped  int // text already present in the bank
}

// Import bulk-inserts questions, skipping any whose text already exists.
func Import(ctx context.Context, store Importer, questions []quiz.Question) (Result, error) {
	var res Result
	for _, q := range questions {
		stored, created, err := store.ImportQuestion(ctx, q)
		if err != nil {
			return res, fmt.Errorf("importer: %q: %w", q.Text, err)
		}
		if !created {
			res.Skipped++
			continue
		}
		res.Inserted = append(res.Inserted, stored)
	}
	return res, nil
}
