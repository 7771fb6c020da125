package explain

import (
	"fmt"
	"strings"
)

const defaultSubject = "machine learning and AWS certification exams"

// Prompt renders the user message sent to the text-generation backend.
func Prompt(subject string, req Request) string {
	if subject == "" {
		subject = defaultSubject
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert in %s and in writing quiz questions about it. ", subject)
	b.WriteString("Explain the following multiple-choice question in detail.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", req.QuestionText)
	if req.Image != "" {
		fmt.Fprintf(&b, "The question refers to an image: %s\n\n", req.Image)
	}
	fmt.Fprintf(&b, "Correct Answer(s):\n%s\n\n", strings.Join(req.Correct, "\n"))
	fmt.Fprintf(&b, "Distractors:\n%s\n\n", strings.Join(req.Distractors, "\n"))
	b.WriteString("Say why the correct answer(s) are right, why each distractor is wrong, and explain the key concepts. ")
	b.WriteString("Format the response as markdown.")
	return b.String()
}
