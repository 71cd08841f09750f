package session

import (
	"context"

	"github.com/datachat-labs/datachat/internal/llm"
	"github.com/datachat-labs/datachat/internal/store"
)

const questionsInstruction = "Suggest 5 diverse, useful questions that a user can answer from this dataset using SQLite"

// questionsSchema is the required output shape: an ordered list of question
// strings.
var questionsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questions": map[string]any{
			"type":                 "array",
			"items":                map[string]any{"type": "string"},
			"additionalProperties": false,
		},
	},
	"required":             []string{"questions"},
	"additionalProperties": false,
}

// questionCache is the cached suggestion entry keyed by schema fingerprint.
type questionCache struct {
	fingerprint string
	list        []string
	err         error
}

// QuestionInfo is the display contract for suggested questions: render Err
// if present, else the list. A stored error does not clear previously
// suggested questions, but it takes display precedence.
type QuestionInfo struct {
	Questions []string
	Err       error
}

// Questions returns example questions for the current schema, regenerating
// them only when the schema fingerprint has changed since the last call.
// Repeated calls against an unchanged schema issue no generation request.
func (s *Session) Questions(ctx context.Context) QuestionInfo {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return QuestionInfo{Questions: s.questions.list, Err: err}
	}
	fingerprint := store.FingerprintOf(snapshot)

	if fingerprint != s.questions.fingerprint {
		var out struct {
			Questions []string `json:"questions"`
		}
		err := s.gen.CompleteJSON(ctx, llm.Request{
			System: questionsInstruction,
			User:   store.CreateStatements(snapshot),
			Schema: questionsSchema,
		}, &out)
		if err != nil {
			s.logger.Debug("question generation failed", "error", err)
			s.questions.err = err
		} else {
			s.questions.list = out.Questions
			s.questions.err = nil
		}
		// The fingerprint advances even on error so an unchanged schema
		// does not re-issue the request.
		s.questions.fingerprint = fingerprint
	}

	return QuestionInfo{Questions: s.questions.list, Err: s.questions.err}
}

// SeedQuestions installs curated questions for the current schema, as demo
// datasets do, so the next Questions call serves them without a generation
// request.
func (s *Session) SeedQuestions(ctx context.Context, questions []string) error {
	fingerprint, err := s.store.Fingerprint(ctx)
	if err != nil {
		return err
	}
	s.questions = questionCache{fingerprint: fingerprint, list: questions}
	return nil
}
