package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/datachat-labs/datachat/internal/llm"
	"github.com/datachat-labs/datachat/internal/store"
)

// ErrNoResults reports a generated query that executed cleanly but matched
// nothing. It is an empty success, not a fault: the previously current
// result stays in place.
var ErrNoResults = errors.New("no results found")

// QueryFault wraps the engine's rejection of a generated query. The prior
// result is preserved; the user must rephrase and resubmit.
type QueryFault struct {
	SQL string
	Err error
}

func (f *QueryFault) Error() string {
	return fmt.Sprintf("query execution failed: %v", f.Err)
}

func (f *QueryFault) Unwrap() error { return f.Err }

const askInstructionSteps = `Answer the user's question following these steps:

1. Guess their objective in asking this.
2. Describe the steps to achieve this objective in SQL.
3. Build the logic for the SQL query by identifying the necessary tables and relationships. Select the appropriate columns based on the user's question and the dataset.
4. Write SQL to answer the question. Use SQLite syntax.

Replace generic filter values (e.g. "a location", "specific region", etc.) by querying a random value from data.
Always use [Table].[Column].
Emit exactly one fenced code block containing the final query.
`

// askPrompt builds the system instruction: dataset context, every table's
// create statement, then the fixed instruction steps.
func askPrompt(contextText string, snapshot []store.Table) string {
	return fmt.Sprintf(`You are an expert SQLite query writer. The user has a SQLite dataset.

%s

This is their SQLite schema:

%s

%s`, contextText, store.CreateStatements(snapshot), askInstructionSteps)
}

// Ask translates a natural-language question into a query against the
// current schema, executes it, and classifies the outcome:
//
//   - rows found: the result atomically becomes the new current result;
//   - zero rows: ErrNoResults, prior result untouched;
//   - engine rejection: *QueryFault, prior result untouched;
//   - generation fault: reported verbatim, nothing executed.
//
// Ask is single-flight; a second call while one is pending returns
// ErrRequestPending. Generation is never retried automatically.
func (s *Session) Ask(ctx context.Context, question string) (*Result, error) {
	if err := s.askFlight.begin(); err != nil {
		return nil, err
	}
	ok := false
	defer func() { s.askFlight.finish(ok) }()

	// Snapshot fresh: ingestion may have changed the schema since the
	// last question.
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.gen.Complete(ctx, llm.Request{
		System: askPrompt(s.context, snapshot),
		User:   question,
	})
	if err != nil {
		return nil, err
	}

	sqlText := llm.FirstFencedBlock(raw)
	s.logger.Debug("generated query", "question", question, "sql", sqlText)

	rows, err := s.store.Query(ctx, sqlText)
	if err != nil {
		return nil, &QueryFault{SQL: sqlText, Err: err}
	}
	if rows.Len() == 0 {
		return nil, ErrNoResults
	}

	s.result = &Result{Question: question, SQL: sqlText, Rows: rows}
	ok = true
	return s.result, nil
}
