package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-labs/datachat/internal/llm"
	"github.com/datachat-labs/datachat/internal/store"
	"github.com/datachat-labs/datachat/internal/testutil"
)

// fakeGenerator scripts completions for tests. Complete pops replies in
// order; CompleteJSON decodes jsonReply into out.
type fakeGenerator struct {
	mu        sync.Mutex
	replies   []string
	err       error
	jsonReply func(out any) error
	requests  []llm.Request
	block     chan struct{}
}

func (g *fakeGenerator) Complete(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	block := g.block
	g.mu.Unlock()

	if block != nil {
		<-block
	}
	if g.err != nil {
		return "", g.err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.replies) == 0 {
		return "", errors.New("fakeGenerator: no scripted reply")
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

func (g *fakeGenerator) CompleteJSON(ctx context.Context, req llm.Request, out any) error {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	return g.jsonReply(out)
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func newTestSession(t *testing.T, gen Generator) *Session {
	t.Helper()
	st, err := store.Open("", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, gen, testutil.NewTestLogger(t))
}

func seedSales(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Store().Exec(ctx, "CREATE TABLE sales (id INTEGER, region TEXT, amount REAL)"))
	require.NoError(t, s.Store().Exec(ctx, "INSERT INTO sales VALUES (1,'west',10.0),(2,'east',20.0),(3,'west',30.0)"))
}

func TestNewSessionHasDistinctIDs(t *testing.T) {
	a := newTestSession(t, &fakeGenerator{})
	b := newTestSession(t, &fakeGenerator{})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestAskSuccess(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"Here you go:\n```sql\nSELECT region, SUM(amount) AS total FROM sales GROUP BY region ORDER BY region\n```"}}
	s := newTestSession(t, gen)
	seedSales(t, s)

	result, err := s.Ask(context.Background(), "total by region")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "total by region", result.Question)
	assert.Contains(t, result.SQL, "GROUP BY region")
	assert.Equal(t, 2, result.Rows.Len())
	assert.Same(t, result, s.Current())
}

func TestAskPromptCarriesContextAndSchema(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"```sql\nSELECT * FROM sales\n```"}}
	s := newTestSession(t, gen)
	seedSales(t, s)
	s.SetContext("Retail sales by region, one row per transaction.")

	_, err := s.Ask(context.Background(), "show everything")
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	system := gen.requests[0].System
	assert.Contains(t, system, "Retail sales by region")
	assert.Contains(t, system, "CREATE TABLE sales")
	assert.Equal(t, "show everything", gen.requests[0].User)
}

func TestAskUnfencedReplyUsedVerbatim(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"SELECT COUNT(*) AS n FROM sales"}}
	s := newTestSession(t, gen)
	seedSales(t, s)

	result, err := s.Ask(context.Background(), "how many rows")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Rows.Records[0]["n"])
}

func TestAskNoResultsPreservesCurrent(t *testing.T) {
	gen := &fakeGenerator{replies: []string{
		"```sql\nSELECT * FROM sales WHERE region = 'west'\n```",
		"```sql\nSELECT * FROM sales WHERE region = 'nowhere'\n```",
	}}
	s := newTestSession(t, gen)
	seedSales(t, s)
	ctx := context.Background()

	first, err := s.Ask(ctx, "west sales")
	require.NoError(t, err)

	_, err = s.Ask(ctx, "nowhere sales")
	require.ErrorIs(t, err, ErrNoResults)
	assert.Same(t, first, s.Current(), "an empty result must not displace the current one")
}

func TestAskQueryFaultPreservesCurrent(t *testing.T) {
	gen := &fakeGenerator{replies: []string{
		"```sql\nSELECT * FROM sales\n```",
		"```sql\nSELECT * FROM missing_table\n```",
	}}
	s := newTestSession(t, gen)
	seedSales(t, s)
	ctx := context.Background()

	first, err := s.Ask(ctx, "everything")
	require.NoError(t, err)

	_, err = s.Ask(ctx, "bad question")
	var fault *QueryFault
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.SQL, "missing_table")
	assert.Same(t, first, s.Current())
}

func TestAskGenerationError(t *testing.T) {
	boom := errors.New("service down")
	gen := &fakeGenerator{err: boom}
	s := newTestSession(t, gen)
	seedSales(t, s)

	_, err := s.Ask(context.Background(), "anything")
	require.ErrorIs(t, err, boom)
	assert.Nil(t, s.Current())
}

func TestAskSingleFlight(t *testing.T) {
	gen := &fakeGenerator{
		replies: []string{"```sql\nSELECT * FROM sales\n```"},
		block:   make(chan struct{}),
	}
	s := newTestSession(t, gen)
	seedSales(t, s)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(ctx, "slow question")
		done <- err
	}()

	// Wait for the first ask to reach the generator before racing it.
	require.Eventually(t, func() bool { return gen.callCount() == 1 }, 2*time.Second, time.Millisecond)

	_, err := s.Ask(ctx, "second question")
	assert.ErrorIs(t, err, ErrRequestPending)

	close(gen.block)
	require.NoError(t, <-done)

	// The flight is free again after the first resolves.
	gen.mu.Lock()
	gen.block = nil
	gen.replies = []string{"```sql\nSELECT * FROM sales\n```"}
	gen.mu.Unlock()
	_, err = s.Ask(ctx, "third question")
	assert.NoError(t, err)
}
