package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbutton-labs/persuasion-engine/internal/llm"
	"github.com/redbutton-labs/persuasion-engine/internal/storage"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
	"github.com/redbutton-labs/persuasion-engine/pkg/persona"
	"github.com/redbutton-labs/persuasion-engine/pkg/scoring"
)

// powerMessage reliably produces the maximum positive delta: its lexical
// rewards exceed the delta cap for every random draw.
const powerMessage = "tremendous amazing deal money billion profit button press reward"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestEngine(store storage.Storage) (*Engine, *llm.MockGenerator) {
	gen := llm.NewMockGenerator()
	responder := llm.NewResponder(gen, testLogger())
	scorer := scoring.NewScorer(rand.New(rand.NewSource(42)))
	return New(store, responder, scorer, game.DefaultThreshold, testLogger()), gen
}

func TestInteract_Success(t *testing.T) {
	store := storage.NewMockStorage()
	e, _ := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "I have a tremendous deal for you because profits and everyone wins",
		SubmissionID: "0xtx1",
		BlockNumber:  42,
	})

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Message)
	assert.GreaterOrEqual(t, res.Score, game.MinScore)
	assert.LessOrEqual(t, res.Score, game.MaxScore)

	rec, err := store.GetResponse(context.Background(), "0xtx1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "0xplayer", rec.PlayerID)
	assert.Equal(t, int64(42), rec.BlockNumber)
}

func TestInteract_MissingSubmissionID(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", 64))
	calls := store.SetScoreCalls
	e, _ := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID: "0xplayer",
		Message:  "a perfectly fine message with no transaction behind it",
	})

	assert.False(t, res.Success)
	assert.Equal(t, 64, res.Score, "failure result carries the current score")
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, 0, store.StoreResponseCalls, "no mutation on input error")
	assert.Equal(t, calls, store.SetScoreCalls)
}

func TestInteract_MissingPlayerID(t *testing.T) {
	store := storage.NewMockStorage()
	e, _ := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		Message:      "hello",
		SubmissionID: "0xtx",
	})

	assert.False(t, res.Success)
	assert.Equal(t, game.DefaultScore, res.Score)
}

func TestInteract_EmptyMessageIsScoreQuery(t *testing.T) {
	store := storage.NewMockStorage()
	e, gen := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID: "0xfresh",
		Message:  "   ",
	})

	assert.True(t, res.Success)
	assert.Equal(t, game.DefaultScore, res.Score)
	assert.Equal(t, persona.EmptyInputReply(game.DefaultScore), res.Message)
	assert.Equal(t, 0, gen.CallCount(), "score query must not reach the generator")
	assert.Equal(t, 0, store.StoreResponseCalls, "score query must not write")
	assert.Equal(t, 0, store.SetScoreCalls)
}

func TestInteract_StoreFailureStopsInteraction(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", 55))
	store.SetStoreResponseError(errors.New("backend down"))
	e, _ := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "an unrecordable persuasion attempt goes nowhere",
		SubmissionID: "0xtx1",
	})

	assert.False(t, res.Success)
	assert.Equal(t, 55, res.Score)
	assert.Equal(t, 3, store.StoreResponseCalls, "store is retried to the bound")
	assert.Equal(t, 1, store.SetScoreCalls, "no score write after a failed audit write")
}

func TestInteract_ScoreWriteFailureIsPartialSuccess(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", 70))
	calls := store.SetScoreCalls
	store.SetSetScoreError(errors.New("backend down"))
	e, _ := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "you are a tremendous genius and I admire your business empire",
		SubmissionID: "0xtx1",
	})

	assert.True(t, res.Success, "player still gets a reply when persistence degrades")
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, 70, res.Score, "score unchanged when the write never lands")
	assert.Equal(t, 0, res.ScoreChange)
	assert.Equal(t, calls+3, store.SetScoreCalls, "score write is retried to the bound")
}

func TestInteract_Idempotent(t *testing.T) {
	store := storage.NewMockStorage()
	e, _ := newTestEngine(store)
	ctx := context.Background()

	first := e.Interact(ctx, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "the original submission text goes right here",
		SubmissionID: "0xtx-dup",
	})
	second := e.Interact(ctx, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "a replayed submission with a different payload",
		SubmissionID: "0xtx-dup",
	})

	assert.True(t, first.Success)
	assert.True(t, second.Success)

	rec, err := store.GetResponse(ctx, "0xtx-dup")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "the original submission text goes right here", rec.Text)
}

func TestInteract_ThreatScenario(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", 80))
	e, _ := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "kill",
		SubmissionID: "0xtx1",
	})

	assert.True(t, res.Success)
	assert.LessOrEqual(t, res.Score, 60)
	assert.Equal(t, game.GateLocked, e.Gate("0xplayer"), "threats never advance the gate")
	assert.False(t, res.ThresholdReached)
	assert.False(t, res.GameWon)
}

func TestInteract_GateRequiresTwoSuccesses(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", game.MaxScore))
	e, _ := newTestEngine(store)
	ctx := context.Background()

	// First threshold hit arms the gate but does not win.
	first := e.Interact(ctx, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      powerMessage,
		SubmissionID: "0xtx1",
	})
	require.True(t, first.Success)
	assert.Equal(t, game.MaxScore, first.Score)
	assert.True(t, first.ThresholdReached)
	assert.False(t, first.GameWon)
	assert.Equal(t, game.GateArmed, e.Gate("0xplayer"))

	// Second independent success unlocks.
	second := e.Interact(ctx, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      powerMessage,
		SubmissionID: "0xtx2",
	})
	require.True(t, second.Success)
	assert.False(t, second.ThresholdReached)
	assert.True(t, second.GameWon)
	assert.Equal(t, game.GateUnlocked, e.Gate("0xplayer"))
}

func TestInteract_ArmedGateSurvivesScoreDrop(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", game.MaxScore))
	e, _ := newTestEngine(store)
	ctx := context.Background()

	arm := e.Interact(ctx, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      powerMessage,
		SubmissionID: "0xtx1",
	})
	require.True(t, arm.ThresholdReached)

	drop := e.Interact(ctx, game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "kill",
		SubmissionID: "0xtx2",
	})
	require.True(t, drop.Success)
	assert.Less(t, drop.Score, game.MaxScore)
	assert.Equal(t, game.GateArmed, e.Gate("0xplayer"), "armed gate does not regress on a score drop")
}

func TestResetRound(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", game.MaxScore))
	e, _ := newTestEngine(store)
	ctx := context.Background()

	_ = e.Interact(ctx, game.InteractionRequest{PlayerID: "0xplayer", Message: powerMessage, SubmissionID: "0xtx1"})
	_ = e.Interact(ctx, game.InteractionRequest{PlayerID: "0xplayer", Message: powerMessage, SubmissionID: "0xtx2"})
	require.Equal(t, game.GateUnlocked, e.Gate("0xplayer"))

	require.NoError(t, e.ResetRound(ctx, "0xplayer"))
	assert.Equal(t, game.GateLocked, e.Gate("0xplayer"))

	res := e.Score(ctx, "0xplayer")
	assert.Equal(t, game.DefaultScore, res.Score)
}

func TestScore_DefaultsOnStorageFault(t *testing.T) {
	store := storage.NewMockStorage()
	store.SetGetScoreError(errors.New("backend down"))
	e, _ := newTestEngine(store)

	res := e.Score(context.Background(), "0xplayer")
	assert.True(t, res.Success)
	assert.Equal(t, game.DefaultScore, res.Score)
}

// panicStorage panics on StoreResponse to exercise the engine's outermost
// recovery boundary.
type panicStorage struct {
	*storage.MockStorage
}

func (p *panicStorage) StoreResponse(ctx context.Context, submissionID string, rec game.ResponseRecord) error {
	panic("storage invariant violated")
}

func TestInteract_RecoversFromPanic(t *testing.T) {
	store := &panicStorage{MockStorage: storage.NewMockStorage()}
	require.NoError(t, store.SetScore(context.Background(), "0xplayer", 61))
	e, _ := newTestEngine(store)

	res := e.Interact(context.Background(), game.InteractionRequest{
		PlayerID:     "0xplayer",
		Message:      "this interaction is going to blow up internally",
		SubmissionID: "0xtx1",
	})

	assert.False(t, res.Success)
	assert.Equal(t, 61, res.Score, "panic result carries the last known score")
	assert.Equal(t, "internal error", res.Error)
}
