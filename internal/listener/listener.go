// Package listener polls an on-chain event source for persuasion
// submissions and feeds them to the game engine. Submissions arrive
// already authenticated by the chain, so no signature check happens here.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/redbutton-labs/persuasion-engine/internal/engine"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

const (
	// maxBlockRange caps how many blocks one poll may scan, so a listener
	// that fell behind catches up in bounded batches.
	maxBlockRange = 100

	errorPause = 1 * time.Second
)

// Submission is one persuasion attempt observed on chain.
type Submission struct {
	SubmissionID string `json:"submission_id"`
	PlayerID     string `json:"player_id"`
	Message      string `json:"message"`
	BlockNumber  int64  `json:"block_number"`
}

// EventSource is the chain access the listener needs. The RPC-backed
// implementation lives with the deployment; tests script one directly.
type EventSource interface {
	LatestBlock(ctx context.Context) (int64, error)
	SubmissionsInRange(ctx context.Context, fromBlock, toBlock int64) ([]Submission, error)
}

// Listener drives the poll loop.
type Listener struct {
	id       string
	source   EventSource
	engine   *engine.Engine
	audit    *AuditLog
	interval time.Duration
	log      *slog.Logger

	lastBlock int64

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a listener polling at the given interval. audit may be nil
// to disable the audit trail.
func New(source EventSource, eng *engine.Engine, audit *AuditLog, interval time.Duration, log *slog.Logger) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		id:       fmt.Sprintf("listener-%s", uuid.New().String()[:8]),
		source:   source,
		engine:   eng,
		audit:    audit,
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the poll loop until Stop is called. A failed poll is logged,
// waited out, and retried; the loop never exits on a poll error.
func (l *Listener) Start() error {
	l.log.Info("Listener starting", "listener_id", l.id, "interval", l.interval)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			l.log.Info("Listener shutting down", "listener_id", l.id)
			return nil
		case <-ticker.C:
			if err := l.Poll(l.ctx); err != nil {
				l.log.Error("Poll failed", "error", err, "listener_id", l.id)
				select {
				case <-l.ctx.Done():
				case <-time.After(errorPause):
				}
			}
		}
	}
}

// Stop gracefully shuts down the listener.
func (l *Listener) Stop() {
	l.log.Info("Listener stop requested", "listener_id", l.id)
	l.cancel()
}

// Poll scans newly produced blocks and processes their submissions. The
// first poll only records the chain tip, so a fresh listener starts at
// the present rather than replaying history.
func (l *Listener) Poll(ctx context.Context) error {
	latest, err := l.source.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to read latest block: %w", err)
	}

	if l.lastBlock == 0 {
		l.lastBlock = latest
		l.log.Info("Listener anchored at chain tip", "listener_id", l.id, "block", latest)
		return nil
	}

	if latest <= l.lastBlock {
		return nil
	}

	fromBlock := l.lastBlock + 1
	toBlock := latest
	if toBlock-fromBlock+1 > maxBlockRange {
		toBlock = fromBlock + maxBlockRange - 1
	}

	subs, err := l.source.SubmissionsInRange(ctx, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("failed to scan blocks %d-%d: %w", fromBlock, toBlock, err)
	}

	// Chain order: lower blocks first. Duplicate deliveries are harmless
	// because the store keeps only the first record per submission id.
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].BlockNumber < subs[j].BlockNumber
	})

	for _, sub := range subs {
		l.process(ctx, sub)
	}

	l.lastBlock = toBlock
	return nil
}

// process handles one submission. Failures are logged and never block
// the rest of the batch.
func (l *Listener) process(ctx context.Context, sub Submission) {
	if l.audit != nil {
		if err := l.audit.Record(sub); err != nil {
			l.log.Warn("Failed to write audit entry",
				"submission_id", sub.SubmissionID, "error", err)
		}
	}

	result := l.engine.Interact(ctx, game.InteractionRequest{
		PlayerID:     sub.PlayerID,
		Message:      sub.Message,
		SubmissionID: sub.SubmissionID,
		BlockNumber:  sub.BlockNumber,
	})

	if !result.Success {
		l.log.Warn("Submission not processed",
			"listener_id", l.id,
			"submission_id", sub.SubmissionID,
			"player_id", sub.PlayerID,
			"error", result.Error)
		return
	}

	l.log.Info("Submission processed",
		"listener_id", l.id,
		"submission_id", sub.SubmissionID,
		"player_id", sub.PlayerID,
		"block", sub.BlockNumber,
		"score", result.Score,
		"game_won", result.GameWon)
}
