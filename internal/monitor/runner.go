// Package monitor runs the real-time scoring pipeline: it subscribes to the
// node's transaction feed, classifies each transaction against the rule
// table, gates on SBT membership, and applies ledger updates at most once
// per transaction hash.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"xianScore/internal/feed"
	"xianScore/internal/rules"
	"xianScore/internal/storage"
	"xianScore/internal/txdecode"
	"xianScore/pkg/metrics"
)

const (
	defaultRefreshInterval  = 20 * time.Second
	defaultReconnectBackoff = 3 * time.Second
)

// RunConfig holds runtime settings for the monitor.
type RunConfig struct {
	Feed             feed.Config
	RefreshInterval  time.Duration
	ReconnectBackoff time.Duration
	MaxBackoff       time.Duration
	StoreTimeout     time.Duration
}

// Membership gates scoring on SBT possession.
type Membership interface {
	IsMember(address string) bool
	Refresh(ctx context.Context) error
	Size() int
}

// Runner drives the subscription and per-message pipeline.
type Runner struct {
	cfg     RunConfig
	rules   *rules.Table
	members Membership
	dedup   storage.DedupStore
	ledger  storage.LedgerStore
	logger  *zap.Logger

	now  func() time.Time
	dial func(ctx context.Context, cfg feed.Config) (*feed.Conn, error)
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, table *rules.Table, members Membership, dedup storage.DedupStore, ledger storage.LedgerStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == nil {
		table = rules.DefaultTable()
	}
	return &Runner{
		cfg:     cfg,
		rules:   table,
		members: members,
		dedup:   dedup,
		ledger:  ledger,
		logger:  logger,
		now:     time.Now,
		dial:    feed.Dial,
	}
}

// Run executes the ingestion loop until ctx is cancelled. Transport errors
// trigger backoff-and-reconnect; nothing in the pipeline is fatal.
func (r *Runner) Run(ctx context.Context) error {
	if r.members == nil {
		return fmt.Errorf("membership cache is nil")
	}
	if r.dedup == nil {
		return fmt.Errorf("dedup store is nil")
	}
	if r.ledger == nil {
		return fmt.Errorf("ledger store is nil")
	}

	go r.refreshLoop(ctx)

	baseDelay := r.cfg.ReconnectBackoff
	if baseDelay <= 0 {
		baseDelay = defaultReconnectBackoff
	}
	maxDelay := r.cfg.MaxBackoff
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}

	delay := baseDelay
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := r.dial(ctx, r.cfg.Feed)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("feed connect failed", zap.Error(err), zap.Duration("retry_in", delay))
			metrics.RecordReconnect()
			if delay, err = backoff(ctx, delay, maxDelay); err != nil {
				return nil
			}
			continue
		}

		r.logger.Info("subscribed",
			zap.String("url", r.cfg.Feed.URL),
			zap.String("query", r.cfg.Feed.SubscribeQuery),
		)
		delay = baseDelay

		err = r.consume(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return nil
		}

		r.logger.Warn("feed disconnected", zap.Error(err), zap.Duration("retry_in", delay))
		metrics.RecordReconnect()
		if delay, err = backoff(ctx, delay, maxDelay); err != nil {
			return nil
		}
	}
}

// consume reads messages until the transport fails. Cancelling ctx closes
// the connection, which unblocks the pending read.
func (r *Runner) consume(ctx context.Context, conn *feed.Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		env, err := conn.Next()
		if err != nil {
			return err
		}
		r.handleMessage(ctx, env)
	}
}

// handleMessage runs one feed message through dedup, decode, rule match,
// membership gate, and ledger update. Every terminal branch marks the
// transaction processed when a hash is available.
func (r *Runner) handleMessage(ctx context.Context, env feed.Envelope) {
	metrics.RecordReceived()

	// Subscription acks and oddly wrapped events carry no hash or no tx
	// bytes; without both there is nothing to process or dedup against.
	if env.TxHash == "" || env.TxRaw == "" {
		metrics.RecordSkipped("incomplete_envelope")
		return
	}

	seen, err := r.hasProcessed(ctx, env.TxHash)
	if err != nil {
		r.logger.Warn("dedup lookup failed", zap.Error(err), zap.String("tx", env.TxHash))
		metrics.RecordSkipped("store_error")
		return
	}
	if seen {
		metrics.RecordSkipped("duplicate")
		return
	}

	tx, err := txdecode.Decode(env.TxRaw)
	if err != nil {
		r.logger.Debug("unclassifiable transaction", zap.String("tx", env.TxHash))
		r.markProcessed(ctx, env.TxHash)
		metrics.RecordSkipped("malformed")
		return
	}

	rule, ok := r.rules.Match(tx.Contract, tx.Function)
	if !ok {
		r.markProcessed(ctx, env.TxHash)
		metrics.RecordSkipped("not_tracked")
		return
	}

	now := r.now().Unix()

	if rule.Effect == rules.EffectStakeStop {
		if r.members.IsMember(tx.Sender) {
			r.stopStake(ctx, tx.Sender, now)
		}
		r.markProcessed(ctx, env.TxHash)
		return
	}

	if !r.members.IsMember(tx.Sender) {
		r.logger.Debug("ignored, no membership",
			zap.String("sender", tx.Sender),
			zap.String("contract", tx.Contract),
			zap.String("function", tx.Function),
		)
		r.markProcessed(ctx, env.TxHash)
		metrics.RecordSkipped("not_member")
		return
	}

	r.apply(ctx, rule, tx.Sender, tx.Contract, tx.Function, tx.Kwargs, now)
	r.markProcessed(ctx, env.TxHash)
}

// apply awards the rule's points and side effect. Ledger errors are logged
// and dropped: the derived ledger is best effort, never a reason to stall
// the feed.
func (r *Runner) apply(ctx context.Context, rule rules.Rule, sender, contract, function string, kwargs map[string]any, now int64) {
	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	amount := rule.Amount(kwargs)
	if err := r.ledger.AddScore(sctx, sender, rule.Points, amount); err != nil {
		r.logger.Warn("score update failed", zap.Error(err), zap.String("sender", sender))
		return
	}

	switch rule.Effect {
	case rules.EffectValueSent:
		if err := r.ledger.AddValueSent(sctx, sender, amount); err != nil {
			r.logger.Warn("value update failed", zap.Error(err), zap.String("sender", sender))
		}
	case rules.EffectExchange:
		if err := r.ledger.AddExchangeVolume(sctx, sender, rule.Volume(kwargs)); err != nil {
			r.logger.Warn("volume update failed", zap.Error(err), zap.String("sender", sender))
		}
	case rules.EffectStakeStart:
		if err := r.ledger.StakeStartOrRefresh(sctx, sender, now); err != nil {
			r.logger.Warn("stake start failed", zap.Error(err), zap.String("sender", sender))
		}
	}

	metrics.RecordScored(contract, function, rule.Points)
	r.logger.Info("scored",
		zap.String("sender", sender),
		zap.String("contract", contract),
		zap.String("function", function),
		zap.Int64("points", rule.Points),
	)
}

func (r *Runner) stopStake(ctx context.Context, sender string, now int64) {
	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	if err := r.ledger.StakeStop(sctx, sender, now); err != nil {
		r.logger.Warn("stake stop failed", zap.Error(err), zap.String("sender", sender))
		return
	}
	r.logger.Info("stake stop", zap.String("sender", sender))
}

func (r *Runner) hasProcessed(ctx context.Context, txHash string) (bool, error) {
	sctx, cancel := r.storeCtx(ctx)
	defer cancel()
	return r.dedup.Has(sctx, txHash)
}

// markProcessed is best effort: a failed mark only risks a benign duplicate
// check later.
func (r *Runner) markProcessed(ctx context.Context, txHash string) {
	if txHash == "" {
		return
	}
	sctx, cancel := r.storeCtx(ctx)
	defer cancel()
	if err := r.dedup.Mark(sctx, txHash); err != nil {
		r.logger.Warn("mark processed failed", zap.Error(err), zap.String("tx", txHash))
	}
}

// storeCtx bounds store calls with the configured timeout. It detaches from
// the loop's cancellation so an in-flight write for the current message
// completes during shutdown.
func (r *Runner) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if r.cfg.StoreTimeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, r.cfg.StoreTimeout)
}

// refreshLoop keeps the membership snapshot fresh. It refreshes immediately
// so the gate can open before the first message, then ticks on the interval.
func (r *Runner) refreshLoop(ctx context.Context) {
	interval := r.cfg.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	r.refreshMembers(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshMembers(ctx)
		}
	}
}

// refreshMembers logs and moves on when the query surface is down; the
// previous snapshot keeps gating until the next tick.
func (r *Runner) refreshMembers(ctx context.Context) {
	if err := r.members.Refresh(ctx); err != nil {
		r.logger.Warn("membership refresh failed", zap.Error(err))
		metrics.RecordMembershipRefresh(false, r.members.Size())
		return
	}
	metrics.RecordMembershipRefresh(true, r.members.Size())
	r.logger.Info("membership refreshed", zap.Int("holders", r.members.Size()))
}
