package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"time"

	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/observability"
	"github.com/roach88/ecosoul/internal/resource"
	"github.com/roach88/ecosoul/internal/store"
	"github.com/roach88/ecosoul/internal/wire"
)

// cycle is one accepted recordActivity call.
type cycle struct {
	id         string
	seq        int64 // seq of the idle -> submitting transition
	activity   string
	kind       resource.Kind
	identifier *ledger.Identifier
	started    time.Time
}

func verb(k resource.Kind) string {
	if k == resource.KindCreate {
		return "mint"
	}
	return "update"
}

// begin runs the entry guard and preconditions and, if they pass, moves
// the view into Submitting. A refusal sets LastError and nothing else.
func (e *Engine) begin(label string) (*cycle, *ErrorInfo) {
	var (
		c        *cycle
		rejected *ErrorInfo
	)
	e.update(func(v *viewState) {
		if v.phase != PhaseIdle {
			rejected = errInProgress()
			v.lastError = rejected
			return
		}
		if info := e.precondition(); info != nil {
			rejected = info
			v.lastError = info
			v.status = info.Message
			return
		}

		if v.currentActivity != NoActivity {
			v.previousActivity = v.currentActivity
		}
		v.currentActivity = label

		kind := resource.KindCreate
		var id *ledger.Identifier
		if v.identifier != nil {
			kind = resource.KindUpdate
			idc := *v.identifier
			id = &idc
		}

		c = &cycle{
			id:         e.ids.Generate(),
			seq:        e.clock.Next(),
			activity:   label,
			kind:       kind,
			identifier: id,
			started:    time.Now(),
		}
		v.phase = PhaseSubmitting
		v.cycleID = c.id
		v.seq = c.seq
		v.status = fmt.Sprintf("initiating %s transaction...", verb(kind))
	})

	if rejected != nil {
		slog.Info("activity refused",
			"activity", label,
			"code", rejected.Code,
			"reason", rejected.Message,
		)
		observability.ObserveRejection(string(rejected.Code))
		return nil, rejected
	}
	return c, nil
}

// precondition checks the session without any network interaction.
func (e *Engine) precondition() *ErrorInfo {
	sess, ok := e.deps.Session.CurrentSession()
	if !ok {
		return &ErrorInfo{Code: CodeConnection, Message: "please connect your wallet first"}
	}
	if sess.Network.ID != e.target.ID {
		return &ErrorInfo{
			Code:    CodeNetworkMismatch,
			Message: fmt.Sprintf("please switch to %s; current network: %s", e.target, sess.Network),
		}
	}
	return nil
}

// runCycle drives c from Submitting back to Idle and returns the terminal
// error, if any. Called only from Run or Do.
func (e *Engine) runCycle(ctx context.Context, c *cycle) *ErrorInfo {
	e.journalBegin(ctx, c)
	slog.Info("cycle started", "cycle", c.id, "activity", c.activity, "kind", c.kind)

	h, err := e.deps.Submitter.Submit(ctx, c.kind, resource.Payload{
		Activity:   c.activity,
		Identifier: c.identifier,
	})
	if err != nil {
		return e.fail(ctx, c, classify(err))
	}

	e.transition(ctx, c, PhaseAwaitingConfirmation, wire.Object{
		"submission": h.SubmissionID,
		"hash":       string(h.Hash),
		"kind":       string(h.Kind),
	}, func(v *viewState) {
		pending := h
		v.pending = &pending
		v.status = fmt.Sprintf("%s transaction sent: %s", verb(c.kind), h.Hash)
	})
	journalled("record submission", c.id,
		e.journal.RecordSubmission(context.WithoutCancel(ctx), c.id, h.SubmissionID, string(h.Hash), h.Digest))

	res, err := e.await(ctx, h)
	if err != nil {
		return e.fail(ctx, c, e.abandoned(err))
	}
	if res.Status != resource.StatusConfirmed {
		if res.Err == nil {
			return e.fail(ctx, c, &ErrorInfo{Code: CodeConfirmation, Message: "transaction failed"})
		}
		return e.fail(ctx, c, classify(res.Err))
	}

	id := c.identifier
	if c.kind == resource.KindCreate {
		id = res.Identifier
	}
	if id == nil {
		return e.fail(ctx, c, &ErrorInfo{Code: CodeConfirmation, Message: "confirmation carried no identifier"})
	}

	e.transition(ctx, c, PhaseRefetching, wire.Object{
		"identifier": uint64(*id),
	}, func(v *viewState) {
		if v.identifier == nil {
			adopted := *id
			v.identifier = &adopted
		}
		if v.pending != nil {
			confirmed := *v.pending
			confirmed.Status = resource.StatusConfirmed
			v.pending = &confirmed
		}
		v.status = fmt.Sprintf("transaction confirmed: %s", h.Hash)
	})

	rec, err := e.deps.Reader.Fetch(ctx, *id)
	if err != nil {
		return e.fail(ctx, c, classify(err))
	}
	if info := e.checkScore(rec.EcoScore); info != nil {
		return e.fail(ctx, c, info)
	}

	detail := wire.Object{
		"eco_score": rec.EcoScore,
		"weather":   string(rec.Weather),
	}
	snap := e.transition(ctx, c, PhaseIdle, detail, func(v *viewState) {
		v.record = rec
		v.cumulativeScore += rec.EcoScore
		v.pending = nil
		v.lastError = nil
		v.status = fmt.Sprintf("state updated: score %d, weather %s", rec.EcoScore, rec.Weather)
		detail["cumulative_score"] = v.cumulativeScore
	})

	journalled("finish cycle", c.id, e.journal.FinishCycle(context.WithoutCancel(ctx), store.Cycle{
		ID:              c.id,
		Outcome:         store.OutcomeConfirmed,
		Identifier:      int64Ptr(uint64(*id)),
		EcoScore:        int64Ptr(rec.EcoScore),
		CumulativeScore: int64(snap.CumulativeScore),
		FinishedSeq:     &snap.Seq,
	}))
	observability.ObserveCycle(string(c.kind), store.OutcomeConfirmed, "", time.Since(c.started))
	observability.SetCumulativeScore(snap.CumulativeScore)

	slog.Info("cycle confirmed",
		"cycle", c.id,
		"identifier", uint64(*id),
		"eco_score", rec.EcoScore,
		"cumulative", snap.CumulativeScore,
	)
	return nil
}

// checkScore refuses a score the cumulative total cannot absorb. Totals are
// capped at MaxInt64 so the journal can store them. Only the cycle's own
// goroutine writes cumulativeScore, so reading it via Snapshot is stable.
func (e *Engine) checkScore(score uint64) *ErrorInfo {
	if score > math.MaxInt64 {
		return &ErrorInfo{Code: CodeRead, Message: fmt.Sprintf("could not read state: eco score %d out of range", score)}
	}
	sum, carry := bits.Add64(e.Snapshot().CumulativeScore, score, 0)
	if carry != 0 || sum > math.MaxInt64 {
		return &ErrorInfo{Code: CodeRead, Message: fmt.Sprintf("could not read state: eco score %d overflows cumulative score", score)}
	}
	return nil
}

// await waits for h, bounded by the confirmation timeout when one is set.
func (e *Engine) await(ctx context.Context, h resource.RequestHandle) (resource.ConfirmationResult, error) {
	if e.timeout <= 0 {
		return e.deps.Waiter.Await(ctx, h)
	}
	actx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.deps.Waiter.Await(actx, h)
}

func (e *Engine) abandoned(err error) *ErrorInfo {
	if errors.Is(err, context.DeadlineExceeded) && e.timeout > 0 {
		return &ErrorInfo{
			Code:    CodeConfirmation,
			Message: fmt.Sprintf("confirmation timed out after %s", e.timeout),
			Cause:   err,
		}
	}
	return &ErrorInfo{Code: CodeConfirmation, Message: "confirmation abandoned", Cause: err}
}

// fail moves the cycle through Failed back to Idle. Record, identifier and
// cumulative score are left as they were.
func (e *Engine) fail(ctx context.Context, c *cycle, info *ErrorInfo) *ErrorInfo {
	e.transition(ctx, c, PhaseFailed, wire.Object{
		"code":    string(info.Code),
		"message": info.Message,
	}, func(v *viewState) {
		v.lastError = info
		v.pending = nil
		v.status = info.Message
	})
	snap := e.transition(ctx, c, PhaseIdle, nil, nil)

	journalled("finish cycle", c.id, e.journal.FinishCycle(context.WithoutCancel(ctx), store.Cycle{
		ID:              c.id,
		Outcome:         store.OutcomeFailed,
		ErrorCode:       string(info.Code),
		ErrorMessage:    info.Message,
		CumulativeScore: int64(snap.CumulativeScore),
		FinishedSeq:     &snap.Seq,
	}))
	observability.ObserveCycle(string(c.kind), store.OutcomeFailed, string(info.Code), time.Since(c.started))

	slog.Warn("cycle failed",
		"cycle", c.id,
		"code", info.Code,
		"error", info.Message,
	)
	return info
}

// transition applies fn and the phase change as one locked update, then
// journals it.
func (e *Engine) transition(ctx context.Context, c *cycle, to Phase, detail wire.Object, fn func(v *viewState)) Snapshot {
	var from Phase
	snap := e.update(func(v *viewState) {
		from = v.phase
		if err := checkTransition(from, to); err != nil {
			slog.Error("engine invariant violated", "cycle", c.id, "error", err)
		}
		if fn != nil {
			fn(v)
		}
		v.phase = to
		v.seq = e.clock.Next()
	})

	slog.Debug("phase transition",
		"cycle", c.id,
		"from", from,
		"to", to,
		"seq", snap.Seq,
	)
	journalled("append transition", c.id, e.journal.AppendTransition(context.WithoutCancel(ctx), store.Transition{
		Seq:     snap.Seq,
		CycleID: c.id,
		From:    string(from),
		To:      string(to),
		Detail:  detail,
	}))
	return snap
}

// journalBegin records the cycle and its idle -> submitting transition.
func (e *Engine) journalBegin(ctx context.Context, c *cycle) {
	jctx := context.WithoutCancel(ctx)
	journalled("begin cycle", c.id, e.journal.BeginCycle(jctx, store.Cycle{
		ID:       c.id,
		Seq:      c.seq,
		Activity: c.activity,
		Kind:     string(c.kind),
	}))
	journalled("append transition", c.id, e.journal.AppendTransition(jctx, store.Transition{
		Seq:     c.seq,
		CycleID: c.id,
		From:    string(PhaseIdle),
		To:      string(PhaseSubmitting),
		Detail:  wire.Object{"activity": c.activity, "kind": string(c.kind)},
	}))
}
