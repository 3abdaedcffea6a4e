package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/craftbot/core/logger"
	"github.com/m3rciful/craftbot/internal/product"
	"github.com/m3rciful/craftbot/internal/session"
)

// QuestionGenerator produces the specification questions for a product.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, pc product.Context) ([]product.Question, error)
}

// DescriptionGenerator writes the marketing description of a finished listing.
type DescriptionGenerator interface {
	GenerateDescription(ctx context.Context, rec product.Record) (string, error)
}

// Saver persists a finished listing.
type Saver interface {
	Save(ctx context.Context, rec product.Record) error
}

const (
	DefaultAITimeout   = 30 * time.Second
	DefaultSaveTimeout = 10 * time.Second
)

// Config bounds collaborator calls.
type Config struct {
	AITimeout   time.Duration
	SaveTimeout time.Duration
}

// Orchestrator turns seller events into instructions, one event per user at a time.
type Orchestrator struct {
	store     *session.Store
	questions QuestionGenerator
	describer DescriptionGenerator
	saver     Saver
	locks     *userLocks
	cfg       Config
}

// NewOrchestrator wires the flow around its collaborators.
func NewOrchestrator(store *session.Store, q QuestionGenerator, d DescriptionGenerator, s Saver, cfg Config) *Orchestrator {
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = DefaultAITimeout
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultSaveTimeout
	}
	return &Orchestrator{
		store:     store,
		questions: q,
		describer: d,
		saver:     s,
		locks:     newUserLocks(),
		cfg:       cfg,
	}
}

// ActiveSessions returns the number of sessions held by the store.
func (o *Orchestrator) ActiveSessions() int { return o.store.Len() }

// InFlight returns the number of users with an event being processed.
func (o *Orchestrator) InFlight() int { return o.locks.Held() }

// Handle processes one event and returns exactly one instruction. A non-nil
// error is informational: the instruction already tells the user what to do.
func (o *Orchestrator) Handle(ctx context.Context, ev Event) (Instruction, error) {
	start := time.Now()
	unlock, ok := o.locks.TryLock(ev.UserID)
	if !ok {
		logger.Info(ctx, "flow", "flow.busy",
			slog.String("status", "rate_limited"),
			slog.Int64("user_id", ev.UserID),
		)
		return Instruction{UserID: ev.UserID, Kind: InstructionBusy, Text: msgBusy}, newError(KindBusy, "handle", nil)
	}
	defer unlock()

	instr, err := o.handle(ctx, ev)
	instr.UserID = ev.UserID

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Int64("user_id", ev.UserID),
		slog.String("state", instr.State.String()),
		slog.String("instruction", string(instr.Kind)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err_code", string(KindOf(err))), slog.Any("err", err))
	}
	logger.Debug(ctx, "flow", "flow.handle", attrs...)
	return instr, err
}

func (o *Orchestrator) handle(ctx context.Context, ev Event) (Instruction, error) {
	sess, fresh, expired := o.load(ev)
	// Any event counts as activity, so the sweeper leaves the session alone
	// while a collaborator call is running.
	o.store.Touch(sess.UserID, sess.ID)
	ctx = logger.WithSession(ctx, sess.ID)
	lead := ""
	if expired {
		lead = msgExpired
	}

	in := Classify(sess.State, ev)
	var (
		instr Instruction
		err   error
	)
	switch in.Kind {
	case InputRestart:
		if !fresh {
			sess = o.store.CreateOrReplace(ev.UserID, metaOf(ev))
			ctx = logger.WithSession(ctx, sess.ID)
			logger.Info(ctx, "flow", "session.restart",
				slog.Int64("user_id", ev.UserID),
				slog.String("session_id", sess.ID),
			)
		}
		instr = o.prompt(sess, lead)

	case InputStatus:
		if cur, gerr := o.store.Get(sess.UserID); gerr == nil {
			sess = cur
		}
		instr = Instruction{
			Kind:    InstructionStatus,
			Text:    lead + statusText(sess, o.store.IdleTimeout()),
			Options: []Option{OptionRestart},
			State:   sess.State,
		}

	case InputInvalid:
		if fresh {
			instr = o.prompt(sess, lead)
			break
		}
		instr = o.reject(sess, in.Reason)
		err = newError(KindInvalidInput, "classify", errReason(in.Reason))

	case InputRetry:
		if !Retryable(sess) {
			instr = o.reject(sess, ReasonNothingToRetry)
			err = newError(KindInvalidInput, "retry", errReason(ReasonNothingToRetry))
			break
		}
		instr, err = o.settle(ctx, sess, lead)

	default:
		if NeedsQuestions(sess) {
			// Generation failed earlier; any reply retries it instead of being recorded.
			instr, err = o.settle(ctx, sess, lead)
			break
		}
		next := sess.Clone()
		if aerr := Advance(&next, in); aerr != nil {
			instr = o.reject(sess, reasonOf(aerr))
			err = aerr
			break
		}
		logger.Debug(ctx, "flow", "flow.transition",
			slog.Int64("user_id", ev.UserID),
			slog.String("session_id", sess.ID),
			slog.String("input", in.Kind.String()),
			slog.String("from", sess.State.String()),
			slog.String("state", next.State.String()),
		)
		instr, err = o.settle(ctx, next, lead)
	}

	if err == nil && expired {
		err = newError(KindExpired, "load", session.ErrExpired)
	}
	return instr, err
}

// load fetches the user's session, starting a fresh one on first contact or
// after expiry.
func (o *Orchestrator) load(ev Event) (sess session.Session, fresh, expired bool) {
	sess, err := o.store.Get(ev.UserID)
	if err == nil {
		return sess, false, false
	}
	expired = errors.Is(err, session.ErrExpired)
	return o.store.CreateOrReplace(ev.UserID, metaOf(ev)), true, expired
}

// settle runs whatever collaborator the state requires, writes the session
// back and renders the next prompt.
func (o *Orchestrator) settle(ctx context.Context, sess session.Session, lead string) (Instruction, error) {
	if NeedsQuestions(sess) {
		qs, err := o.generateQuestions(ctx, sess)
		if err != nil {
			return o.fail(ctx, sess, "questions", lead, msgQuestionsFail, err)
		}
		if !o.store.Exists(sess.UserID, sess.ID) {
			return o.gone(ctx, sess, "questions")
		}
		sess.Questions = qs
	}

	if sess.State.Step == session.StepGeneratingDescription {
		desc, err := o.describe(ctx, sess)
		if err != nil {
			return o.fail(ctx, sess, "describe", lead, msgDescribeFail, err)
		}
		if !o.store.Exists(sess.UserID, sess.ID) {
			return o.gone(ctx, sess, "describe")
		}
		sess.Product.Description = &desc
		sess.State = session.State{Step: session.StepComplete}
	}

	if sess.State.Step == session.StepComplete {
		return o.complete(ctx, sess, lead)
	}

	if err := o.store.Save(sess); err != nil {
		return o.gone(ctx, sess, "save_session")
	}
	return o.prompt(sess, lead), nil
}

func (o *Orchestrator) complete(ctx context.Context, sess session.Session, lead string) (Instruction, error) {
	rec := sess.Record()
	start := time.Now()
	_, err := callWithTimeout(ctx, o.cfg.SaveTimeout, func(c context.Context) (struct{}, error) {
		return struct{}{}, o.saver.Save(c, rec)
	})
	if err != nil {
		instr, ferr := o.fail(ctx, sess, "save", lead, msgSaveFail, err)
		instr.Record = &rec
		return instr, ferr
	}

	sess.Saved = true
	o.store.Remove(sess.UserID, sess.ID)
	logger.Info(ctx, "flow", "flow.complete",
		slog.String("status", "ok"),
		slog.Int64("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return Instruction{
		Kind:    InstructionComplete,
		Text:    lead + completionText(rec),
		Options: []Option{OptionRestart},
		State:   sess.State,
		Record:  &rec,
	}, nil
}

func (o *Orchestrator) generateQuestions(ctx context.Context, sess session.Session) ([]product.Question, error) {
	pc := product.ContextOf(sess.Product.Clone())
	start := time.Now()
	qs, err := callWithTimeout(ctx, o.cfg.AITimeout, func(c context.Context) ([]product.Question, error) {
		return o.questions.GenerateQuestions(c, pc)
	})
	if err == nil {
		err = validateQuestions(qs)
	}
	logger.Info(ctx, "flow", "flow.questions",
		slog.String("status", logger.Status(err)),
		slog.Int64("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
		slog.Int("count", len(qs)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	if err != nil {
		return nil, err
	}
	return append([]product.Question(nil), qs...), nil
}

func (o *Orchestrator) describe(ctx context.Context, sess session.Session) (string, error) {
	rec := sess.Record()
	start := time.Now()
	desc, err := callWithTimeout(ctx, o.cfg.AITimeout, func(c context.Context) (string, error) {
		return o.describer.GenerateDescription(c, rec)
	})
	if err == nil && strings.TrimSpace(desc) == "" {
		err = errors.New("empty description")
	}
	logger.Info(ctx, "flow", "flow.describe",
		slog.String("status", logger.Status(err)),
		slog.Int64("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return strings.TrimSpace(desc), err
}

// fail keeps the session where it is so the seller can retry the failed call.
func (o *Orchestrator) fail(ctx context.Context, sess session.Session, op, lead, text string, cause error) (Instruction, error) {
	kind := KindFailure
	if errors.Is(cause, context.DeadlineExceeded) {
		kind = KindTimeout
		text = msgTimedOut + text
	}
	if err := o.store.Save(sess); err != nil {
		return o.gone(ctx, sess, op)
	}
	logger.Warn(ctx, "flow", "flow.collaborator",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.Int64("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
		slog.String("err_code", string(kind)),
		slog.Bool("retryable", true),
		slog.Any("err", cause),
	)
	return Instruction{
		Kind:    InstructionFailure,
		Text:    lead + text,
		Options: []Option{OptionRetry, OptionRestart},
		State:   sess.State,
	}, newError(kind, op, cause)
}

func (o *Orchestrator) gone(ctx context.Context, sess session.Session, op string) (Instruction, error) {
	logger.Info(ctx, "flow", "flow.discard",
		slog.String("status", "skip"),
		slog.String("op", op),
		slog.Int64("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
	)
	return Instruction{
		Kind:    InstructionFailure,
		Text:    msgGone,
		Options: []Option{OptionRestart},
		State:   session.Initial(),
	}, newError(KindGone, op, session.ErrGone)
}

func (o *Orchestrator) prompt(sess session.Session, lead string) Instruction {
	text, opts := stepPrompt(sess)
	return Instruction{Kind: InstructionPrompt, Text: lead + text, Options: opts, State: sess.State}
}

func (o *Orchestrator) reject(sess session.Session, reason string) Instruction {
	text := invalidText(reason)
	prompt, opts := stepPrompt(sess)
	if sess.State.Step == session.StepAwaitingSpecAnswers && len(sess.Questions) > 0 {
		text += "\n\n" + prompt
	}
	return Instruction{Kind: InstructionRetry, Text: text, Options: opts, State: sess.State}
}

func validateQuestions(qs []product.Question) error {
	if len(qs) != product.QuestionCount {
		return fmt.Errorf("generated %d questions, want %d", len(qs), product.QuestionCount)
	}
	for i, q := range qs {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d is empty", i)
		}
	}
	return nil
}

func metaOf(ev Event) session.Meta {
	return session.Meta{SellerName: ev.UserName}
}

type callResult[T any] struct {
	val T
	err error
}

// callWithTimeout bounds fn by timeout even when fn ignores its context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult[T]{err: fmt.Errorf("collaborator panic: %v", r)}
			}
		}()
		v, err := fn(cctx)
		done <- callResult[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-cctx.Done():
		var zero T
		return zero, cctx.Err()
	}
}
