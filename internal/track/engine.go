// Package track implements the intervention tracking engine: periodic
// resynchronization of one intervention and its quotes, the quote
// accept/reject workflow, and the one-shot post-completion rating prompt.
package track

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekfaso/urgelec/internal/models"
)

const DefaultInterval = 10 * time.Second

var (
	// ErrMissingIdentity is a precondition failure: tracking needs both
	// the intervention id and the reporter phone.
	ErrMissingIdentity = errors.New("intervention id and reporter phone are required")
	// ErrDecisionInFlight rejects a quote decision while another one is
	// still outstanding.
	ErrDecisionInFlight = errors.New("a quote decision is already in flight")
	// ErrRatingRequired rejects a survey submission without a rating.
	ErrRatingRequired = errors.New("a rating of at least 1 is required")
	// ErrAlreadyRated rejects a second survey submission.
	ErrAlreadyRated = errors.New("this intervention has already been rated")
	// ErrStopped rejects operations on a torn-down engine.
	ErrStopped = errors.New("tracking engine is stopped")
)

// Gateway is the backend surface the engine depends on.
type Gateway interface {
	GetIntervention(ctx context.Context, id, phone string) (models.Intervention, error)
	ListQuotes(ctx context.Context, id, phone string) ([]models.Quote, error)
	AcceptQuote(ctx context.Context, quoteID, phone string) error
	RejectQuote(ctx context.Context, quoteID, phone, reason string) error
	SubmitReview(ctx context.Context, review models.Review) error
}

// Snapshot is the engine state handed to the observer after every applied
// update. Slices are copies; the observer may keep them.
type Snapshot struct {
	Intervention models.Intervention
	Quotes       []models.Quote
	RatingOpen   bool
}

// VisibleQuotes filters the collection down to what the reporter sees:
// pending and accepted quotes. Rejected quotes stay in the snapshot but
// are not rendered.
func (s Snapshot) VisibleQuotes() []models.Quote {
	out := make([]models.Quote, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		if q.Status == models.QuoteStatusPending || q.Status == models.QuoteStatusAccepted {
			out = append(out, q)
		}
	}
	return out
}

// Options configures an Engine.
type Options struct {
	Interval time.Duration
	Logger   zerolog.Logger
	// OnUpdate is invoked after every applied state change. It may be
	// called from the polling goroutine.
	OnUpdate func(Snapshot)
	// AlreadyRated seeds the rating gate from a durable record so a new
	// session does not re-prompt for an intervention rated earlier.
	AlreadyRated bool
}

type Engine struct {
	gw       Gateway
	id       string
	phone    string
	interval time.Duration
	logger   zerolog.Logger
	onUpdate func(Snapshot)

	mu           sync.Mutex
	intervention models.Intervention
	quotes       []models.Quote
	ratingOpen   bool
	hasRated     bool
	dismissed    bool
	deciding     bool
	stopped      bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New validates the tracking identity and builds an engine. It does not
// touch the network; call Start.
func New(gw Gateway, id, phone string, opts Options) (*Engine, error) {
	if id == "" || phone == "" {
		return nil, ErrMissingIdentity
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Engine{
		gw:       gw,
		id:       id,
		phone:    phone,
		interval: opts.Interval,
		logger:   opts.Logger,
		onUpdate: opts.OnUpdate,
		hasRated: opts.AlreadyRated,
		stop:     make(chan struct{}),
	}, nil
}

// Start performs the initial load (intervention and quotes in parallel,
// returning only after both resolve) and then launches the poll loop. A
// first fetch that yields no usable intervention fails Start; the caller
// routes to its unable-to-load screen. A failed initial quote fetch is
// logged and tolerated.
func (e *Engine) Start(ctx context.Context) error {
	var (
		wg        sync.WaitGroup
		loadErr   error
		quotesErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		loadErr = e.fetchIntervention(ctx)
	}()
	go func() {
		defer wg.Done()
		quotesErr = e.fetchQuotes(ctx)
	}()
	wg.Wait()

	if loadErr != nil {
		return fmt.Errorf("initial load: %w", loadErr)
	}
	if quotesErr != nil {
		e.logger.Warn().Err(quotesErr).Str("intervention", e.id).Msg("initial quote fetch failed")
	}

	go e.loop()
	return nil
}

// loop drives the fixed-interval resync. The tick body short-circuits
// without network calls while the last observed status is terminal.
func (e *Engine) loop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			terminal := models.Terminal(e.intervention.Status)
			e.mu.Unlock()
			if terminal {
				continue
			}
			// Fire and forget: a slow cycle may overlap the next one,
			// last resolved fetch wins.
			go func() {
				if err := e.fetchIntervention(context.Background()); err != nil {
					e.logger.Debug().Err(err).Str("intervention", e.id).Msg("background intervention refresh failed")
				}
			}()
			go func() {
				if err := e.fetchQuotes(context.Background()); err != nil {
					e.logger.Debug().Err(err).Str("intervention", e.id).Msg("background quote refresh failed")
				}
			}()
		}
	}
}

// Refresh is the manual pull-to-refresh path: it always fetches, even
// after a terminal status, and returns once both fetches resolved.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	e.mu.Unlock()

	var wg sync.WaitGroup
	var interventionErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		interventionErr = e.fetchIntervention(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := e.fetchQuotes(ctx); err != nil {
			e.logger.Debug().Err(err).Str("intervention", e.id).Msg("manual quote refresh failed")
		}
	}()
	wg.Wait()
	return interventionErr
}

// Decide relays a quote decision. Only one decision may be outstanding;
// further calls fail with ErrDecisionInFlight until it resolves. On
// success the engine resyncs both the quote collection and the
// intervention, since accepting a quote may advance the status server
// side. On failure local state is untouched.
func (e *Engine) Decide(ctx context.Context, quoteID string, accept bool, reason string) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.deciding {
		e.mu.Unlock()
		return ErrDecisionInFlight
	}
	e.deciding = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.deciding = false
		e.mu.Unlock()
	}()

	callCtx, cancel := context.WithTimeout(ctx, e.interval)
	defer cancel()
	var err error
	if accept {
		err = e.gw.AcceptQuote(callCtx, quoteID, e.phone)
	} else {
		err = e.gw.RejectQuote(callCtx, quoteID, e.phone, reason)
	}
	if err != nil {
		return err
	}

	if refreshErr := e.Refresh(ctx); refreshErr != nil {
		e.logger.Debug().Err(refreshErr).Str("quote", quoteID).Msg("post-decision resync failed")
	}
	return nil
}

// DecisionInFlight reports whether a quote decision is outstanding, so
// the caller can disable further decision actions.
func (e *Engine) DecisionInFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deciding
}

// SubmitRating posts the satisfaction survey. A rating below 1 is a
// validation failure and leaves the prompt open. A backend failure also
// leaves the prompt open so the reporter can retry. Success closes the
// gate for good.
func (e *Engine) SubmitRating(ctx context.Context, rating int, comment string) error {
	if rating < 1 {
		return ErrRatingRequired
	}
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.hasRated {
		e.mu.Unlock()
		return ErrAlreadyRated
	}
	e.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, e.interval)
	defer cancel()
	err := e.gw.SubmitReview(callCtx, models.Review{
		InterventionID: e.id,
		Rating:         rating,
		Comment:        comment,
		ClientPhone:    e.phone,
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.hasRated = true
	e.ratingOpen = false
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
	return nil
}

// DismissRating is the "later" action: it closes the prompt without
// submitting and keeps it closed for the rest of the session.
func (e *Engine) DismissRating() {
	e.mu.Lock()
	e.dismissed = true
	e.ratingOpen = false
	snap := e.snapshotLocked()
	stopped := e.stopped
	e.mu.Unlock()
	if !stopped {
		e.emit(snap)
	}
}

// Snapshot returns a copy of the current engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// RatingOpen reports whether the rating prompt should be shown.
func (e *Engine) RatingOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ratingOpen
}

// Stop cancels the poll loop. Fetches still in flight resolve as no-ops.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stop)
		e.mu.Lock()
		e.stopped = true
		e.mu.Unlock()
	})
}

func (e *Engine) fetchIntervention(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, e.interval)
	defer cancel()
	in, err := e.gw.GetIntervention(callCtx, e.id, e.phone)
	if err != nil {
		return err
	}
	e.applyIntervention(in)
	return nil
}

func (e *Engine) fetchQuotes(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, e.interval)
	defer cancel()
	quotes, err := e.gw.ListQuotes(callCtx, e.id, e.phone)
	if err != nil {
		return err
	}
	e.applyQuotes(quotes)
	return nil
}

// applyIntervention installs a fetch result and re-evaluates the rating
// gate. The guard runs after every intervention fetch: it opens the
// prompt only on completed status with both session flags clear, so a
// dismissed or submitted prompt never reopens.
func (e *Engine) applyIntervention(in models.Intervention) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.intervention = in
	if in.Status == models.StatusCompleted && !e.hasRated && !e.dismissed {
		e.ratingOpen = true
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

func (e *Engine) applyQuotes(quotes []models.Quote) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.quotes = quotes
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

func (e *Engine) snapshotLocked() Snapshot {
	quotes := make([]models.Quote, len(e.quotes))
	copy(quotes, e.quotes)
	return Snapshot{
		Intervention: e.intervention,
		Quotes:       quotes,
		RatingOpen:   e.ratingOpen,
	}
}

func (e *Engine) emit(snap Snapshot) {
	if e.onUpdate != nil {
		e.onUpdate(snap)
	}
}
