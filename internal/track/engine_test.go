package track

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tekfaso/urgelec/internal/models"
)

type fakeGateway struct {
	mu sync.Mutex

	intervention    models.Intervention
	interventionErr error
	quotes          []models.Quote
	quotesErr       error
	decideErr       error
	reviewErr       error

	interventionCalls int
	quoteCalls        int
	decideCalls       int
	reviewCalls       int

	// When set, GetIntervention blocks until the channel is closed.
	blockIntervention chan struct{}
	// When set, Accept/RejectQuote block until the channel is closed.
	blockDecide chan struct{}
}

func (f *fakeGateway) GetIntervention(ctx context.Context, id, phone string) (models.Intervention, error) {
	f.mu.Lock()
	f.interventionCalls++
	block := f.blockIntervention
	in, err := f.intervention, f.interventionErr
	f.mu.Unlock()
	if block != nil {
		<-block
		f.mu.Lock()
		in, err = f.intervention, f.interventionErr
		f.mu.Unlock()
	}
	return in, err
}

func (f *fakeGateway) ListQuotes(ctx context.Context, id, phone string) ([]models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.quotesErr != nil {
		return nil, f.quotesErr
	}
	out := make([]models.Quote, len(f.quotes))
	copy(out, f.quotes)
	return out, nil
}

func (f *fakeGateway) AcceptQuote(ctx context.Context, quoteID, phone string) error {
	return f.decide()
}

func (f *fakeGateway) RejectQuote(ctx context.Context, quoteID, phone, reason string) error {
	return f.decide()
}

func (f *fakeGateway) decide() error {
	f.mu.Lock()
	f.decideCalls++
	block := f.blockDecide
	err := f.decideErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeGateway) SubmitReview(ctx context.Context, review models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewCalls++
	return f.reviewErr
}

func (f *fakeGateway) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interventionCalls, f.quoteCalls
}

func (f *fakeGateway) setIntervention(in models.Intervention) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intervention = in
}

func startedEngine(t *testing.T, gw *fakeGateway, opts Options) *Engine {
	t.Helper()
	e, err := New(gw, "42", "70000000", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(e.Stop)
	return e
}

func TestNewRequiresIdentity(t *testing.T) {
	if _, err := New(&fakeGateway{}, "", "70000000", Options{}); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity for missing id, got %v", err)
	}
	if _, err := New(&fakeGateway{}, "42", "", Options{}); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity for missing phone, got %v", err)
	}
}

func TestStartFailsWhenInterventionUnavailable(t *testing.T) {
	gw := &fakeGateway{interventionErr: errors.New("503")}
	e, err := New(gw, "42", "70000000", Options{Interval: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Start(context.Background()); err == nil {
		t.Fatalf("expected initial-load error")
	}
}

func TestStartToleratesInitialQuoteFailure(t *testing.T) {
	gw := &fakeGateway{
		intervention: models.Intervention{ID: "42", Status: models.StatusPending},
		quotesErr:    errors.New("503"),
	}
	e := startedEngine(t, gw, Options{Interval: time.Hour})
	if e.Snapshot().Intervention.ID != "42" {
		t.Fatalf("intervention not loaded")
	}
}

func TestPollingStopsOnTerminalStatus(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusClosed}}
	startedEngine(t, gw, Options{Interval: 20 * time.Millisecond})

	time.Sleep(70 * time.Millisecond)
	inCalls, qCalls := gw.counts()
	if inCalls != 1 || qCalls != 1 {
		t.Fatalf("expected only the initial fetch for a closed intervention, got %d/%d", inCalls, qCalls)
	}
}

func TestPollingContinuesWhileActive(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusPending}}
	startedEngine(t, gw, Options{Interval: 20 * time.Millisecond})

	deadline := time.Now().Add(time.Second)
	for {
		inCalls, _ := gw.counts()
		if inCalls >= 3 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("polling did not re-fetch an active intervention")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManualRefreshBypassesTerminalShortCircuit(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusCompleted}}
	e := startedEngine(t, gw, Options{Interval: time.Hour, AlreadyRated: true})

	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	inCalls, qCalls := gw.counts()
	if inCalls != 2 || qCalls != 2 {
		t.Fatalf("manual refresh must always fetch, got %d/%d", inCalls, qCalls)
	}
}

func TestVisibleQuotesHidesRejected(t *testing.T) {
	gw := &fakeGateway{
		intervention: models.Intervention{ID: "42", Status: models.StatusInProgress},
		quotes: []models.Quote{
			{ID: "1", Status: models.QuoteStatusPending},
			{ID: "2", Status: models.QuoteStatusRejected},
		},
	}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	snap := e.Snapshot()
	if len(snap.Quotes) != 2 {
		t.Fatalf("rejected quotes must stay in the collection, got %d", len(snap.Quotes))
	}
	visible := snap.VisibleQuotes()
	if len(visible) != 1 || visible[0].ID != "1" {
		t.Fatalf("expected only the pending quote visible, got %+v", visible)
	}
}

func TestDecideFailureLeavesQuotesUntouched(t *testing.T) {
	gw := &fakeGateway{
		intervention: models.Intervention{ID: "42", Status: models.StatusInProgress},
		quotes:       []models.Quote{{ID: "1", Status: models.QuoteStatusPending}},
		decideErr:    errors.New("backend error 409: quote already decided"),
	}
	e := startedEngine(t, gw, Options{Interval: time.Hour})
	before := e.Snapshot()

	if err := e.Decide(context.Background(), "1", true, ""); err == nil {
		t.Fatalf("expected decision failure")
	}
	after := e.Snapshot()
	if len(after.Quotes) != 1 || after.Quotes[0].Status != models.QuoteStatusPending {
		t.Fatalf("quote state mutated on failure: %+v", after.Quotes)
	}
	if len(before.VisibleQuotes()) != len(after.VisibleQuotes()) {
		t.Fatalf("visible quote list changed on failure")
	}
}

func TestDecideSuccessResyncsBothCollections(t *testing.T) {
	gw := &fakeGateway{
		intervention: models.Intervention{ID: "42", Status: models.StatusPending},
		quotes:       []models.Quote{{ID: "1", Status: models.QuoteStatusPending}},
	}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	// Server-side effects of the acceptance: the quote flips and the
	// intervention advances.
	gw.setIntervention(models.Intervention{ID: "42", Status: models.StatusAccepted})
	gw.mu.Lock()
	gw.quotes = []models.Quote{{ID: "1", Status: models.QuoteStatusAccepted}}
	gw.mu.Unlock()

	if err := e.Decide(context.Background(), "1", true, ""); err != nil {
		t.Fatalf("decision failed: %v", err)
	}
	snap := e.Snapshot()
	if snap.Intervention.Status != models.StatusAccepted {
		t.Fatalf("intervention not resynced: %+v", snap.Intervention)
	}
	if snap.Quotes[0].Status != models.QuoteStatusAccepted {
		t.Fatalf("quotes not resynced: %+v", snap.Quotes)
	}
}

func TestDecideSingleFlight(t *testing.T) {
	block := make(chan struct{})
	gw := &fakeGateway{
		intervention: models.Intervention{ID: "42", Status: models.StatusInProgress},
		quotes:       []models.Quote{{ID: "1", Status: models.QuoteStatusPending}},
		blockDecide:  block,
	}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- e.Decide(context.Background(), "1", true, "") }()

	deadline := time.Now().Add(time.Second)
	for !e.DecisionInFlight() {
		if time.Now().After(deadline) {
			t.Fatalf("first decision never started")
		}
		time.Sleep(time.Millisecond)
	}
	if err := e.Decide(context.Background(), "1", false, "too expensive"); !errors.Is(err, ErrDecisionInFlight) {
		t.Fatalf("expected ErrDecisionInFlight, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first decision failed: %v", err)
	}
	if e.DecisionInFlight() {
		t.Fatalf("decision flag not cleared")
	}
}

func TestRatingGateOpensOnCompleted(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusCompleted}}
	e := startedEngine(t, gw, Options{Interval: time.Hour})
	if !e.RatingOpen() {
		t.Fatalf("rating prompt must open on completed status")
	}
}

func TestRatingGateStaysShutAfterDismiss(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusCompleted}}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	e.DismissRating()
	if e.RatingOpen() {
		t.Fatalf("dismiss must close the prompt")
	}
	for i := 0; i < 3; i++ {
		if err := e.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
	}
	if e.RatingOpen() {
		t.Fatalf("prompt reopened after dismiss")
	}
}

func TestRatingGateStaysShutAfterSubmit(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusCompleted}}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	if err := e.SubmitRating(context.Background(), 4, "quick and clean"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if e.RatingOpen() {
		t.Fatalf("submit must close the prompt")
	}
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if e.RatingOpen() {
		t.Fatalf("prompt reopened after submit")
	}
	if err := e.SubmitRating(context.Background(), 5, ""); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
}

func TestRatingValidationKeepsPromptOpen(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusCompleted}}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	if err := e.SubmitRating(context.Background(), 0, ""); !errors.Is(err, ErrRatingRequired) {
		t.Fatalf("expected ErrRatingRequired, got %v", err)
	}
	if !e.RatingOpen() {
		t.Fatalf("validation failure must keep the prompt open")
	}
	if gw.reviewCalls != 0 {
		t.Fatalf("validation failure must not reach the backend")
	}
}

func TestRatingSubmitFailureAllowsRetry(t *testing.T) {
	gw := &fakeGateway{
		intervention: models.Intervention{ID: "42", Status: models.StatusCompleted},
		reviewErr:    errors.New("503"),
	}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	if err := e.SubmitRating(context.Background(), 5, ""); err == nil {
		t.Fatalf("expected submit failure")
	}
	if !e.RatingOpen() {
		t.Fatalf("submit failure must keep the prompt open for retry")
	}

	gw.mu.Lock()
	gw.reviewErr = nil
	gw.mu.Unlock()
	if err := e.SubmitRating(context.Background(), 5, ""); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if e.RatingOpen() {
		t.Fatalf("prompt must close after successful retry")
	}
}

func TestRatingGateSeededFromDurableRecord(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusCompleted}}
	e := startedEngine(t, gw, Options{Interval: time.Hour, AlreadyRated: true})
	if e.RatingOpen() {
		t.Fatalf("prompt must stay shut for an already-rated intervention")
	}
}

func TestStopIsolatesLateFetchResults(t *testing.T) {
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusPending}}
	e := startedEngine(t, gw, Options{Interval: time.Hour})

	block := make(chan struct{})
	gw.mu.Lock()
	gw.blockIntervention = block
	gw.mu.Unlock()

	refreshed := make(chan struct{})
	go func() {
		_ = e.Refresh(context.Background())
		close(refreshed)
	}()

	// Give the refresh time to enter the blocked fetch, then tear down.
	time.Sleep(10 * time.Millisecond)
	e.Stop()

	gw.setIntervention(models.Intervention{ID: "42", Status: models.StatusCompleted})
	close(block)
	<-refreshed

	if e.Snapshot().Intervention.Status != models.StatusPending {
		t.Fatalf("late fetch mutated state after Stop")
	}
	if e.RatingOpen() {
		t.Fatalf("late fetch opened the rating gate after Stop")
	}
}

func TestObserverSeesEveryAppliedUpdate(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	gw := &fakeGateway{intervention: models.Intervention{ID: "42", Status: models.StatusPending}}
	e := startedEngine(t, gw, Options{
		Interval: time.Hour,
		OnUpdate: func(s Snapshot) {
			mu.Lock()
			seen = append(seen, s.Intervention.Status)
			mu.Unlock()
		},
	})

	gw.setIntervention(models.Intervention{ID: "42", Status: models.StatusInProgress})
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[len(seen)-1] != models.StatusInProgress {
		t.Fatalf("observer missed the update: %v", seen)
	}
}
