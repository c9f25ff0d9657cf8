package hashsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"example.org/hashsearch/powlib"
	"github.com/DistributedClocks/tracing"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// MaxTasks bounds the number of hash workers in flight at once.
const MaxTasks = 10

var ErrExhausted = errors.New("candidate range exhausted")

// Result summarises a finished search. Matches are only written out as they
// are found, Found counts them. LastAsked is the next candidate the scheduler
// would have dispatched, or the final candidate when the range was exhausted.
type Result struct {
	Found     uint
	LastAsked uint64
	Elapsed   time.Duration
	Exhausted bool
}

type Option func(*Searcher)

// WithOutput sets where match lines are written. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Searcher) { s.out = w }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) { s.log = logger }
}

// WithRecorder overrides the tracer built from TracerServerAddr.
func WithRecorder(r ActionRecorder) Option {
	return func(s *Searcher) { s.tracer = r }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Searcher) { s.metrics = m }
}

type Searcher struct {
	config      SearchConfig
	out         io.Writer
	log         *slog.Logger
	tracer      ActionRecorder
	ownedTracer *tracing.Tracer
	metrics     *Metrics
	maxTasks    int64
	evaluate    func(candidate uint64, numTrailingZeros uint) powlib.Outcome
	initialized bool
}

func NewSearcher(config SearchConfig, opts ...Option) *Searcher {
	s := &Searcher{
		config:   config,
		out:      os.Stdout,
		maxTasks: MaxTasks,
		evaluate: powlib.Evaluate,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// Initialize validates the config and connects to the tracing server when one
// is configured and no recorder was supplied.
func (s *Searcher) Initialize() error {
	if s.initialized {
		return errors.New("searcher has been initialized before")
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.config.SearchID == "" {
		s.config.SearchID = "hashsearch-" + uuid.NewString()
	}
	if s.tracer == nil && s.config.TracerServerAddr != "" {
		s.ownedTracer = tracing.NewTracer(tracing.TracerConfig{
			ServerAddress:  s.config.TracerServerAddr,
			TracerIdentity: s.config.SearchID,
			Secret:         s.config.TracerSecret,
		})
		s.tracer = s.ownedTracer
	}
	if s.tracer == nil {
		s.tracer = nopRecorder{}
	}
	s.initialized = true
	return nil
}

func (s *Searcher) Close() error {
	if s.ownedTracer != nil {
		if err := s.ownedTracer.Close(); err != nil {
			return fmt.Errorf("closing tracer: %w", err)
		}
		s.ownedTracer = nil
	}
	s.initialized = false
	return nil
}

// Run searches until MatchesNeeded matches have been printed, the candidate
// range is exhausted (ErrExhausted) or ctx is done. The partial result is
// returned in every case.
func (s *Searcher) Run(ctx context.Context) (Result, error) {
	if !s.initialized {
		if err := s.Initialize(); err != nil {
			return Result{}, err
		}
	}

	l := s.newLoop()

	s.tracer.RecordAction(SearchBegin{
		SearchID:      s.config.SearchID,
		ZerosNeeded:   s.config.ZerosNeeded,
		MatchesNeeded: s.config.MatchesNeeded,
		Start:         s.config.Start,
	})
	s.log.Info("search started",
		"search_id", s.config.SearchID,
		"zeros", s.config.ZerosNeeded,
		"matches", s.config.MatchesNeeded,
		"start", s.config.Start)

	startTime := time.Now()
	err := l.run(ctx)

	res := l.result
	res.Elapsed = time.Since(startTime)
	res.LastAsked = l.next
	s.metrics.SearchDuration.Set(res.Elapsed.Seconds())
	if l.inFlight > 0 {
		s.log.Debug("abandoning in-flight workers", "count", l.inFlight)
		s.metrics.OutcomesDiscarded.Add(float64(l.inFlight))
		s.metrics.InFlightWorkers.Set(0)
	}

	if err != nil {
		s.log.Warn("search interrupted", "error", err, "matches", res.Found)
		return res, err
	}
	if res.Exhausted {
		s.tracer.RecordAction(SearchExhausted{
			SearchID:  s.config.SearchID,
			Matches:   res.Found,
			LastAsked: res.LastAsked,
			Elapsed:   res.Elapsed,
		})
		s.log.Warn("candidate range exhausted", "matches", res.Found, "last_asked", res.LastAsked)
		return res, ErrExhausted
	}
	s.tracer.RecordAction(SearchComplete{
		SearchID:  s.config.SearchID,
		Matches:   res.Found,
		LastAsked: res.LastAsked,
		Elapsed:   res.Elapsed,
	})
	s.log.Info("search complete", "elapsed", res.Elapsed, "last_asked", res.LastAsked)
	return res, nil
}

func (s *Searcher) newLoop() *searchLoop {
	// At most maxTasks workers are in flight, so no send ever blocks.
	return &searchLoop{
		Searcher:  s,
		sem:       semaphore.NewWeighted(s.maxTasks),
		notify:    make(powlib.NotifyChannel, s.maxTasks),
		next:      s.config.Start,
		remaining: s.config.MatchesNeeded,
	}
}

// searchLoop holds the scheduler and aggregator state for one Run. All of
// its fields are owned by the goroutine calling run; workers only see the
// notify channel.
type searchLoop struct {
	*Searcher
	sem       *semaphore.Weighted
	notify    powlib.NotifyChannel
	next      uint64
	inFlight  int64
	remaining uint
	exhausted bool
	result    Result
}

func (l *searchLoop) run(ctx context.Context) error {
	for l.remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.exhausted && l.sem.TryAcquire(1) {
			l.dispatch()
			l.drain()
			continue
		}
		if l.exhausted && l.inFlight == 0 {
			l.result.Exhausted = true
			return nil
		}
		// Every slot is taken or nothing is left to dispatch, so wait for a
		// worker to report back.
		select {
		case out := <-l.notify:
			l.collect(out)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (l *searchLoop) dispatch() {
	candidate, zeros := l.next, l.config.ZerosNeeded
	evaluate, notify := l.evaluate, l.notify
	go func() {
		notify <- evaluate(candidate, zeros)
	}()
	l.inFlight++
	l.metrics.CandidatesDispatched.Inc()
	l.metrics.InFlightWorkers.Inc()
	if candidate == math.MaxUint64 {
		l.exhausted = true
		return
	}
	l.next++
}

// drain consumes whatever outcomes are ready without blocking. It stops as
// soon as the last needed match is seen so late outcomes are never printed.
func (l *searchLoop) drain() {
	for l.remaining > 0 {
		select {
		case out := <-l.notify:
			l.collect(out)
		default:
			return
		}
	}
}

func (l *searchLoop) collect(out powlib.Outcome) {
	l.inFlight--
	l.sem.Release(1)
	l.metrics.InFlightWorkers.Dec()
	if !out.Matched {
		l.metrics.Outcomes.WithLabelValues("no_match").Inc()
		return
	}
	l.metrics.Outcomes.WithLabelValues("match").Inc()
	if _, err := fmt.Fprintf(l.out, "%d, %q\n", out.Candidate, out.Digest); err != nil {
		l.log.Warn("writing match", "candidate", out.Candidate, "error", err)
	}
	l.remaining--
	l.result.Found++
	l.tracer.RecordAction(SearchMatch{
		SearchID:  l.config.SearchID,
		Candidate: out.Candidate,
		Digest:    out.Digest,
	})
}
