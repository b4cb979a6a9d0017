// Package runner drives the load phase: every virtual user fires its share of
// the code pool at the validation endpoint, one request per code, and all
// results are folded into a single set of aggregate metrics.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"redemption.loadtest/internal/partition"
)

const attackName = "code-validation"

// ErrEmptyPool is returned when Run is handed no codes. Load generation must
// never start against an empty pool; it would measure nothing.
var ErrEmptyPool = errors.New("refusing to run against an empty code pool")

// ErrInvalidOptions signals an unusable runner configuration.
var ErrInvalidOptions = errors.New("invalid runner options")

// Options configures a load run.
type Options struct {
	TargetURL    string
	Token        string
	VirtualUsers int
	WorkerRPS    int
	Timeout      time.Duration
}

// Runner executes one load run. Requests to the target pass through a circuit
// breaker so a collapsing service is not hammered for the rest of the run.
type Runner struct {
	opts    Options
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	seq     uint64
}

// New creates a runner. The breaker trips once at least 10 requests have been
// seen in the current interval and half of them failed.
func New(opts Options) *Runner {
	settings := gobreaker.Settings{
		Name:        "Validation-Endpoint",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &Runner{
		opts: opts,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Run partitions the pool across the configured virtual users, fires one
// validation request per code, and returns the closed aggregate metrics.
func (r *Runner) Run(ctx context.Context, pool []string) (*vegeta.Metrics, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if r.opts.VirtualUsers < 1 {
		return nil, fmt.Errorf("%w: virtual users must be >= 1, got %d", partition.ErrInvalidArgument, r.opts.VirtualUsers)
	}
	if r.opts.WorkerRPS < 1 {
		return nil, fmt.Errorf("%w: worker rps must be >= 1, got %d", ErrInvalidOptions, r.opts.WorkerRPS)
	}

	workers := make(map[int][]string, r.opts.VirtualUsers)
	for w := 1; w <= r.opts.VirtualUsers; w++ {
		slice, err := partition.ComputeSlice(pool, r.opts.VirtualUsers, w)
		if err != nil {
			return nil, fmt.Errorf("failed to partition code pool: %w", err)
		}
		workers[w] = slice
	}

	results := make(chan *vegeta.Result, r.opts.VirtualUsers)
	var wg sync.WaitGroup
	for w, slice := range workers {
		wg.Add(1)
		go r.worker(ctx, w, slice, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var metrics vegeta.Metrics
	for res := range results {
		metrics.Add(res)
	}
	metrics.Close()

	return &metrics, nil
}

// worker walks one virtual user's slice at the configured pace. A cancelled
// context stops the worker between requests.
func (r *Runner) worker(ctx context.Context, workerIndex int, codes []string, results chan<- *vegeta.Result, wg *sync.WaitGroup) {
	defer wg.Done()

	limiter := rate.NewLimiter(rate.Limit(r.opts.WorkerRPS), 1)
	for _, code := range codes {
		if err := limiter.Wait(ctx); err != nil {
			log.Ctx(ctx).Warn().Int("worker", workerIndex).Msg("Worker stopped before finishing its slice")
			return
		}
		results <- r.fire(ctx, code)
	}
	log.Ctx(ctx).Debug().Int("worker", workerIndex).Int("codes", len(codes)).Msg("Worker finished its slice")
}

type validateRequest struct {
	Code string `json:"code"`
}

type hit struct {
	code    uint16
	bytesIn uint64
}

// fire issues a single validation POST through the circuit breaker and records
// the outcome as a load-test result.
func (r *Runner) fire(ctx context.Context, code string) *vegeta.Result {
	res := &vegeta.Result{
		Attack:    attackName,
		Seq:       atomic.AddUint64(&r.seq, 1) - 1,
		Timestamp: time.Now(),
		Method:    http.MethodPost,
		URL:       r.opts.TargetURL,
	}

	began := time.Now()
	v, err := r.breaker.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(validateRequest{Code: code})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal validation payload: %w", err)
		}
		res.BytesOut = uint64(len(payload))

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.TargetURL, bytes.NewBuffer(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create validation request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if r.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+r.opts.Token)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		n, _ := io.Copy(io.Discard, resp.Body)
		h := hit{code: uint16(resp.StatusCode), bytesIn: uint64(n)}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return h, fmt.Errorf("validation endpoint returned status %d", resp.StatusCode)
		}
		return h, nil
	})

	res.Latency = time.Since(began)
	if h, ok := v.(hit); ok {
		res.Code = h.code
		res.BytesIn = h.bytesIn
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
