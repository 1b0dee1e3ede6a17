package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Executor runs a probe set once.
type Executor struct {
	Kinds *Kinds

	// Concurrency bounds the number of probes in flight. Values below 1
	// run the probes sequentially.
	Concurrency int

	// Now is the clock handed to the runners; time.Now when nil.
	Now func() time.Time
}

func (e *Executor) concurrency() int64 {
	if e.Concurrency < 1 {
		return 1
	}
	return int64(e.Concurrency)
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Run executes every probe exactly once and returns one Result per probe
// name. It never fails; probe errors and panics become failure results.
func (e *Executor) Run(ctx context.Context, probes []Resolved) map[string]Result {
	var (
		sem     = semaphore.NewWeighted(e.concurrency())
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Result, len(probes))
	)

	for i := range probes {
		p := probes[i]

		// Acquire only fails on a cancelled context; the probe still gets
		// a result so the map stays complete.
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			results[p.Name] = Failure("Uncaught exception: %s", err)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			res := e.runOne(ctx, p)

			mu.Lock()
			results[p.Name] = res
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results
}

func (e *Executor) runOne(ctx context.Context, p Resolved) (res Result) {
	fields := log.Fields{"kind": "probe", "name": p.Name, "type": p.Kind}

	runner, ok := e.Kinds.Lookup(p.Kind)
	if !ok {
		res = Failure("Invalid tester type %q, valid types are: %s", p.Kind, strings.Join(e.Kinds.Names(), ", "))
		log.WithFields(fields).Warn(res.Message)
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res = Failure("Uncaught exception: %s", fmt.Sprint(r))
			log.WithFields(fields).WithField("panic", r).Error("probe panicked")
		}
	}()

	start := time.Now()
	res, err := runner(ctx, Request{Name: p.Name, Params: p.Params, Conn: p.Conn, Now: e.now()})
	if err != nil {
		res = Failure("Uncaught exception: %s", err)
	}

	fields["status"] = res.Status
	fields["took"] = time.Since(start).String()
	if res.OK() {
		log.WithFields(fields).Debug("probe finished")
	} else {
		log.WithFields(fields).WithField("message", res.Message).Info("probe failed")
	}
	return res
}
