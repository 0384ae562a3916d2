package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/usecase"
)

type fakeRunner struct {
	mu   sync.Mutex
	runs [][]string
}

func (f *fakeRunner) Run(_ context.Context, stages []string) (usecase.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, stages)
	return usecase.RunReport{RunID: "x"}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, nil)
	require.NoError(t, s.RegisterAll(Specs{Markets: "0 */5 * * * *", Analytics: "30 */5 * * * *"}))
	assert.Equal(t, 2, s.Entries())

	assert.Error(t, s.RegisterAll(Specs{Feeds: "not a spec"}))
}

func TestJobsRun(t *testing.T) {
	r := &fakeRunner{}
	s := NewScheduler(r, nil)
	require.NoError(t, s.RegisterAll(Specs{Analytics: "* * * * * *"}))
	s.Start()
	require.Eventually(t, func() bool { return r.count() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, usecase.AnalyticsOnly, r.runs[0])
}
