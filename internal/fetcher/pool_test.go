package fetcher

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twphl/ddb-harvester/pkg/oai"
)

type mockFetcher struct {
	calls   int32
	failFor map[string]error
	body    []byte
}

func (m *mockFetcher) GetRecord(ctx context.Context, identifier string) (*oai.Record, []byte, error) {
	atomic.AddInt32(&m.calls, 1)
	if err, ok := m.failFor[identifier]; ok {
		return nil, nil, err
	}
	record := &oai.Record{Header: oai.Header{Identifier: identifier}}
	return record, m.body, nil
}

type mockStorage struct {
	mu       sync.Mutex
	existing map[string]bool
	saved    map[string][]byte
	saveErr  error
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		existing: make(map[string]bool),
		saved:    make(map[string][]byte),
	}
}

func (m *mockStorage) IsSaved(set, identifier string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing[set+"/"+identifier]
}

func (m *mockStorage) SaveRecord(r io.Reader, set, identifier string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[set+"/"+identifier] = data
	return nil
}

type nopLimiter struct{}

func (nopLimiter) Allow() bool { return true }
func (nopLimiter) Wait()       {}
func (nopLimiter) Reset()      {}

func collectResults(t *testing.T, pool *Pool, want int) []Result {
	t.Helper()

	results := make([]Result, 0, want)
	timeout := time.After(5 * time.Second)
	for len(results) < want {
		select {
		case r, ok := <-pool.Results():
			if !ok {
				return results
			}
			results = append(results, r)
		case <-timeout:
			t.Fatalf("timed out after %d of %d results", len(results), want)
		}
	}
	return results
}

func TestPoolFetchesAndStoresRecords(t *testing.T) {
	fetcher := &mockFetcher{body: []byte("<OAI-PMH/>")}
	storage := newMockStorage()

	pool := NewPool(context.Background(), 4, fetcher, storage, nopLimiter{}, nil)
	pool.Start()

	jobs := []Job{
		{Set: "abc123", Identifier: "oai:1"},
		{Set: "abc123", Identifier: "oai:2"},
		{Set: "def456", Identifier: "oai:3"},
	}
	for _, job := range jobs {
		require.NoError(t, pool.Submit(job))
	}

	results := collectResults(t, pool, len(jobs))
	pool.Stop()

	for _, r := range results {
		assert.True(t, r.Success, "job %v", r.Job)
		assert.False(t, r.Skipped)
		assert.Equal(t, len("<OAI-PMH/>"), r.Size)
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&fetcher.calls))
	assert.Equal(t, []byte("<OAI-PMH/>"), storage.saved["abc123/oai:1"])
	assert.Len(t, storage.saved, 3)
}

func TestPoolSkipsExistingRecords(t *testing.T) {
	fetcher := &mockFetcher{body: []byte("<OAI-PMH/>")}
	storage := newMockStorage()
	storage.existing["abc123/oai:1"] = true

	pool := NewPool(context.Background(), 2, fetcher, storage, nopLimiter{}, nil)
	pool.Start()

	require.NoError(t, pool.Submit(Job{Set: "abc123", Identifier: "oai:1"}))
	require.NoError(t, pool.Submit(Job{Set: "abc123", Identifier: "oai:2"}))

	results := collectResults(t, pool, 2)
	pool.Stop()

	var skipped, fetched int
	for _, r := range results {
		assert.True(t, r.Success)
		if r.Skipped {
			skipped++
		} else {
			fetched++
		}
	}
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, fetched)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

func TestPoolReportsFetchFailures(t *testing.T) {
	fetchErr := errors.New("endpoint unreachable")
	fetcher := &mockFetcher{
		body:    []byte("<OAI-PMH/>"),
		failFor: map[string]error{"oai:bad": fetchErr},
	}
	storage := newMockStorage()

	pool := NewPool(context.Background(), 2, fetcher, storage, nopLimiter{}, nil)
	pool.Start()

	require.NoError(t, pool.Submit(Job{Set: "abc123", Identifier: "oai:good"}))
	require.NoError(t, pool.Submit(Job{Set: "abc123", Identifier: "oai:bad"}))

	results := collectResults(t, pool, 2)
	pool.Stop()

	byID := map[string]Result{}
	for _, r := range results {
		byID[r.Job.Identifier] = r
	}

	assert.True(t, byID["oai:good"].Success)
	require.False(t, byID["oai:bad"].Success)
	assert.ErrorIs(t, byID["oai:bad"].Error, fetchErr)
	assert.NotContains(t, storage.saved, "abc123/oai:bad")
}

func TestPoolReportsSaveFailures(t *testing.T) {
	fetcher := &mockFetcher{body: []byte("<OAI-PMH/>")}
	storage := newMockStorage()
	storage.saveErr = errors.New("disk full")

	pool := NewPool(context.Background(), 1, fetcher, storage, nopLimiter{}, nil)
	pool.Start()

	require.NoError(t, pool.Submit(Job{Set: "abc123", Identifier: "oai:1"}))

	results := collectResults(t, pool, 1)
	pool.Stop()

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.ErrorIs(t, results[0].Error, storage.saveErr)
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 1, &mockFetcher{}, newMockStorage(), nopLimiter{}, nil)
	pool.Start()
	pool.Stop()

	err := pool.Submit(Job{Set: "abc123", Identifier: "oai:1"})
	assert.Error(t, err)
}

func TestPoolStopDrainsQueue(t *testing.T) {
	fetcher := &mockFetcher{body: []byte("<r/>")}
	storage := newMockStorage()

	pool := NewPool(context.Background(), 2, fetcher, storage, nopLimiter{}, nil)
	pool.Start()

	const jobs = 4
	for i := 0; i < jobs; i++ {
		require.NoError(t, pool.Submit(Job{Set: "abc123", Identifier: string(rune('a' + i))}))
	}

	collectResults(t, pool, jobs)
	pool.Stop()

	assert.Equal(t, int32(jobs), atomic.LoadInt32(&fetcher.calls))
	assert.Len(t, storage.saved, jobs)
}
