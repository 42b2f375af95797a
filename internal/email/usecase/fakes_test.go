package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	emaildomain "mail-assistant/internal/email/domain"
	"mail-assistant/internal/email/repository"
	"mail-assistant/pkg/vectorindex"
)

type fakeProvider struct {
	mu        sync.Mutex
	ids       []string
	records   map[string]*emaildomain.MailRecord
	failFetch map[string]bool
	fetched   []string

	listDelay time.Duration
	inflight  int32
	maxSeen   int32
}

func newFakeProvider(records ...*emaildomain.MailRecord) *fakeProvider {
	p := &fakeProvider{records: make(map[string]*emaildomain.MailRecord), failFetch: make(map[string]bool)}
	for _, r := range records {
		p.ids = append(p.ids, r.ID)
		p.records[r.ID] = r
	}
	return p
}

func (p *fakeProvider) ListMessageIDs(ctx context.Context, _ string, max int) ([]string, error) {
	n := atomic.AddInt32(&p.inflight, 1)
	defer atomic.AddInt32(&p.inflight, -1)
	for {
		seen := atomic.LoadInt32(&p.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&p.maxSeen, seen, n) {
			break
		}
	}
	if p.listDelay > 0 {
		select {
		case <-time.After(p.listDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	ids := p.ids
	if len(ids) > max {
		ids = ids[:max]
	}
	return append([]string(nil), ids...), nil
}

func (p *fakeProvider) GetMessage(_ context.Context, id string) (*emaildomain.MailRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched = append(p.fetched, id)
	if p.failFetch[id] {
		return nil, fmt.Errorf("fetch %s: backend unavailable", id)
	}
	rec, ok := p.records[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	cp := *rec
	return &cp, nil
}

type fakeConnector struct {
	provider *fakeProvider
	err      error
	connects int32
}

func (c *fakeConnector) Connect(_ context.Context, _ string) (emaildomain.MailProvider, error) {
	atomic.AddInt32(&c.connects, 1)
	if c.err != nil {
		return nil, c.err
	}
	return c.provider, nil
}

// flakyStore fails SaveEmail for selected ids.
type flakyStore struct {
	*repository.MemoryEmailRepository
	fail map[string]bool
}

func (s *flakyStore) SaveEmail(ctx context.Context, email *emaildomain.MailRecord) error {
	if s.fail[email.ID] {
		return errors.New("document store write failed")
	}
	return s.MemoryEmailRepository.SaveEmail(ctx, email)
}

// recordingIndex wraps the in-memory index, keeps batch sizes and checks
// that every upserted id is already durable in the store.
type recordingIndex struct {
	*vectorindex.MemoryIndex
	store repository.EmailRepository

	mu       sync.Mutex
	batches  [][]string
	orphans  []string
	failIDs  map[string]bool
	queryErr error
}

func newRecordingIndex(store repository.EmailRepository) *recordingIndex {
	return &recordingIndex{MemoryIndex: vectorindex.NewMemoryIndex(768), store: store, failIDs: map[string]bool{}}
}

func (r *recordingIndex) UpsertBatch(ctx context.Context, name string, entries []vectorindex.Entry) error {
	ids := make([]string, 0, len(entries))
	var ok []vectorindex.Entry
	var failed []string
	for _, e := range entries {
		ids = append(ids, e.ID)
		if rec, _ := r.store.GetEmailByID(ctx, e.ID); rec == nil {
			r.mu.Lock()
			r.orphans = append(r.orphans, e.ID)
			r.mu.Unlock()
		}
		if r.failIDs[e.ID] {
			failed = append(failed, e.ID)
			continue
		}
		ok = append(ok, e)
	}
	r.mu.Lock()
	r.batches = append(r.batches, ids)
	r.mu.Unlock()

	if err := r.MemoryIndex.UpsertBatch(ctx, name, ok); err != nil {
		return err
	}
	if len(failed) > 0 {
		return &vectorindex.UpsertError{FailedIDs: failed, Err: errors.New("quota exceeded")}
	}
	return nil
}

func (r *recordingIndex) Query(ctx context.Context, name string, vectors [][]float32, topK int) (*vectorindex.RankedResults, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.MemoryIndex.Query(ctx, name, vectors, topK)
}

func (r *recordingIndex) batchSizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sizes := make([]int, len(r.batches))
	for i, b := range r.batches {
		sizes[i] = len(b)
	}
	return sizes
}

type stubAssistant struct {
	refined      string
	refineErr    error
	summary      string
	summarizeErr error

	refineCalls    int
	summarizeCalls int
	lastSubject    string
}

func (a *stubAssistant) RefineQuery(_ context.Context, _ string) (string, error) {
	a.refineCalls++
	return a.refined, a.refineErr
}

func (a *stubAssistant) SummarizeEmail(_ context.Context, subject, _, _ string) (string, error) {
	a.summarizeCalls++
	a.lastSubject = subject
	return a.summary, a.summarizeErr
}

func mail(id, subject, from, body string) *emaildomain.MailRecord {
	return &emaildomain.MailRecord{ID: id, Subject: subject, From: from, Body: body, Date: "Mon, 2 Mar 2026 10:00:00 +0000"}
}
