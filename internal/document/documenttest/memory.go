// Package documenttest provides in-memory implementations of the document
// service dependencies for tests.
package documenttest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"sync"
	"time"

	"civicportal/internal/document"
	"civicportal/internal/utils"
	"civicportal/pkg/types"
)

// Store keeps requests and activity entries in memory. WithinTx serializes
// units of work and restores the previous state when fn fails.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	requests map[string]*types.DocumentRequest
	activity []*types.ActivityLogEntry
	seq      int

	// FailCreate, when set, is returned by CreateDocumentRequest.
	FailCreate error
}

func NewStore() *Store {
	return &Store{requests: make(map[string]*types.DocumentRequest)}
}

func (s *Store) CreateDocumentRequest(ctx context.Context, req *types.DocumentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreate != nil {
		return s.FailCreate
	}

	s.seq++
	if req.ID == "" {
		req.ID = utils.NanoID()
	}
	// Spread submissions so newest-first ordering is deterministic.
	now := time.Now().UTC().Add(time.Duration(s.seq) * time.Millisecond)
	req.SubmittedAt = now
	req.UpdatedAt = now

	s.requests[req.ID] = clone(req)
	return nil
}

func (s *Store) DocumentRequest(ctx context.Context, id string) (*types.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, types.ErrDocumentRequestNotFound
	}
	return clone(req), nil
}

func (s *Store) DocumentRequestsByResident(ctx context.Context, residentID string) ([]*types.DocumentRequest, error) {
	return s.list(func(r *types.DocumentRequest) bool { return r.ResidentID == residentID }), nil
}

func (s *Store) DocumentRequests(ctx context.Context, filter types.DocumentRequestFilter) ([]*types.DocumentRequest, error) {
	return s.list(func(r *types.DocumentRequest) bool {
		return (filter.Status == "" || r.Status == filter.Status) && (filter.Type == "" || r.Type == filter.Type)
	}), nil
}

func (s *Store) DocumentCounts(ctx context.Context) (*types.DocumentCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := new(types.DocumentCounts)
	for _, r := range s.requests {
		counts.Total++
		switch r.Status {
		case types.DocumentStatusSubmitted:
			counts.Pending++
		case types.DocumentStatusApproved:
			counts.Approved++
		case types.DocumentStatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (s *Store) TransitionStatus(ctx context.Context, t *document.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[t.ID]
	if !ok || req.Status != t.From {
		return types.ErrStatusConflict
	}

	req.Status = t.To
	req.Notes = t.Notes
	req.GeneratedFile = t.GeneratedFile
	req.DecidedBy = t.DecidedBy
	req.DecidedAt = utils.TimePtr(t.DecidedAt)
	req.UpdatedAt = t.DecidedAt
	return nil
}

func (s *Store) SetGeneratedFile(ctx context.Context, id, path string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok || req.Status != types.DocumentStatusApproved {
		return nil, types.ErrStatusConflict
	}
	previous := req.GeneratedFile
	req.GeneratedFile = &path
	req.UpdatedAt = time.Now().UTC()
	return previous, nil
}

func (s *Store) Record(ctx context.Context, entry *types.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = utils.NanoID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	cp := *entry
	s.activity = append(s.activity, &cp)
	return nil
}

// Recent returns up to limit activity entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*types.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.ActivityLogEntry, 0, len(s.activity))
	for i := len(s.activity) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *s.activity[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Activity returns every recorded entry in insertion order.
func (s *Store) Activity() []*types.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*types.ActivityLogEntry(nil), s.activity...)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repo document.Repository, activity document.ActivityLog) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := make(map[string]*types.DocumentRequest, len(s.requests))
	for id, r := range s.requests {
		snapshot[id] = clone(r)
	}
	activityLen := len(s.activity)
	s.mu.Unlock()

	if err := fn(s, s); err != nil {
		s.mu.Lock()
		s.requests = snapshot
		s.activity = s.activity[:activityLen]
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) list(match func(*types.DocumentRequest) bool) []*types.DocumentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.DocumentRequest, 0)
	for _, r := range s.requests {
		if match(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

func clone(r *types.DocumentRequest) *types.DocumentRequest {
	cp := *r
	return &cp
}

// ErrGeneration is returned by a Generator with Fail set.
var ErrGeneration = errors.New("generation failed")

// Generator stores fake PDFs in memory.
type Generator struct {
	mu    sync.Mutex
	files map[string][]byte
	seq   int

	Fail  bool
	Calls int
}

func NewGenerator() *Generator {
	return &Generator{files: make(map[string][]byte)}
}

func (g *Generator) Generate(ctx context.Context, req *types.DocumentRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls++
	if g.Fail {
		return "", ErrGeneration
	}

	g.seq++
	path := fmt.Sprintf("documents/%s_%d.pdf", req.ID, g.seq)
	g.files[path] = []byte("%PDF-1.3 " + req.ID)
	return path, nil
}

func (g *Generator) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	data, ok := g.files[path]
	if !ok {
		return nil, 0, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (g *Generator) Remove(ctx context.Context, path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.files[path]; !ok {
		return fmt.Errorf("remove %s: %w", path, fs.ErrNotExist)
	}
	delete(g.files, path)
	return nil
}

// Files returns the paths currently stored.
func (g *Generator) Files() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
