// Package memory is an in-memory store adapter. It backs tests and the
// --memory CLI mode; nothing survives process exit.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"ventureline/internal/domain"
	"ventureline/internal/store"
)

type key struct {
	ventureID string
	stage     domain.Stage
}

type Store struct {
	mu       sync.RWMutex
	ventures map[string]domain.Venture
	contents map[key]domain.StageContent
	messages map[string][]domain.ChatMessage
	reports  map[string]domain.Report
	events   []domain.Event
	nextEvt  int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		ventures: map[string]domain.Venture{},
		contents: map[key]domain.StageContent{},
		messages: map[string][]domain.ChatMessage{},
		reports:  map[string]domain.Report{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertVenture(_ context.Context, v domain.Venture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ventures[v.ID] = v
	return nil
}

func (s *Store) GetVenture(_ context.Context, id string) (domain.Venture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.ventures[id]
	if !ok {
		return domain.Venture{}, store.ErrNotFound
	}
	return v, nil
}

func (s *Store) ListVentures(_ context.Context, userID string) ([]domain.Venture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Venture
	for _, v := range s.ventures {
		if v.UserID == userID {
			res = append(res, v)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt > res[j].CreatedAt })
	return res, nil
}

func (s *Store) UpdateVenture(_ context.Context, id string, upd store.VentureUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ventures[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Title != nil {
		v.Title = *upd.Title
	}
	if upd.CurrentStage != nil {
		v.CurrentStage = *upd.CurrentStage
	}
	if upd.IsCompleted != nil {
		v.IsCompleted = *upd.IsCompleted
	}
	v.UpdatedAt = upd.UpdatedAt
	s.ventures[id] = v
	return nil
}

func (s *Store) DeleteVenture(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ventures[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.ventures, id)
	for k := range s.contents {
		if k.ventureID == id {
			delete(s.contents, k)
		}
	}
	delete(s.messages, id)
	delete(s.reports, id)
	kept := s.events[:0]
	for _, e := range s.events {
		if e.VentureID != id {
			kept = append(kept, e)
		}
	}
	s.events = kept
	return nil
}

func (s *Store) UpsertStageContent(_ context.Context, upsert store.StageContentUpsert) (domain.StageContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{upsert.VentureID, upsert.Stage}
	sc, ok := s.contents[k]
	if !ok {
		sc = domain.StageContent{
			ID:        upsert.NewID,
			VentureID: upsert.VentureID,
			Stage:     upsert.Stage,
			Content:   json.RawMessage(`{}`),
		}
	}
	if upsert.Content != nil {
		sc.Content = append(json.RawMessage(nil), upsert.Content...)
	}
	if upsert.AIAnalysis != nil {
		sc.AIAnalysis = append(json.RawMessage(nil), upsert.AIAnalysis...)
	}
	if upsert.IsCompleted != nil {
		sc.IsCompleted = *upsert.IsCompleted
	}
	sc.UpdatedAt = upsert.UpdatedAt
	s.contents[k] = sc
	return sc, nil
}

func (s *Store) GetStageContent(_ context.Context, ventureID string, stage domain.Stage) (domain.StageContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.contents[key{ventureID, stage}]
	if !ok {
		return domain.StageContent{}, store.ErrNotFound
	}
	return sc, nil
}

func (s *Store) ListStageContents(_ context.Context, ventureID string) ([]domain.StageContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.StageContent
	for k, sc := range s.contents {
		if k.ventureID == ventureID {
			res = append(res, sc)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Stage.Order() < res[j].Stage.Order() })
	return res, nil
}

func (s *Store) AppendChatMessage(_ context.Context, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.VentureID] = append(s.messages[msg.VentureID], msg)
	return nil
}

func (s *Store) ListChatMessages(_ context.Context, ventureID string, stage domain.Stage) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.ChatMessage
	for _, m := range s.messages[ventureID] {
		if m.Stage == stage {
			res = append(res, m)
		}
	}
	return res, nil
}

func (s *Store) UpsertReport(_ context.Context, r domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.VentureID] = r
	return nil
}

func (s *Store) GetReport(_ context.Context, ventureID string) (domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[ventureID]
	if !ok {
		return domain.Report{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) AppendEvent(_ context.Context, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEvt++
	e.ID = s.nextEvt
	s.events = append(s.events, e)
	return nil
}

func (s *Store) LatestEvents(_ context.Context, limit int, ventureID, evtType string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var res []domain.Event
	for i := len(s.events) - 1; i >= 0 && len(res) < limit; i-- {
		e := s.events[i]
		if ventureID != "" && e.VentureID != ventureID {
			continue
		}
		if evtType != "" && e.Type != evtType {
			continue
		}
		res = append(res, e)
	}
	return res, nil
}
