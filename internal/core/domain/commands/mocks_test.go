package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gamebot/internal/core/domain"
)

type MockSender struct {
	mutex   sync.Mutex
	Replies []string
	Err     error
}

func (m *MockSender) SendMessage(_ context.Context, _ int64, text string) (int, error) {
	return m.record(text)
}

func (m *MockSender) SendMessageReply(_ context.Context, _ int64, _ int, text string) (int, error) {
	return m.record(text)
}

func (m *MockSender) SendAction(_ context.Context, _ int64, _ domain.Action) {}

func (m *MockSender) record(text string) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.Replies = append(m.Replies, text)
	return len(m.Replies), nil
}

func (m *MockSender) Last() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.Replies) == 0 {
		return ""
	}
	return m.Replies[len(m.Replies)-1]
}

type memorySessions struct {
	mutex   sync.Mutex
	records map[string]*domain.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{records: make(map[string]*domain.Session)}
}

func memKey(chatID int64, userKey string) string {
	return fmt.Sprintf("%d/%s", chatID, userKey)
}

func (s *memorySessions) Get(_ context.Context, chatID int64, userKey string) *domain.Session {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.records[memKey(chatID, userKey)]
}

func (s *memorySessions) Set(_ context.Context, chatID int64, userKey, kind string, payload json.RawMessage) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[memKey(chatID, userKey)] = &domain.Session{ChatID: chatID, UserKey: userKey, Kind: kind, Payload: payload}
	return true
}

func (s *memorySessions) Clear(_ context.Context, chatID int64, userKey string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.records, memKey(chatID, userKey))
}

func (s *memorySessions) ListChat(_ context.Context, chatID int64) []*domain.Session {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var out []*domain.Session
	for _, sess := range s.records {
		if sess.ChatID == chatID {
			out = append(out, sess)
		}
	}
	return out
}

func (s *memorySessions) ChatIDs(_ context.Context) []int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	seen := make(map[int64]struct{})
	var out []int64
	for _, sess := range s.records {
		if _, ok := seen[sess.ChatID]; !ok {
			seen[sess.ChatID] = struct{}{}
			out = append(out, sess.ChatID)
		}
	}
	return out
}

type MockLeaderboard struct {
	Stats      map[string]int
	Top        []domain.RankedStat
	StatErr    error
	UpdateErr  error
	LastUpdate string
}

func (m *MockLeaderboard) UserStat(_ context.Context, userKey, game string) (int, bool, error) {
	if m.StatErr != nil {
		return 0, false, m.StatErr
	}
	score, ok := m.Stats[game+"/"+userKey]
	return score, ok, nil
}

func (m *MockLeaderboard) UpdateUserStat(_ context.Context, userKey, _, game string, delta int) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.LastUpdate = fmt.Sprintf("%s/%s/%d", game, userKey, delta)
	return nil
}

func (m *MockLeaderboard) TopN(_ context.Context, _ string, _ int) ([]domain.RankedStat, error) {
	if m.StatErr != nil {
		return nil, m.StatErr
	}
	return m.Top, nil
}

type MockGenerator struct {
	Response string
	Err      error
	Prompts  []domain.Prompt
}

func (m *MockGenerator) GenerateFromPrompt(_ context.Context, prompts []domain.Prompt) (string, error) {
	m.Prompts = prompts
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type staticWords struct {
	word string
}

func (s *staticWords) RandomWord(_ context.Context) (string, error) {
	return s.word, nil
}
