package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ivy-assistant/server/internal/agent/model"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

// StateRepository loads and saves conversation and user scoped state
// through a Store. Conversation keys expire after ttl; profile keys use
// profileTTL (zero keeps them).
type StateRepository struct {
	store      Store
	ttl        time.Duration
	profileTTL time.Duration
	now        func() time.Time
}

func NewStateRepository(store Store, cfg model.ConversationConfig) *StateRepository {
	return &StateRepository{store: store, ttl: cfg.TTL, profileTTL: cfg.ProfileTTL, now: time.Now}
}

// LoadConversation returns the persisted state or a fresh one when absent.
func (r *StateRepository) LoadConversation(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	key := conversationKey(conversationID)
	b, ok, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.NewConversationState(conversationID), nil
	}

	var s model.ConversationState
	if err := json.Unmarshal(b, &s); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to unmarshal conversation state")
		return nil, fmt.Errorf("unmarshal conversation state: %w", err)
	}
	if s.ConversationID == "" {
		s.ConversationID = conversationID
	}
	if s.Stack == nil {
		s.Stack = []model.StackFrame{}
	}
	return &s, nil
}

func (r *StateRepository) SaveConversation(ctx context.Context, s *model.ConversationState) error {
	s.UpdatedAt = r.now().UTC()
	b, err := json.Marshal(s)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", s.ConversationID).Msg("failed to marshal conversation state")
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	return r.store.Save(ctx, conversationKey(s.ConversationID), b, r.ttl)
}

// LoadProfile returns the persisted profile or an empty one when absent.
func (r *StateRepository) LoadProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	b, ok, err := r.store.Load(ctx, profileKey(userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return &model.UserProfile{UserID: userID}, nil
	}

	var p model.UserProfile
	if err := json.Unmarshal(b, &p); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to unmarshal user profile")
		return nil, fmt.Errorf("unmarshal user profile: %w", err)
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	return &p, nil
}

func (r *StateRepository) SaveProfile(ctx context.Context, p *model.UserProfile) error {
	p.UpdatedAt = r.now().UTC()
	b, err := json.Marshal(p)
	if err != nil {
		logx.Error().Err(err).Str("user_id", p.UserID).Msg("failed to marshal user profile")
		return fmt.Errorf("marshal user profile: %w", err)
	}
	return r.store.Save(ctx, profileKey(p.UserID), b, r.profileTTL)
}
