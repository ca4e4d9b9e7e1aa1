// Package coach implements the chat pipeline: session loading, intent
// resolution, prompt enrichment, model calls and reply post-processing.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fitbod/fitcoach/internal/auth"
	"github.com/fitbod/fitcoach/internal/gemini"
	"github.com/fitbod/fitcoach/internal/lang"
	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/nutrition"
	"github.com/fitbod/fitcoach/internal/storage"
	"github.com/google/uuid"
)

// Chat actions.
const (
	ActionChat         = "chat"
	ActionClearHistory = "clear_history"
	DefaultChatID      = "default"
)

const (
	conversationApology = "⚠️ Sorry, there was an error processing your request. Please try again later."
	workoutApology      = "⚠️ Sorry, there was an error generating your workout. Please try again later."
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	GetUser(ctx context.Context, token string) (*auth.User, error)
}

// Store is the persistence the pipeline needs. *storage.DB satisfies it.
type Store interface {
	RecentMessages(ctx context.Context, userID uuid.UUID, chatID string, limit int) ([]models.ChatMessageRow, error)
	InsertMessage(ctx context.Context, m models.ChatMessageRow) error
	DeleteChat(ctx context.Context, userID uuid.UUID, chatID string) (int64, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error)
}

var _ Store = (*storage.DB)(nil)

// Request is one chat call.
type Request struct {
	Message       string
	Action        string
	ChatID        string
	Authorization string
}

// Response is the successful result of a chat call.
type Response struct {
	Message          string        `json:"message"`
	Context          *ChatContext  `json:"context"`
	Intent           models.Intent `json:"intent"`
	DetectedLanguage string        `json:"detectedLanguage"`
}

// Deps are the collaborators of a Service.
type Deps struct {
	Auth      Authenticator
	Store     Store
	Model     gemini.Generator
	Sessions  SessionStore
	Formatter *Formatter
	// PersistMessages stores each exchange in chat_messages.
	PersistMessages bool
	Now             func() time.Time
}

// Service runs chat requests.
type Service struct {
	auth       Authenticator
	store      Store
	model      gemini.Generator
	classifier *Classifier
	sessions   SessionStore
	format     *Formatter
	persist    bool
	now        func() time.Time
	log        *slog.Logger
}

// NewService creates a Service. Nil Sessions, Formatter and Now get defaults.
func NewService(d Deps, log *slog.Logger) *Service {
	s := &Service{
		auth:       d.Auth,
		store:      d.Store,
		model:      d.Model,
		classifier: NewClassifier(d.Model, log),
		sessions:   d.Sessions,
		format:     d.Formatter,
		persist:    d.PersistMessages,
		now:        d.Now,
		log:        log,
	}
	if s.sessions == nil {
		s.sessions = NewMemorySessions()
	}
	if s.format == nil {
		s.format = NewFormatter(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handle runs one chat request. Failures are returned as *RequestError.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.ChatID == "" {
		req.ChatID = DefaultChatID
	}
	if req.Action == "" {
		req.Action = ActionChat
	}
	detected := lang.Code(req.Message)

	user, err := s.authenticate(ctx, req.Authorization)
	if err != nil {
		return nil, &RequestError{Err: err, DetectedLanguage: detected}
	}

	cc := NewChatContext()
	cc.SetHistory(s.loadHistory(ctx, user.ID, req.ChatID))
	cc.UserProfile = s.loadProfile(ctx, user.ID)

	key := SessionKey{UserID: user.ID, ChatID: req.ChatID}
	if req.Action == ActionClearHistory {
		return s.clearHistory(ctx, key, cc, detected)
	}

	now := s.now()
	sess := s.sessions.Load(key)
	cc.SavedWorkouts = sess.SavedWorkouts
	cc.MuscleLoads = Recover(sess.MuscleLoads, now)
	cc.CurrentGoal = sess.CurrentGoal

	intent := s.classifier.Classify(ctx, req.Message, cc.MessageHistory, cc.UserProfile)
	s.log.Info("intent classified", "intent", intent, "user_id", user.ID)

	var reply, summary string
	var saved *models.Workout
	switch intent {
	case models.IntentProfileUpdate:
		reply = s.updateProfile(ctx, user.ID, req.Message, cc)
	case models.IntentProfileInfo:
		reply = ProfileCard(cc.UserProfile)
	default:
		var targets *nutrition.Targets
		if cc.UserProfile != nil {
			targets, _ = nutrition.Calculate(cc.UserProfile)
		}
		prompt := BuildPrompt(req.Message, intent, cc.UserProfile, targets)

		var ok bool
		if intent.IsPlan() && cc.UserProfile != nil {
			reply, saved, ok = s.generateWorkout(ctx, prompt.Text)
			if saved != nil {
				cc.AddWorkout(*saved)
				cc.MuscleLoads = Recover(UpdateMuscleLoads(*saved, sess.MuscleLoads, now), now)
			}
		} else {
			reply, ok = s.converse(ctx, prompt.Text, cc.MessageHistory)
		}
		switch goal, quotes := prompt.Goal(); {
		case !ok || targets == nil:
		case quotes:
			summary = targets.Summary(lang.Detect(req.Message), goal)
		case prompt.Kind == PromptNutritionAdvice:
			summary = nutrition.Advice(req.Message, cc.UserProfile)
		}
	}

	reply = s.format.Format(reply)
	if summary != "" {
		reply += " " + summary
	}

	cc.LastDetectedLanguage = detected
	cc.Record(req.Message, reply)

	// Merge into the latest stored state rather than the copy loaded above.
	goalChanged := cc.CurrentGoal != sess.CurrentGoal
	s.sessions.Update(key, func(cur *Session) {
		if saved != nil {
			cur.SavedWorkouts = appendWorkout(cur.SavedWorkouts, *saved)
			cur.MuscleLoads = UpdateMuscleLoads(*saved, cur.MuscleLoads, now)
		}
		if goalChanged {
			cur.CurrentGoal = cc.CurrentGoal
		}
	})

	if s.persist {
		s.persistExchange(ctx, key, req.Message, reply, now)
	}

	return &Response{
		Message:          reply,
		Context:          cc,
		Intent:           intent,
		DetectedLanguage: detected,
	}, nil
}

func (s *Service) authenticate(ctx context.Context, header string) (*auth.User, error) {
	if header == "" {
		return nil, ErrMissingAuthHeader
	}
	token := strings.TrimPrefix(header, "Bearer ")
	user, err := s.auth.GetUser(ctx, token)
	if err != nil {
		s.log.Warn("token rejected", "error", err)
		return nil, ErrInvalidToken
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *Service) loadHistory(ctx context.Context, userID uuid.UUID, chatID string) []models.HistoryEntry {
	rows, err := s.store.RecentMessages(ctx, userID, chatID, HistoryFetchLimit)
	if err != nil {
		s.log.Warn("loading chat history", "error", err, "chat_id", chatID)
		return nil
	}
	history := make([]models.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		history = append(history, models.HistoryEntry{Role: r.Role(), Content: r.Content})
	}
	return history
}

func (s *Service) loadProfile(ctx context.Context, userID uuid.UUID) *models.Profile {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("loading profile", "error", err)
		}
		return nil
	}
	return p
}

func (s *Service) clearHistory(ctx context.Context, key SessionKey, cc *ChatContext, detected string) (*Response, error) {
	n, err := s.store.DeleteChat(ctx, key.UserID, key.ChatID)
	if err != nil {
		return nil, &RequestError{Err: fmt.Errorf("clearing history: %w", err), DetectedLanguage: errorLanguage(cc, detected)}
	}
	s.sessions.Delete(key)
	s.log.Info("chat history cleared", "chat_id", key.ChatID, "deleted", n)

	cc.SetHistory(nil)
	cc.LastDetectedLanguage = detected
	return &Response{
		Message:          s.format.System("Chat history cleared."),
		Context:          cc,
		Intent:           models.IntentSystem,
		DetectedLanguage: detected,
	}, nil
}

func (s *Service) updateProfile(ctx context.Context, userID uuid.UUID, message string, cc *ChatContext) string {
	upd := ExtractProfileUpdate(message)
	if upd.Empty() {
		return ProfileUpdateReply(nil, cc.LastMessage())
	}
	p, err := s.store.UpdateProfile(ctx, userID, upd)
	if err != nil {
		s.log.Error("updating profile", "error", err)
		return ProfileUpdateReply(nil, cc.LastMessage())
	}
	cc.UserProfile = p
	return ProfileUpdateReply(upd.Fields(), cc.LastMessage())
}

func (s *Service) converse(ctx context.Context, prompt string, history []models.HistoryEntry) (string, bool) {
	text, err := s.model.Generate(ctx, gemini.Conversation(DefaultSystemPrompt, history, prompt))
	if err != nil {
		s.log.Error("generating response", "error", err)
		return conversationApology, false
	}
	return text, true
}

func (s *Service) generateWorkout(ctx context.Context, prompt string) (string, *models.Workout, bool) {
	text, err := s.model.Generate(ctx, gemini.Workout(WorkoutSystemPrompt, prompt))
	if err != nil {
		s.log.Error("generating workout", "error", err)
		return workoutApology, nil, false
	}
	return text, ExtractWorkout(text), true
}

// persistExchange stores the user message and the reply. The reply is
// stamped a millisecond later so history ordering is stable.
func (s *Service) persistExchange(ctx context.Context, key SessionKey, message, reply string, at time.Time) {
	for _, m := range []models.ChatMessageRow{
		{UserID: key.UserID, ChatID: key.ChatID, Content: message, IsUser: true, CreatedAt: at},
		{UserID: key.UserID, ChatID: key.ChatID, Content: reply, CreatedAt: at.Add(time.Millisecond)},
	} {
		if err := s.store.InsertMessage(ctx, m); err != nil {
			s.log.Error("storing chat message", "error", err, "chat_id", key.ChatID)
			return
		}
	}
}

// errorLanguage is the language reported with a failure: that of the
// newest history message when there is one.
func errorLanguage(cc *ChatContext, fallback string) string {
	if cc != nil {
		if last := cc.LastMessage(); last != "" {
			return lang.Code(last)
		}
	}
	return fallback
}
