package coach

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fitbod/fitcoach/internal/auth"
	"github.com/fitbod/fitcoach/internal/gemini"
	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/nutrition"
	"github.com/fitbod/fitcoach/internal/storage"
	"github.com/google/uuid"
)

var testUserID = uuid.MustParse("6f1c2a7e-3d4b-4c5a-9e8f-0a1b2c3d4e5f")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuth struct {
	user  *auth.User
	err   error
	token string
}

func (f *fakeAuth) GetUser(_ context.Context, token string) (*auth.User, error) {
	f.token = token
	return f.user, f.err
}

// fakeModel answers classification calls with intent and every other call
// with reply or err.
type fakeModel struct {
	mu          sync.Mutex
	intent      string
	classifyErr error
	reply       string
	err         error
	requests    []gemini.Request
}

func (f *fakeModel) Generate(_ context.Context, req gemini.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if req.MaxOutputTokens == 10 {
		return f.intent, f.classifyErr
	}
	return f.reply, f.err
}

// generation returns the last non-classification request.
func (f *fakeModel) generation(t *testing.T) gemini.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].MaxOutputTokens != 10 {
			return f.requests[i]
		}
	}
	t.Fatal("no generation request sent")
	return gemini.Request{}
}

func lastText(req gemini.Request) string {
	c := req.Contents[len(req.Contents)-1]
	return c.Parts[0].Text
}

type fakeStore struct {
	history    []models.ChatMessageRow
	historyErr error
	profile    *models.Profile
	updated    *models.Profile
	updates    []models.ProfileUpdate
	inserted   []models.ChatMessageRow
	deleted    int
}

func (f *fakeStore) RecentMessages(_ context.Context, _ uuid.UUID, _ string, limit int) ([]models.ChatMessageRow, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if len(f.history) > limit {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, m models.ChatMessageRow) error {
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeStore) DeleteChat(context.Context, uuid.UUID, string) (int64, error) {
	f.deleted++
	n := int64(len(f.history))
	f.history = nil
	return n, nil
}

func (f *fakeStore) GetProfile(context.Context, uuid.UUID) (*models.Profile, error) {
	if f.profile == nil {
		return nil, storage.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, _ uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	f.updates = append(f.updates, upd)
	if f.updated == nil {
		return nil, storage.ErrNotFound
	}
	return f.updated, nil
}

func testProfile() *models.Profile {
	return &models.Profile{
		ID:     testUserID,
		Weight: ptr(70.0),
		Height: ptr(175.0),
		Age:    ptr(30),
		Gender: ptr("male"),
	}
}

type harness struct {
	svc   *Service
	auth  *fakeAuth
	store *fakeStore
	model *fakeModel
}

func newHarness(store *fakeStore, model *fakeModel) *harness {
	h := &harness{
		auth:  &fakeAuth{user: &auth.User{ID: testUserID}},
		store: store,
		model: model,
	}
	h.svc = NewService(Deps{
		Auth:      h.auth,
		Store:     store,
		Model:     model,
		Formatter: testFormatter(),
		Now:       func() time.Time { return day0 },
	}, testLogger())
	return h
}

func chat(message string) Request {
	return Request{Message: message, Authorization: "Bearer test-token"}
}

// TestHandleMissingAuthorization verifies a request without a header fails
// before any other work.
func TestHandleMissingAuthorization(t *testing.T) {
	h := newHarness(&fakeStore{}, &fakeModel{})

	_, err := h.svc.Handle(context.Background(), Request{Message: "hi"})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if got := UserMessage(err); got != "Missing authorization header." {
		t.Errorf("user message = %q", got)
	}
	if reqErr.DetectedLanguage != "en" {
		t.Errorf("detected language = %q, want en", reqErr.DetectedLanguage)
	}
	if len(h.model.requests) != 0 {
		t.Errorf("model called %d times", len(h.model.requests))
	}
}

// TestHandleInvalidToken verifies auth failures map to the invalid token error
// and the Bearer prefix is stripped before lookup.
func TestHandleInvalidToken(t *testing.T) {
	h := newHarness(&fakeStore{}, &fakeModel{})
	h.auth.err = errors.New("auth service returned 401")

	_, err := h.svc.Handle(context.Background(), chat("hi"))

	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
	if got := UserMessage(err); got != "Invalid token. Please log in again." {
		t.Errorf("user message = %q", got)
	}
	if h.auth.token != "test-token" {
		t.Errorf("token = %q, want test-token", h.auth.token)
	}

	h.auth.err, h.auth.user = nil, nil
	if _, err := h.svc.Handle(context.Background(), chat("hi")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("nil user error = %v, want ErrInvalidToken", err)
	}
}

// TestHandleWeightLossPlan verifies a weight-loss request with a profile goes
// through the workout call and the reply quotes the computed targets.
func TestHandleWeightLossPlan(t *testing.T) {
	model := &fakeModel{intent: "weight_loss_plan", reply: "Start with brisk walks and strength circuits."}
	h := newHarness(&fakeStore{profile: testProfile()}, model)

	resp, err := h.svc.Handle(context.Background(), chat("I want to lose weight, make me a plan"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	if resp.Intent != models.IntentWeightLossPlan {
		t.Errorf("intent = %q", resp.Intent)
	}
	if resp.DetectedLanguage != "en" {
		t.Errorf("detected language = %q", resp.DetectedLanguage)
	}
	if !strings.Contains(resp.Message, "**1767** kcal") {
		t.Errorf("reply missing loss calories: %q", resp.Message)
	}

	gen := model.generation(t)
	if gen.MaxOutputTokens != 1000 {
		t.Errorf("max tokens = %d, want the workout call", gen.MaxOutputTokens)
	}
	prompt := lastText(gen)
	if !strings.Contains(prompt, "[TASK: Provide practical weight loss plan]") {
		t.Errorf("prompt not the weight loss plan:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Daily calorie target: 1767 kcal") {
		t.Errorf("prompt missing targets:\n%s", prompt)
	}
	if n := len(resp.Context.MessageHistory); n != 2 {
		t.Errorf("history length = %d, want 2", n)
	}
}

// TestHandlePlanWithoutProfile verifies plan intents fall back to the
// conversational call and skip targets when there is no profile.
func TestHandlePlanWithoutProfile(t *testing.T) {
	model := &fakeModel{intent: "muscle_gain_plan", reply: "Lift heavy and eat well."}
	h := newHarness(&fakeStore{}, model)

	resp, err := h.svc.Handle(context.Background(), chat("help me build muscle"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if resp.Context.UserProfile != nil {
		t.Error("profile should be nil")
	}
	gen := model.generation(t)
	if gen.MaxOutputTokens != 500 {
		t.Errorf("max tokens = %d, want the conversational call", gen.MaxOutputTokens)
	}
	if !strings.HasSuffix(lastText(gen), gemini.BrevityInstruction) {
		t.Error("conversational call missing the brevity instruction")
	}
	if strings.Contains(resp.Message, "kcal") {
		t.Errorf("reply quotes targets without a profile: %q", resp.Message)
	}
}

// TestHandleModelFailure verifies a failed model call becomes the apology
// and still succeeds.
func TestHandleModelFailure(t *testing.T) {
	model := &fakeModel{intent: "general_chat", err: errors.New("upstream 503")}
	h := newHarness(&fakeStore{profile: testProfile()}, model)

	resp, err := h.svc.Handle(context.Background(), chat("how are you"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if !strings.Contains(resp.Message, conversationApology) {
		t.Errorf("reply = %q", resp.Message)
	}
}

// TestHandleClassifierFailure verifies a failing classifier falls back to
// general chat.
func TestHandleClassifierFailure(t *testing.T) {
	model := &fakeModel{classifyErr: errors.New("timeout"), reply: "Let's keep moving!"}
	h := newHarness(&fakeStore{}, model)

	resp, err := h.svc.Handle(context.Background(), chat("hey"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if resp.Intent != models.IntentGeneralChat {
		t.Errorf("intent = %q, want general_chat", resp.Intent)
	}
}

// TestHandleHistory verifies stored history is loaded, bounded and sent to
// the model with mapped roles.
func TestHandleHistory(t *testing.T) {
	store := &fakeStore{}
	for i := range 12 {
		store.history = append(store.history, models.ChatMessageRow{Content: "turn", IsUser: i%2 == 0})
	}
	model := &fakeModel{intent: "general_chat", reply: "Sure thing."}
	h := newHarness(store, model)

	resp, err := h.svc.Handle(context.Background(), chat("and then?"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if n := len(resp.Context.MessageHistory); n != MaxHistory {
		t.Errorf("history length = %d, want %d", n, MaxHistory)
	}
	gen := model.generation(t)
	if n := len(gen.Contents); n != MaxHistory+2 {
		t.Errorf("contents = %d, want instructions + %d history + message", n, MaxHistory)
	}
	if role := gen.Contents[1].Role; role != "user" {
		t.Errorf("first history role = %q, want user", role)
	}
	if role := gen.Contents[2].Role; role != "model" {
		t.Errorf("second history role = %q, want model", role)
	}
}

// TestHandleHistoryError verifies a failed history query proceeds with an
// empty history.
func TestHandleHistoryError(t *testing.T) {
	store := &fakeStore{historyErr: errors.New("connection reset")}
	h := newHarness(store, &fakeModel{intent: "general_chat", reply: "Hi!"})

	resp, err := h.svc.Handle(context.Background(), chat("hello"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if n := len(resp.Context.MessageHistory); n != 2 {
		t.Errorf("history length = %d, want 2", n)
	}
}

// TestHandleProfileUpdate verifies profile statements are stored and
// confirmed.
func TestHandleProfileUpdate(t *testing.T) {
	updated := testProfile()
	updated.Weight = ptr(80.0)
	store := &fakeStore{profile: testProfile(), updated: updated}
	h := newHarness(store, &fakeModel{intent: "profile_update"})

	resp, err := h.svc.Handle(context.Background(), chat("my weight is 80kg now"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(store.updates) != 1 || store.updates[0].Weight == nil || *store.updates[0].Weight != 80 {
		t.Fatalf("updates = %+v", store.updates)
	}
	if !strings.Contains(resp.Message, "✨ Updated your **weight**! __Your profile is now current__.") {
		t.Errorf("reply = %q", resp.Message)
	}
	if *resp.Context.UserProfile.Weight != 80 {
		t.Errorf("context profile weight = %v", *resp.Context.UserProfile.Weight)
	}
}

// TestHandleProfileUpdateNothingParsed verifies the retry hint when no value
// can be read.
func TestHandleProfileUpdateNothingParsed(t *testing.T) {
	store := &fakeStore{profile: testProfile()}
	h := newHarness(store, &fakeModel{intent: "profile_update"})

	resp, err := h.svc.Handle(context.Background(), chat("change my profile please"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(store.updates) != 0 {
		t.Errorf("store updated %d times", len(store.updates))
	}
	if !strings.Contains(resp.Message, profileUpdateHint) {
		t.Errorf("reply = %q", resp.Message)
	}
}

// TestHandleProfileInfo verifies the profile card is returned without a
// generation call.
func TestHandleProfileInfo(t *testing.T) {
	model := &fakeModel{intent: "profile_info"}
	h := newHarness(&fakeStore{profile: testProfile()}, model)

	resp, err := h.svc.Handle(context.Background(), chat("show my profile"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if !strings.Contains(resp.Message, "**Weight:** **70** kg") {
		t.Errorf("reply = %q", resp.Message)
	}
	if len(model.requests) != 1 {
		t.Errorf("model requests = %d, want only the classification", len(model.requests))
	}
}

// TestHandleWorkoutSaved verifies a structured workout is saved, updates
// muscle loads and carries over to the next request of the same chat.
func TestHandleWorkoutSaved(t *testing.T) {
	model := &fakeModel{
		intent: "general_workout_plan",
		reply:  `Try this: {"name":"Push","exercises":[{"name":"Bench","targetMuscleGroup":"chest","sets":3}]}`,
	}
	h := newHarness(&fakeStore{profile: testProfile()}, model)

	resp, err := h.svc.Handle(context.Background(), chat("give me a workout"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(resp.Context.SavedWorkouts) != 1 {
		t.Fatalf("saved workouts = %d, want 1", len(resp.Context.SavedWorkouts))
	}
	if got := resp.Context.MuscleLoads["chest"].RecoveryStatus; got != 40 {
		t.Errorf("chest recovery = %v, want 40", got)
	}

	model.reply = "Nice work."
	next, err := h.svc.Handle(context.Background(), chat("thanks"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(next.Context.SavedWorkouts) != 1 {
		t.Errorf("saved workouts on next request = %d, want 1", len(next.Context.SavedWorkouts))
	}
}

// interleavedModel runs during before answering a non-classification call,
// standing in for another request of the same chat finishing meanwhile.
type interleavedModel struct {
	*fakeModel
	during func()
}

func (m *interleavedModel) Generate(ctx context.Context, req gemini.Request) (string, error) {
	if req.MaxOutputTokens != 10 && m.during != nil {
		m.during()
	}
	return m.fakeModel.Generate(ctx, req)
}

// TestHandleWorkoutMergesConcurrentSave verifies a workout saved by another
// request while the model is generating is kept alongside this request's.
func TestHandleWorkoutMergesConcurrentSave(t *testing.T) {
	sessions := NewMemorySessions()
	key := SessionKey{UserID: testUserID, ChatID: DefaultChatID}
	model := &interleavedModel{
		fakeModel: &fakeModel{
			intent: "general_workout_plan",
			reply:  `{"name":"Legs","exercises":[{"name":"Squat","targetMuscleGroup":"legs","sets":4}]}`,
		},
		during: func() {
			sessions.Update(key, func(s *Session) {
				s.SavedWorkouts = appendWorkout(s.SavedWorkouts, models.Workout{Name: "Push"})
			})
		},
	}
	svc := NewService(Deps{
		Auth:      &fakeAuth{user: &auth.User{ID: testUserID}},
		Store:     &fakeStore{profile: testProfile()},
		Model:     model,
		Sessions:  sessions,
		Formatter: testFormatter(),
		Now:       func() time.Time { return day0 },
	}, testLogger())

	if _, err := svc.Handle(context.Background(), chat("give me a leg workout")); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	var names []string
	for _, w := range sessions.Load(key).SavedWorkouts {
		names = append(names, w.Name)
	}
	if len(names) != 2 || names[0] != "Push" || names[1] != "Legs" {
		t.Errorf("saved workouts = %v, want [Push Legs]", names)
	}
}

// TestHandleClearHistory verifies clear_history deletes the chat and returns
// a system message without calling the model.
func TestHandleClearHistory(t *testing.T) {
	store := &fakeStore{history: []models.ChatMessageRow{{Content: "old", IsUser: true}}}
	model := &fakeModel{}
	h := newHarness(store, model)

	req := chat("")
	req.Action = ActionClearHistory
	resp, err := h.svc.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if store.deleted != 1 {
		t.Errorf("deletes = %d, want 1", store.deleted)
	}
	if resp.Intent != models.IntentSystem {
		t.Errorf("intent = %q, want system", resp.Intent)
	}
	if !strings.HasSuffix(resp.Message, "**System**: Chat history cleared.") {
		t.Errorf("reply = %q", resp.Message)
	}
	if len(resp.Context.MessageHistory) != 0 {
		t.Errorf("history = %v, want empty", resp.Context.MessageHistory)
	}
	if len(model.requests) != 0 {
		t.Errorf("model called %d times", len(model.requests))
	}
}

// TestHandlePersistMessages verifies both sides of the exchange are stored
// in order when persistence is enabled.
func TestHandlePersistMessages(t *testing.T) {
	store := &fakeStore{}
	h := newHarness(store, &fakeModel{intent: "general_chat", reply: "Hi!"})
	h.svc.persist = true

	if _, err := h.svc.Handle(context.Background(), chat("hello")); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(store.inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(store.inserted))
	}
	user, reply := store.inserted[0], store.inserted[1]
	if !user.IsUser || user.Content != "hello" || user.ChatID != DefaultChatID {
		t.Errorf("user row = %+v", user)
	}
	if reply.IsUser || !reply.CreatedAt.After(user.CreatedAt) {
		t.Errorf("reply row = %+v", reply)
	}
}

// TestHandleDetectsRussian verifies the request language is reported.
func TestHandleDetectsRussian(t *testing.T) {
	h := newHarness(&fakeStore{}, &fakeModel{intent: "general_chat", reply: "Привет!"})

	resp, err := h.svc.Handle(context.Background(), chat("Привет, как мне начать тренироваться?"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if resp.DetectedLanguage != "ru" || resp.Context.LastDetectedLanguage != "ru" {
		t.Errorf("detected = %q / %q, want ru", resp.DetectedLanguage, resp.Context.LastDetectedLanguage)
	}
}

// TestHandleNutritionAdviceLocalized verifies nutrition advice is followed by
// the computed targets in the language of the message.
func TestHandleNutritionAdviceLocalized(t *testing.T) {
	model := &fakeModel{intent: "nutrition_advice", reply: "Ешьте больше овощей."}
	h := newHarness(&fakeStore{profile: testProfile()}, model)

	resp, err := h.svc.Handle(context.Background(), chat("Что мне есть для поддержания формы?"))
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if !strings.Contains(resp.Message, "Ваша поддерживающая калорийность: **2267** ккал") {
		t.Errorf("reply missing Russian targets: %q", resp.Message)
	}
	if !strings.Contains(lastText(model.generation(t)), "[TASK: Provide specific nutrition advice]") {
		t.Error("prompt not the nutrition template")
	}
}

// TestUserMessage verifies error normalization.
func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrMissingAuthHeader, "Missing authorization header."},
		{&RequestError{Err: ErrInvalidToken}, "Invalid token. Please log in again."},
		{nutrition.ErrProfileNotFound, "Profile not found. Please complete your profile setup."},
		{errors.New("boom"), "An error occurred: boom"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
