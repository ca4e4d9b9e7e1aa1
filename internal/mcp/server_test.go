package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

var testUser = uuid.MustParse("7b0c1f4e-2d8a-4c55-9e3b-0f5a6d7c8e91")

type fakeDS struct {
	profile    *models.Profile
	profileErr error
	rows       []models.ChatMessageRow
	gotUser    uuid.UUID
	gotChat    string
	gotLimit   int
}

func (f *fakeDS) GetProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	f.gotUser = userID
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, storage.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeDS) RecentMessages(_ context.Context, userID uuid.UUID, chatID string, limit int) ([]models.ChatMessageRow, error) {
	f.gotUser, f.gotChat, f.gotLimit = userID, chatID, limit
	return f.rows, nil
}

func newTestHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func testProfile() *models.Profile {
	weight, height, age, gender := 70.0, 175.0, 30, "male"
	return &models.Profile{ID: testUser, Weight: &weight, Height: &height, Age: &age, Gender: &gender}
}

// TestUserIDFromContextDefault verifies the nil user ID when no value is set
// in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	if id := UserIDFromContext(context.Background()); id != uuid.Nil {
		t.Errorf("UserIDFromContext(empty) = %s, want nil uuid", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), testUser)
	if id := UserIDFromContext(ctx); id != testUser {
		t.Errorf("UserIDFromContext = %s, want %s", id, testUser)
	}
}

// TestNewRegistersTools verifies the server builds with the fitcoach tool set.
func TestNewRegistersTools(t *testing.T) {
	if New(&fakeDS{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil))) == nil {
		t.Fatal("New() returned nil")
	}
	for _, tool := range []mcp.Tool{toolGetProfile, toolCalculateNutrition, toolGetChatHistory, toolDetectLanguage} {
		if tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Name)
		}
	}
}

// TestGetProfileTool verifies the profile is read for the context user.
func TestGetProfileTool(t *testing.T) {
	ds := &fakeDS{profile: testProfile()}
	h := newTestHandlers(ds)

	res, err := h.getProfile(WithUserID(context.Background(), testUser), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if ds.gotUser != testUser {
		t.Errorf("user = %s, want %s", ds.gotUser, testUser)
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(resultText(t, res)), &p); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if p.Weight == nil || *p.Weight != 70 {
		t.Errorf("weight = %v, want 70", p.Weight)
	}
}

// TestGetProfileToolNotFound verifies a missing profile is a tool error with
// the setup hint.
func TestGetProfileToolNotFound(t *testing.T) {
	h := newTestHandlers(&fakeDS{})
	res, _ := h.getProfile(context.Background(), callRequest(nil))
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(resultText(t, res), "complete your profile") {
		t.Errorf("text = %q", resultText(t, res))
	}

	h = newTestHandlers(&fakeDS{profileErr: errors.New("connection refused")})
	res, _ = h.getProfile(context.Background(), callRequest(nil))
	if !res.IsError || !strings.Contains(resultText(t, res), "query failed") {
		t.Errorf("result = %+v, want query failure", res)
	}
}

// TestCalculateNutritionTool verifies targets and the optional summary line.
func TestCalculateNutritionTool(t *testing.T) {
	h := newTestHandlers(&fakeDS{profile: testProfile()})

	tests := []struct {
		name    string
		args    map[string]any
		summary string
	}{
		{"no goal", nil, ""},
		{"lose", map[string]any{"goal": "lose"}, "**1767** kcal"},
		{"gain russian", map[string]any{"goal": "gain", "language": "ru"}, "**2767** ккал"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.calculateNutrition(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if res.IsError {
				t.Fatalf("tool error: %s", resultText(t, res))
			}
			var out struct {
				TDEE          int64  `json:"tdee"`
				ProteinTarget int64  `json:"protein_target"`
				Summary       string `json:"summary"`
			}
			if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
				t.Fatalf("decoding result: %v", err)
			}
			if out.TDEE != 2267 || out.ProteinTarget != 126 {
				t.Errorf("tdee=%d protein=%d, want 2267 126", out.TDEE, out.ProteinTarget)
			}
			if tt.summary == "" && out.Summary != "" {
				t.Errorf("summary = %q, want none", out.Summary)
			}
			if !strings.Contains(out.Summary, tt.summary) {
				t.Errorf("summary = %q, want %q", out.Summary, tt.summary)
			}
		})
	}
}

// TestCalculateNutritionBadGoal verifies unknown goals are rejected.
func TestCalculateNutritionBadGoal(t *testing.T) {
	h := newTestHandlers(&fakeDS{profile: testProfile()})
	res, _ := h.calculateNutrition(context.Background(), callRequest(map[string]any{"goal": "bulk"}))
	if !res.IsError {
		t.Error("expected tool error for unknown goal")
	}
}

// TestGetChatHistoryTool verifies defaults, clamping and role mapping.
func TestGetChatHistoryTool(t *testing.T) {
	ds := &fakeDS{rows: []models.ChatMessageRow{
		{Content: "lose weight plan", IsUser: true},
		{Content: "Here is your plan", IsUser: false},
	}}
	h := newTestHandlers(ds)
	ctx := WithUserID(context.Background(), testUser)

	res, err := h.getChatHistory(ctx, callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if ds.gotChat != "default" || ds.gotLimit != defaultHistoryLimit {
		t.Errorf("chat=%q limit=%d, want default %d", ds.gotChat, ds.gotLimit, defaultHistoryLimit)
	}

	var out struct {
		ChatID   string                `json:"chat_id"`
		Messages []models.HistoryEntry `json:"messages"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(out.Messages) != 2 || out.Messages[0].Role != models.RoleUser || out.Messages[1].Role != models.RoleAssistant {
		t.Errorf("messages = %+v", out.Messages)
	}

	h.getChatHistory(ctx, callRequest(map[string]any{"chat_id": "evening", "limit": float64(500)}))
	if ds.gotChat != "evening" || ds.gotLimit != maxHistoryLimit {
		t.Errorf("chat=%q limit=%d, want evening %d", ds.gotChat, ds.gotLimit, maxHistoryLimit)
	}
}

// TestDetectLanguageTool verifies the tool reports detected language codes.
func TestDetectLanguageTool(t *testing.T) {
	h := newTestHandlers(&fakeDS{})

	tests := []struct {
		text string
		want string
	}{
		{"Привет, как дела?", "ru"},
		{"hello there", "en"},
	}
	for _, tt := range tests {
		res, _ := h.detectLanguage(context.Background(), callRequest(map[string]any{"text": tt.text}))
		var out map[string]string
		if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
			t.Fatalf("decoding result: %v", err)
		}
		if out["language"] != tt.want {
			t.Errorf("detect(%q) = %q, want %q", tt.text, out["language"], tt.want)
		}
	}

	res, _ := h.detectLanguage(context.Background(), callRequest(nil))
	if !res.IsError {
		t.Error("expected error without text")
	}
}

// TestProfileResource verifies the resource bundles profile and targets.
func TestProfileResource(t *testing.T) {
	h := newTestHandlers(&fakeDS{profile: testProfile()})
	var req mcp.ReadResourceRequest
	req.Params.URI = "fitcoach://profile"

	contents, err := h.profileResource(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type = %T", contents[0])
	}
	if text.URI != "fitcoach://profile" || text.MIMEType != "application/json" {
		t.Errorf("uri=%q mime=%q", text.URI, text.MIMEType)
	}
	var body struct {
		Profile   models.Profile `json:"profile"`
		Nutrition struct {
			TDEE int64 `json:"tdee"`
		} `json:"nutrition"`
	}
	if err := json.Unmarshal([]byte(text.Text), &body); err != nil {
		t.Fatalf("decoding resource: %v", err)
	}
	if body.Nutrition.TDEE != 2267 {
		t.Errorf("tdee = %d, want 2267", body.Nutrition.TDEE)
	}

	if _, err := newTestHandlers(&fakeDS{}).profileResource(context.Background(), req); err == nil {
		t.Error("expected error for missing profile")
	}
}
