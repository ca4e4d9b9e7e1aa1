package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fitbod/fitcoach/internal/coach"
	"github.com/fitbod/fitcoach/internal/lang"
	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/nutrition"
	"github.com/fitbod/fitcoach/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// --- Tool definitions ---

var toolGetProfile = mcp.NewTool("get_profile",
	mcp.WithDescription("Get the user's fitness profile: height, weight, age, gender, fitness and activity level, goals, injuries, equipment and training schedule."),
)

var toolCalculateNutrition = mcp.NewTool("calculate_nutrition",
	mcp.WithDescription("Calculate BMR, maintenance calories (TDEE), calorie targets for weight loss and gain, and daily protein/fat/carb targets from the user's profile."),
	mcp.WithString("goal", mcp.Description("Optional goal to summarize: maintain, lose or gain")),
	mcp.WithString("language", mcp.Description("Optional language code for the summary line, e.g. en or ru (default: en)")),
)

var toolGetChatHistory = mcp.NewTool("get_chat_history",
	mcp.WithDescription("Get the most recent coaching chat messages, oldest first."),
	mcp.WithString("chat_id", mcp.Description("Chat identifier (default: default)")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of messages to return (default: 20, max: 100)")),
)

var toolDetectLanguage = mcp.NewTool("detect_language",
	mcp.WithDescription("Detect the language of a text the way the coach does for its replies. Returns one of ru, ja, ko, zh, ar or en."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to inspect")),
)

// --- Tool handlers ---

func (h *handlers) getProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := h.loadProfile(ctx, "get_profile")
	if res != nil {
		return res, nil
	}

	result, err := mcp.NewToolResultJSON(p)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// nutritionResult is the calculate_nutrition payload.
type nutritionResult struct {
	*nutrition.Targets
	Summary string `json:"summary,omitempty"`
}

func (h *handlers) calculateNutrition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goal, ok := parseGoal(req.GetString("goal", ""))
	if !ok {
		return mcp.NewToolResultError("goal must be one of maintain, lose or gain"), nil
	}

	p, res := h.loadProfile(ctx, "calculate_nutrition")
	if res != nil {
		return res, nil
	}

	targets, err := nutrition.Calculate(p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := nutritionResult{Targets: targets}
	if req.GetString("goal", "") != "" {
		tag := lang.English
		if req.GetString("language", "") == "ru" {
			tag = lang.Russian
		}
		out.Summary = targets.Summary(tag, goal)
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getChatHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chatID := req.GetString("chat_id", coach.DefaultChatID)
	if chatID == "" {
		chatID = coach.DefaultChatID
	}
	limit := req.GetInt("limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	uid := UserIDFromContext(ctx)
	rows, err := h.ds.RecentMessages(ctx, uid, chatID, limit)
	if err != nil {
		h.log.Error("mcp get_chat_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	history := make([]models.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		history = append(history, models.HistoryEntry{Role: r.Role(), Content: r.Content})
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"chat_id":  chatID,
		"messages": history,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) detectLanguage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]string{"language": lang.Code(text)})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) profileResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	p, err := h.ds.GetProfile(ctx, UserIDFromContext(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nutrition.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	body := map[string]any{"profile": p}
	if targets, err := nutrition.Calculate(p); err == nil {
		body["nutrition"] = targets
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// --- Helpers ---

// loadProfile fetches the user's profile. A non-nil result is the tool error
// to return instead.
func (h *handlers) loadProfile(ctx context.Context, tool string) (*models.Profile, *mcp.CallToolResult) {
	p, err := h.ds.GetProfile(ctx, UserIDFromContext(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, mcp.NewToolResultError(nutrition.ErrProfileNotFound.Error())
	}
	if err != nil {
		h.log.Error("mcp "+tool, "error", err)
		return nil, mcp.NewToolResultError("query failed: " + err.Error())
	}
	return p, nil
}

func parseGoal(s string) (nutrition.Goal, bool) {
	switch s {
	case "", "maintain":
		return nutrition.Maintain, true
	case "lose":
		return nutrition.Lose, true
	case "gain":
		return nutrition.Gain, true
	}
	return nutrition.Maintain, false
}
