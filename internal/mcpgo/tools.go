package mcpgo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/noot-app/foodlens/internal/barcode"
	"github.com/noot-app/foodlens/internal/ledger"
	"github.com/noot-app/foodlens/internal/nutrition"
	"github.com/noot-app/foodlens/internal/types"
)

// RecognizeResponse is returned by recognize_food and lookup_barcode
type RecognizeResponse struct {
	Found  bool               `json:"found"`
	Result *types.ScanResult  `json:"result,omitempty"`
	Logged *types.DailyLedger `json:"logged,omitempty"`
}

// WeeklyResponse is returned by get_weekly_data
type WeeklyResponse struct {
	Days    []ledger.DaySummary  `json:"days"`
	Average ledger.WeeklyAverage `json:"average"`
}

// RecentScansResponse is returned by get_recent_scans
type RecentScansResponse struct {
	Count int               `json:"count"`
	Scans []types.FoodEntry `json:"scans"`
}

var mealEnum = mcp.Enum("breakfast", "lunch", "snacks", "dinner")

func (s *Server) addTools() {
	s.mcpServer.AddTool(mcp.NewTool("recognize_food",
		mcp.WithDescription("Identify the food in a photo and estimate its nutrition. Provide either image_path or image_base64. When meal is set the result is also logged for today."),
		mcp.WithString("image_path", mcp.Description("Path of a JPEG, PNG or WebP image readable by the server")),
		mcp.WithString("image_base64", mcp.Description("Base64 encoded image bytes")),
		mcp.WithString("hint", mcp.Description("What the user says the food is; treated as authoritative")),
		mcp.WithString("meal", mealEnum, mcp.Description("Meal slot to log the result into")),
		mcp.WithOutputSchema[RecognizeResponse](),
	), s.handleRecognizeFood)

	s.mcpServer.AddTool(mcp.NewTool("lookup_barcode",
		mcp.WithDescription("Look up a packaged food by its barcode (UPC/EAN) and return per-100g nutrition"),
		mcp.WithString("barcode", mcp.Required(), mcp.MinLength(1), mcp.Description("The barcode to look up")),
		mcp.WithString("meal", mealEnum, mcp.Description("Meal slot to log the product into")),
		mcp.WithOutputSchema[RecognizeResponse](),
	), s.handleLookupBarcode)

	s.mcpServer.AddTool(mcp.NewTool("add_food_to_meal",
		mcp.WithDescription("Log a scan result into a meal slot and return the updated day"),
		mcp.WithObject("scan", mcp.Required(), mcp.Description("A scan result as returned by recognize_food or lookup_barcode")),
		mcp.WithString("meal", mcp.Required(), mealEnum),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD, default today")),
		mcp.WithOutputSchema[types.DailyLedger](),
	), s.handleAddFoodToMeal)

	s.mcpServer.AddTool(mcp.NewTool("get_daily_intake",
		mcp.WithDescription("Meals, totals and water for one day"),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD, default today")),
		mcp.WithOutputSchema[types.DailyLedger](),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetDailyIntake)

	s.mcpServer.AddTool(mcp.NewTool("get_weekly_data",
		mcp.WithDescription("Daily totals for the seven days ending at date, oldest first, plus averages"),
		mcp.WithString("date", mcp.Description("Last day of the week as YYYY-MM-DD, default today")),
		mcp.WithOutputSchema[WeeklyResponse](),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetWeeklyData)

	s.mcpServer.AddTool(mcp.NewTool("get_goals",
		mcp.WithDescription("Current daily nutrition goals"),
		mcp.WithOutputSchema[types.UserGoals](),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetGoals)

	s.mcpServer.AddTool(mcp.NewTool("update_goals",
		mcp.WithDescription("Change daily goals. Apply a preset, set individual fields, or both (fields win)."),
		mcp.WithString("preset", mcp.Enum("sedentary", "moderate", "active")),
		mcp.WithNumber("dailyCalories", mcp.Min(1)),
		mcp.WithNumber("dailyProtein", mcp.Min(1)),
		mcp.WithNumber("dailyCarbs", mcp.Min(1)),
		mcp.WithNumber("dailyFat", mcp.Min(1)),
		mcp.WithNumber("dailyFiber", mcp.Min(1)),
		mcp.WithNumber("waterGlasses", mcp.Min(1)),
		mcp.WithNumber("mealsPerDay", mcp.Min(1)),
		mcp.WithOutputSchema[types.UserGoals](),
		mcp.WithIdempotentHintAnnotation(true),
	), s.handleUpdateGoals)

	s.mcpServer.AddTool(mcp.NewTool("update_water_intake",
		mcp.WithDescription("Set the number of glasses of water drunk on a day"),
		mcp.WithNumber("glasses", mcp.Required(), mcp.Min(0)),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD, default today")),
		mcp.WithOutputSchema[types.DailyLedger](),
		mcp.WithIdempotentHintAnnotation(true),
	), s.handleUpdateWaterIntake)

	s.mcpServer.AddTool(mcp.NewTool("get_recent_scans",
		mcp.WithDescription("Most recently logged foods across all days, newest first"),
		mcp.WithNumber("limit", mcp.DefaultNumber(ledger.DefaultRecentLimit), mcp.Min(1), mcp.Max(ledger.RecentScansCap)),
		mcp.WithOutputSchema[RecentScansResponse](),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetRecentScans)
}

// structured returns v as structured content with a JSON text fallback
func (s *Server) structured(tool string, v any) (*mcp.CallToolResult, error) {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.log.Error("failed to marshal tool response", "tool", tool, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}
	s.log.Debug("tool call done", "tool", tool, "response_size", len(text))
	return mcp.NewToolResultStructured(v, string(text)), nil
}

func (s *Server) date(request mcp.CallToolRequest) (time.Time, error) {
	d, err := ledger.ParseDate(request.GetString("date", ""), s.now())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date, want YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func optionalMeal(request mcp.CallToolRequest) (types.MealType, bool, error) {
	raw := request.GetString("meal", "")
	if raw == "" {
		return "", false, nil
	}
	meal, ok := types.ParseMealType(raw)
	if !ok {
		return "", false, fmt.Errorf("unknown meal %q", raw)
	}
	return meal, true, nil
}

func (s *Server) handleRecognizeFood(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("image_path", "")
	encoded := request.GetString("image_base64", "")
	hint := request.GetString("hint", "")
	meal, logIt, err := optionalMeal(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result *types.ScanResult
	switch {
	case encoded != "":
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image_base64 is not valid base64: %v", err)), nil
		}
		result = s.deps.Recognizer.RecognizeImage(ctx, data, "inline", hint)
	case path != "":
		result = s.deps.Recognizer.RecognizeFood(ctx, path, hint)
	default:
		return mcp.NewToolResultError("Provide image_path or image_base64"), nil
	}

	resp := RecognizeResponse{Found: true, Result: result}
	if logIt {
		if resp.Logged = s.deps.State.LogFood(ctx, result, meal, s.now()); resp.Logged == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Recognized %s but could not log it", result.FoodName)), nil
		}
	}
	return s.structured("recognize_food", resp)
}

func (s *Server) handleLookupBarcode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("barcode")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'barcode': %v", err)), nil
	}
	meal, logIt, err := optionalMeal(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.deps.Barcodes.Lookup(ctx, code)
	if errors.Is(err, barcode.ErrNotFound) {
		return s.structured("lookup_barcode", RecognizeResponse{Found: false})
	}
	if err != nil {
		s.log.Error("barcode lookup failed", "barcode", code, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Barcode lookup failed: %v", err)), nil
	}

	resp := RecognizeResponse{Found: true, Result: result}
	if logIt {
		if resp.Logged = s.deps.State.LogFood(ctx, result, meal, s.now()); resp.Logged == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Found %s but could not log it", result.FoodName)), nil
		}
	}
	return s.structured("lookup_barcode", resp)
}

func (s *Server) handleAddFoodToMeal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := request.GetArguments()["scan"]
	if !ok || raw == nil {
		return mcp.NewToolResultError("Missing required parameter 'scan'"), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid scan: %v", err)), nil
	}
	var scan types.ScanResult
	if err := json.Unmarshal(data, &scan); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid scan: %v", err)), nil
	}

	mealName, err := request.RequireString("meal")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'meal': %v", err)), nil
	}
	date, err := s.date(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	meal, ok := types.ParseMealType(mealName)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Could not add food: unknown meal %q", mealName)), nil
	}
	scan.Nutrition = nutrition.Sanitize(scan.Nutrition)

	l := s.deps.State.LogFood(ctx, &scan, meal, date)
	if l == nil {
		return mcp.NewToolResultError("Could not add food, storage is unavailable"), nil
	}
	return s.structured("add_food_to_meal", l)
}

func (s *Server) handleGetDailyIntake(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := s.date(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	l, err := s.deps.Ledger.GetDailyIntake(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Ledger unavailable: %v", err)), nil
	}
	return s.structured("get_daily_intake", l)
}

func (s *Server) handleGetWeeklyData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := s.date(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := s.deps.Ledger.GetWeeklyData(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Weekly data unavailable: %v", err)), nil
	}
	return s.structured("get_weekly_data", WeeklyResponse{Days: days, Average: ledger.Average(days)})
}

func (s *Server) handleGetGoals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goals, err := s.deps.Ledger.GetGoals(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Goals unavailable: %v", err)), nil
	}
	return s.structured("get_goals", goals)
}

func (s *Server) handleUpdateGoals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goals, err := s.deps.Ledger.GetGoals(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Goals unavailable: %v", err)), nil
	}

	if preset := request.GetString("preset", ""); preset != "" {
		var ok bool
		if goals, ok = goals.ApplyPreset(preset); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Unknown preset %q", preset)), nil
		}
	}

	args := request.GetArguments()
	floats := map[string]*float64{
		"dailyCalories": &goals.DailyCalories,
		"dailyProtein":  &goals.DailyProtein,
		"dailyCarbs":    &goals.DailyCarbs,
		"dailyFat":      &goals.DailyFat,
		"dailyFiber":    &goals.DailyFiber,
	}
	for key, dst := range floats {
		if _, ok := args[key]; ok {
			*dst = request.GetFloat(key, *dst)
		}
	}
	ints := map[string]*int{
		"waterGlasses": &goals.WaterGlasses,
		"mealsPerDay":  &goals.MealsPerDay,
	}
	for key, dst := range ints {
		if _, ok := args[key]; ok {
			*dst = int(request.GetFloat(key, float64(*dst)))
		}
	}

	if !s.deps.State.UpdateGoals(ctx, goals) {
		return mcp.NewToolResultError("Could not save goals: every target must be positive, or storage is unavailable"), nil
	}
	return s.structured("update_goals", goals)
}

func (s *Server) handleUpdateWaterIntake(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	glasses, err := request.RequireFloat("glasses")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'glasses': %v", err)), nil
	}
	date, err := s.date(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	l := s.deps.State.SetWater(ctx, int(glasses), date)
	if l == nil {
		return mcp.NewToolResultError("Could not update water intake: glasses must not be negative, or storage is unavailable"), nil
	}
	return s.structured("update_water_intake", l)
}

func (s *Server) handleGetRecentScans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", ledger.DefaultRecentLimit))
	scans, err := s.deps.Ledger.GetRecentScans(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Recent scans unavailable: %v", err)), nil
	}
	return s.structured("get_recent_scans", RecentScansResponse{Count: len(scans), Scans: scans})
}
