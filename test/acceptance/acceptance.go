package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// acceptance drives a running `foodlens serve` over HTTP:
//
//	AUTH_TOKEN=secret foodlens serve &
//	FOODLENS_URL=http://localhost:8080 AUTH_TOKEN=secret go run .
var (
	serverURL = envOr("FOODLENS_URL", "http://localhost:8080")
	authToken = envOr("AUTH_TOKEN", "your-secret-token")
	client    = &http.Client{Timeout: 30 * time.Second}
)

// testDate keeps writes away from the real current day
const testDate = "2001-01-01"

var expectedTools = []string{
	"add_food_to_meal",
	"get_daily_intake",
	"get_goals",
	"get_recent_scans",
	"get_weekly_data",
	"lookup_barcode",
	"recognize_food",
	"update_goals",
	"update_water_intake",
}

type MCPRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type MCPResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type ToolResult struct {
	IsError           bool            `json:"isError"`
	StructuredContent json.RawMessage `json:"structuredContent"`
	Content           []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	fmt.Printf("🧪 foodlens acceptance tests against %s\n\n", serverURL)

	steps := []struct {
		name string
		run  func() error
	}{
		{"health endpoint (no auth)", testHealth},
		{"MCP rejects missing and wrong tokens", testAuthRejected},
		{"MCP initialize with token", testInitialize},
		{"every tool is registered", testToolsList},
		{"water round trip through the ledger", testWaterRoundTrip},
		{"barcode lookup", testBarcode},
		{"concurrent reads", testConcurrentReads},
	}

	for i, s := range steps {
		fmt.Printf("%d. %s...\n", i+1, s.name)
		start := time.Now()
		if err := s.run(); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ passed (%.3fs)\n\n", time.Since(start).Seconds())
	}
	fmt.Printf("🎉 All acceptance tests passed!\n")
}

func testHealth() error {
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected status 200, got %d: %s", resp.StatusCode, body)
	}
	return nil
}

func testAuthRejected() error {
	for _, token := range []string{"", "wrong-api-key"} {
		status, _, err := post(token, MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize", Params: initParams()})
		if err != nil {
			return err
		}
		if status != http.StatusUnauthorized {
			return fmt.Errorf("token %q: expected 401, got %d", token, status)
		}
	}
	return nil
}

func initParams() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]string{"name": "acceptance", "version": "1.0.0"},
	}
}

func testInitialize() error {
	status, body, err := post(authToken, MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize", Params: initParams()})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d: %s", status, body)
	}
	if !strings.Contains(string(body), "foodlens") {
		return fmt.Errorf("initialize response does not name the server: %s", body)
	}
	return nil
}

func testToolsList() error {
	res, err := rpc(2, "tools/list", nil)
	if err != nil {
		return err
	}
	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(res, &list); err != nil {
		return fmt.Errorf("failed to parse tools/list: %w", err)
	}
	var names []string
	for _, t := range list.Tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	if strings.Join(names, ",") != strings.Join(expectedTools, ",") {
		return fmt.Errorf("tools = %v, want %v", names, expectedTools)
	}
	return nil
}

func testWaterRoundTrip() error {
	var day struct {
		Date         string `json:"date"`
		WaterGlasses int    `json:"waterGlasses"`
	}
	if err := callTool(3, "update_water_intake", map[string]interface{}{"glasses": 4, "date": testDate}, &day); err != nil {
		return err
	}
	if err := callTool(4, "get_daily_intake", map[string]interface{}{"date": testDate}, &day); err != nil {
		return err
	}
	if day.Date != testDate || day.WaterGlasses != 4 {
		return fmt.Errorf("unexpected ledger %+v", day)
	}
	return nil
}

func testBarcode() error {
	var res struct {
		Found  bool `json:"found"`
		Result struct {
			FoodName  string `json:"foodName"`
			Nutrition struct {
				Calories float64 `json:"calories"`
			} `json:"nutrition"`
		} `json:"result"`
	}
	if err := callTool(5, "lookup_barcode", map[string]interface{}{"barcode": "3017620422003"}, &res); err != nil {
		return err
	}
	if !res.Found || res.Result.FoodName == "" || res.Result.Nutrition.Calories <= 0 {
		return fmt.Errorf("unexpected barcode result %+v", res)
	}
	fmt.Printf("   found %s (%.0f kcal/100g)\n", res.Result.FoodName, res.Result.Nutrition.Calories)
	return nil
}

func testConcurrentReads() error {
	const clients, perClient = 10, 5

	var wg sync.WaitGroup
	var mu sync.Mutex
	var durations []time.Duration
	errs := make(chan error, clients*perClient)

	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perClient; i++ {
				start := time.Now()
				var week struct {
					Days []json.RawMessage `json:"days"`
				}
				err := callTool(100+c*perClient+i, "get_weekly_data", map[string]interface{}{"date": testDate}, &week)
				if err == nil && len(week.Days) != 7 {
					err = fmt.Errorf("got %d days", len(week.Days))
				}
				if err != nil {
					errs <- err
					continue
				}
				mu.Lock()
				durations = append(durations, time.Since(start))
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()
	close(errs)

	if err, ok := <-errs; ok {
		return fmt.Errorf("%d/%d requests failed, first: %w", len(errs)+1, clients*perClient, err)
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	fmt.Printf("   %d requests, p50 %v, max %v\n", len(durations), durations[len(durations)/2], durations[len(durations)-1])
	return nil
}

func callTool(id int, name string, args map[string]interface{}, out interface{}) error {
	raw, err := rpc(id, "tools/call", map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		return err
	}
	var res ToolResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("%s: failed to parse result: %w", name, err)
	}
	if res.IsError {
		msg := ""
		if len(res.Content) > 0 {
			msg = res.Content[0].Text
		}
		return fmt.Errorf("%s returned a tool error: %s", name, msg)
	}
	if err := json.Unmarshal(res.StructuredContent, out); err != nil {
		return fmt.Errorf("%s: failed to parse structured content: %w", name, err)
	}
	return nil
}

func rpc(id int, method string, params interface{}) (json.RawMessage, error) {
	status, body, err := post(authToken, MCPRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s: expected status 200, got %d: %s", method, status, body)
	}
	var resp MCPResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: failed to parse response: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s: rpc error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

func post(token string, req MCPRequest) (int, []byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return 0, nil, err
	}
	httpReq, err := http.NewRequest(http.MethodPost, serverURL+"/mcp", bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
