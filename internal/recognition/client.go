// Package recognition turns a food photo into a ScanResult by asking a ranked list
// of Gemini models and falling back to a fixed estimate when all of them fail.
package recognition

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/noot-app/foodlens/internal/nutrition"
	"github.com/noot-app/foodlens/internal/types"
)

// Options tunes a Client
type Options struct {
	Models   []string
	Timeout  time.Duration
	MaxWidth int
	Quality  int
	// Now is the clock used for timestamps; defaults to time.Now
	Now func() time.Time
}

// Client orchestrates image preparation, prompting, ranked model calls and
// aggregation. It never returns an error.
type Client struct {
	caller ModelCaller
	opts   Options
	log    *slog.Logger
}

// NewClient creates a recognition client
func NewClient(caller ModelCaller, opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Quality <= 0 {
		opts.Quality = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{caller: caller, opts: opts, log: logger}
}

var displayNames = map[string]string{
	"gemini-2.5-flash":     "Gemini 2.5 Flash",
	"gemini-2.0-flash-exp": "Gemini 2.0 Flash Exp",
	"gemini-2.0-flash":     "Gemini 2.0 Flash",
	"gemini-2.5-pro":       "Gemini 2.5 Pro",
}

// DisplayName returns a human label for a model id, or the id itself
func DisplayName(model string) string {
	if name, ok := displayNames[model]; ok {
		return name
	}
	return model
}

// RecognizeFood reads an image file and recognizes it. An unreadable file yields
// the fallback estimate.
func (c *Client) RecognizeFood(ctx context.Context, imagePath, hint string) *types.ScanResult {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		c.log.Error("failed to read image", "path", imagePath, "error", err)
		res := nutrition.FallbackResult(nutrition.BuildOptions{UserInput: hint, Now: c.opts.Now()})
		res.ImageRef = imagePath
		return res
	}
	return c.RecognizeImage(ctx, data, imagePath, hint)
}

// RecognizeImage recognizes raw image bytes. ref is an opaque reference recorded
// on the result.
func (c *Client) RecognizeImage(ctx context.Context, data []byte, ref, hint string) *types.ScanResult {
	start := time.Now()
	hint = strings.TrimSpace(hint)

	payload, err := PrepareImage(data, c.opts.MaxWidth, c.opts.Quality)
	if err != nil {
		c.log.Warn("image optimization failed, sending original", "error", err)
	}
	c.log.Debug("image prepared", "bytes", len(payload), "duration", time.Since(start))

	prompt := BuildPrompt(hint)

	steps := make([]step[*types.ScanResult], 0, len(c.opts.Models))
	for _, model := range c.opts.Models {
		steps = append(steps, step[*types.ScanResult]{
			name: model,
			run: func(ctx context.Context) (*types.ScanResult, error) {
				text, err := c.caller.Generate(ctx, model, prompt, payload)
				if err != nil {
					return nil, err
				}
				det, err := Parse(text)
				if err != nil {
					return nil, err
				}
				return nutrition.BuildScanResult(det, nutrition.BuildOptions{UserInput: hint, Now: c.opts.Now()})
			},
		})
	}

	res, model, err := firstSuccess(ctx, steps, c.opts.Timeout, c.log)
	if err != nil {
		c.log.Warn("all models failed, returning estimate", "error", err, "duration", time.Since(start))
		res = nutrition.FallbackResult(nutrition.BuildOptions{UserInput: hint, Now: c.opts.Now()})
	} else {
		res.UsedModel = DisplayName(model)
		c.log.Info("food recognized",
			"model", model,
			"food", res.FoodName,
			"items", res.ItemCount,
			"duration", time.Since(start))
	}

	res.ProcessingTimeMs = time.Since(start).Milliseconds()
	res.ImageRef = ref
	return res
}
