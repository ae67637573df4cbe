package appstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/noot-app/foodlens/internal/storage"
)

// ThemeKey stores the dark mode preference as "true" or "false"
const ThemeKey = "darkMode"

type ThemeMode int

const (
	Light ThemeMode = iota
	Dark
)

func (m ThemeMode) String() string {
	if m == Dark {
		return "dark"
	}
	return "light"
}

// MarshalText encodes the mode by name
func (m ThemeMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts "light" or "dark"
func (m *ThemeMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "light":
		*m = Light
	case "dark":
		*m = Dark
	default:
		return fmt.Errorf("unknown theme %q", text)
	}
	return nil
}

// Palette is the set of named colors a client renders with
type Palette struct {
	Primary       string `json:"primary"`
	PrimaryDark   string `json:"primaryDark"`
	Secondary     string `json:"secondary"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	Text          string `json:"text"`
	TextSecondary string `json:"textSecondary"`
	TextLight     string `json:"textLight"`
	Border        string `json:"border"`
	Shadow        string `json:"shadow"`
	Success       string `json:"success"`
	Warning       string `json:"warning"`
	Error         string `json:"error"`
	Info          string `json:"info"`
}

var palettes = map[ThemeMode]Palette{
	Light: {
		Primary:       "#4CAF50",
		PrimaryDark:   "#45a049",
		Secondary:     "#FF6B35",
		Background:    "#f8f9fa",
		Surface:       "#ffffff",
		Text:          "#333333",
		TextSecondary: "#666666",
		TextLight:     "#999999",
		Border:        "#e0e0e0",
		Shadow:        "#000000",
		Success:       "#4CAF50",
		Warning:       "#FF9800",
		Error:         "#F44336",
		Info:          "#2196F3",
	},
	Dark: {
		Primary:       "#4CAF50",
		PrimaryDark:   "#2E7D32",
		Secondary:     "#FF6B35",
		Background:    "#121212",
		Surface:       "#1E1E1E",
		Text:          "#FFFFFF",
		TextSecondary: "#B3B3B3",
		TextLight:     "#808080",
		Border:        "#333333",
		Shadow:        "#000000",
		Success:       "#4CAF50",
		Warning:       "#FF9800",
		Error:         "#F44336",
		Info:          "#2196F3",
	},
}

// Colors returns the palette of a mode
func (m ThemeMode) Colors() Palette {
	return palettes[m]
}

// LoadTheme reads the stored preference. Anything but "true" is light.
func LoadTheme(ctx context.Context, kv storage.Store) (ThemeMode, error) {
	raw, err := kv.Get(ctx, ThemeKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Light, nil
	}
	if err != nil {
		return Light, err
	}
	if raw == "true" {
		return Dark, nil
	}
	return Light, nil
}

// SaveTheme stores the preference
func SaveTheme(ctx context.Context, kv storage.Store, mode ThemeMode) error {
	return kv.Set(ctx, ThemeKey, strconv.FormatBool(mode == Dark))
}
