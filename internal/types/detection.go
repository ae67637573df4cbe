package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Detection is the raw payload a recognition model returns
type Detection struct {
	DetectedItems []DetectedItem `json:"detectedItems"`
	Confidence    FlexFloat      `json:"confidence"`
}

// DetectedItem is one dish as reported by the model, before any scaling
type DetectedItem struct {
	FoodName         FlexString           `json:"foodName"`
	VisibleCount     FlexFloat            `json:"visibleCount"`
	PerUnitWeight    FlexString           `json:"perUnitWeight"`
	PerUnitNutrition map[string]FlexFloat `json:"perUnitNutrition"`
	Category         FlexString           `json:"category"`
	HealthScore      FlexFloat            `json:"healthScore"`
	Ingredients      FlexStrings          `json:"ingredients"`
	Tips             FlexString           `json:"tips"`
}

// NutrientSet converts the loosely typed per-unit map, defaulting missing or negative
// values to 0
func (d DetectedItem) NutrientSet() NutrientSet {
	var n NutrientSet
	for _, key := range NutrientKeys {
		if v, ok := d.PerUnitNutrition[key]; ok && v.Valid && v.Value > 0 {
			n.Set(key, v.Value)
		}
	}
	return n
}

// FlexFloat accepts a JSON number, a numeric string, or null
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = FlexFloat{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, ok := leadingNumber(s)
		*f = FlexFloat{Value: v, Valid: ok}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		// booleans, objects and arrays are treated as absent
		*f = FlexFloat{}
		return nil
	}
	*f = FlexFloat{Value: v, Valid: true}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Or returns the value when present and non-zero, otherwise def
func (f FlexFloat) Or(def float64) float64 {
	if !f.Valid || f.Value == 0 {
		return def
	}
	return f.Value
}

// FlexString accepts a JSON string or a number (e.g. perUnitWeight: 70)
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(string(data))
	return nil
}

// FlexStrings accepts an array of strings or a single comma-separated string
type FlexStrings []string

func (s *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*s = out
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = nil
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if str, ok := r.(string); ok && strings.TrimSpace(str) != "" {
			out = append(out, strings.TrimSpace(str))
		}
	}
	*s = out
	return nil
}

// leadingNumber parses the first number found in s ("70g", "~ 1.5 cups")
func leadingNumber(s string) (float64, bool) {
	start := -1
	end := -1
	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if start < 0 {
			if isDigit {
				start = i
			}
			continue
		}
		if !isDigit && r != '.' {
			end = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	if end < 0 {
		end = len(s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[start:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LeadingInt returns the integer part of the first number in s
func LeadingInt(s string) (int, bool) {
	v, ok := leadingNumber(s)
	if !ok {
		return 0, false
	}
	return int(v), true
}
