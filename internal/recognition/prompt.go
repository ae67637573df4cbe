package recognition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// responseShape is the JSON skeleton both prompts ask the model to fill in
const responseShape = `{
  "detectedItems": [
    {
      "foodName": %s,
      "visibleCount": 1,
      "perUnitWeight": "weight of one piece or serving, e.g. 70g",
      "perUnitNutrition": {
        "calories": 250,
        "protein": 12.5,
        "carbs": 30.2,
        "fat": 8.7,
        "fiber": 3.1,
        "sugar": 5.2,
        "sodium": 380,
        "iron": 1.8,
        "calcium": 85,
        "vitaminC": 2
      },
      "category": "food category",
      "healthScore": 7,
      "ingredients": ["ingredient1", "ingredient2"],
      "tips": "short health tip"
    }
  ],
  "confidence": 0.9
}`

const autonomousRules = `RULES:
- Use specific dish names (Dal Makhani, Chapati, Basmati Rice, Raita, Mango Pickle)
- Count every visible piece of a dish; report one entry per dish with its visibleCount
- Nutrition values are PER PIECE or PER SERVING, not for the whole plate
- Realistic unit weights: flatbread 60g, rice 150g, lentil curry 120-150g, pickle 20g, chutney or condiment 25g
- Fill all ten nutrition keys using USDA or regional food composition data
- healthScore is 1-10 where 10 is healthiest
- Respond with a single JSON object only: no markdown, no prose`

// AutonomousPrompt asks the model to detect and count every dish on its own
func AutonomousPrompt() string {
	var b strings.Builder
	b.WriteString("You are an expert nutritionist analyzing a photo of a meal. ")
	b.WriteString("Return ONLY valid JSON with complete nutrition information in exactly this shape:\n\n")
	fmt.Fprintf(&b, responseShape, `"specific dish name"`)
	b.WriteString("\n\n")
	b.WriteString(autonomousRules)
	return b.String()
}

// UserAssistedPrompt treats the user's description as the authoritative source of
// dish names and counts; the model only estimates nutrition
func UserAssistedPrompt(hint string) string {
	hint = strings.TrimSpace(hint)
	quoted, _ := json.Marshal(hint)

	var b strings.Builder
	fmt.Fprintf(&b, "The user says this image contains: %s\n\n", quoted)
	b.WriteString("Use the user's description as the authoritative basis for food names and counts. ")
	b.WriteString("Split it into one entry per dish and estimate per-piece nutrition for each. ")
	b.WriteString("Return ONLY valid JSON in exactly this shape:\n\n")
	fmt.Fprintf(&b, responseShape, quoted)
	b.WriteString("\n\n")
	b.WriteString("Respond with a single JSON object only: no markdown, no prose.")
	return b.String()
}

// BuildPrompt picks the user-assisted prompt when a non-blank hint is given
func BuildPrompt(hint string) string {
	if strings.TrimSpace(hint) == "" {
		return AutonomousPrompt()
	}
	return UserAssistedPrompt(hint)
}
