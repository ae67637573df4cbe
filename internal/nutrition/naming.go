package nutrition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noot-app/foodlens/internal/types"
)

// ComposeName builds the display name for a scan: "Chapati", "3 Chapatis", or
// "Combo: 2 Idlis + 1 Sambar + more"
func ComposeName(items []types.ProcessedItem) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		item := items[0]
		if item.VisibleCount > 1 {
			return fmt.Sprintf("%d %ss", item.VisibleCount, item.Name)
		}
		return item.Name
	}

	shown := items
	if len(shown) > 3 {
		shown = shown[:3]
	}
	parts := make([]string, 0, len(shown))
	for _, item := range shown {
		parts = append(parts, fmt.Sprintf("%d %s%s", item.VisibleCount, item.Name, plural(item.VisibleCount)))
	}

	name := "Combo: " + strings.Join(parts, " + ")
	if len(items) > 3 {
		name += " + more"
	}
	return name
}

// BuildTips turns portion and nutrient thresholds into a short advice string
func BuildTips(items []types.ProcessedItem, total types.NutrientSet) string {
	var tips []string

	pieces := totalPieces(items)
	if pieces >= 6 {
		tips = append(tips, "Large meal - consider sharing")
	} else if pieces >= 3 {
		tips = append(tips, "Good portion size")
	}

	if total.Protein > 20 {
		tips = append(tips, fmt.Sprintf("High protein (%sg)", strconv.FormatFloat(total.Protein, 'f', -1, 64)))
	}
	if total.Calories > 600 {
		tips = append(tips, "High-calorie meal - balance with lighter foods")
	}

	if len(tips) == 0 {
		return "Enjoy your meal!"
	}
	return strings.Join(tips, ". ") + "."
}

func totalPieces(items []types.ProcessedItem) int {
	n := 0
	for _, item := range items {
		n += item.VisibleCount
	}
	return n
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
