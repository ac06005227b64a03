package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderLoad renders a booked-time bar like [████░░░░]  45%. The bar fills
// to 100% and turns yellow past two thirds and red once full; the label
// keeps the real percentage so overbooking stays visible.
func RenderLoad(pct float64, width int) string {
	pct = max(pct, 0)
	width = max(width, 2)

	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct >= 1:
		style = StyleRed
	case pct >= 0.66:
		style = StyleYellow
	}

	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}
