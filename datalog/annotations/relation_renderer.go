package annotations

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// IndexRenderer pretty-prints relations and their indices
type IndexRenderer struct {
	useColor bool
}

// NewIndexRenderer creates a new index renderer
func NewIndexRenderer(useColor bool) *IndexRenderer {
	return &IndexRenderer{useColor: useColor}
}

// RenderRelation renders a relation symbol with an optional fact count
func (r *IndexRenderer) RenderRelation(relation string, facts int) string {
	if r.useColor {
		result := color.BlueString("Relation(") + color.CyanString(relation)
		if facts >= 0 {
			result += color.BlueString(", ") + r.colorizeCount("Facts", facts)
		}
		return result + color.BlueString(")")
	}

	if facts >= 0 {
		return fmt.Sprintf("Relation(%s, %d Facts)", relation, facts)
	}
	return fmt.Sprintf("Relation(%s)", relation)
}

// RenderIndex renders one index as Index(pattern, [order]) with a master marker
func (r *IndexRenderer) RenderIndex(pattern string, order []int, master bool) string {
	cols := make([]string, len(order))
	for i, c := range order {
		cols[i] = fmt.Sprintf("%d", c)
	}
	colList := strings.Join(cols, " ")

	marker := ""
	if master {
		marker = "*"
	}

	if r.useColor {
		return fmt.Sprintf("%s%s%s%s%s%s",
			color.BlueString("Index("),
			color.CyanString(pattern),
			color.BlueString(", ["),
			color.CyanString(colList),
			color.BlueString("])"),
			color.YellowString(marker))
	}

	return fmt.Sprintf("Index(%s, [%s])%s", pattern, colList, marker)
}

// colorizeCount formats a count with color based on size
func (r *IndexRenderer) colorizeCount(label string, count int) string {
	if !r.useColor {
		return fmt.Sprintf("%d %s", count, label)
	}

	countStr := fmt.Sprintf("%d", count)

	switch {
	case count == 0:
		countStr = color.RedString(countStr)
	case count < 100:
		countStr = color.GreenString(countStr)
	case count < 10000:
		countStr = color.YellowString(countStr)
	default:
		countStr = color.RedString(countStr)
	}

	return fmt.Sprintf("%s %s", countStr, label)
}
