package annotations

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
	renderer *IndexRenderer
	mu       sync.Mutex // serializes writes from concurrent inserters
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
		renderer: NewIndexRenderer(useColor),
	}
}

// Handle implements Handler - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		f.mu.Lock()
		fmt.Fprintln(f.writer, output)
		f.mu.Unlock()
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case DatabaseBuilt:
		return fmt.Sprintf("%s %s Database built on %s with %s and %s",
			latency,
			f.colorize("===", color.FgGreen),
			stringData(event, "backend"),
			f.colorizeCount("Relations", intData(event, "relations.count")),
			f.colorizeCount("Indices", intData(event, "indices.count")))

	case IndexMaterialized:
		index := f.renderer.RenderIndex(
			stringData(event, "pattern"),
			orderData(event, "order"),
			boolData(event, "master"))
		return fmt.Sprintf("%s %s #%d %s",
			latency,
			f.renderer.RenderRelation(stringData(event, "relation"), -1),
			intData(event, "index"),
			index)

	case IndexMasterSynthesized:
		return fmt.Sprintf("%s %s %s has no canonical index, synthesized %s",
			latency,
			f.colorize("!", color.FgYellow),
			f.renderer.RenderRelation(stringData(event, "relation"), -1),
			stringData(event, "pattern"))

	case FactsInserted:
		return fmt.Sprintf("%s Insert into %s → %s new",
			latency,
			f.renderer.RenderRelation(stringData(event, "relation"), intData(event, "facts.count")),
			f.colorizeCount("Facts", intData(event, "facts.new")))

	case IndexLookup:
		return fmt.Sprintf("%s Lookup(%s) on %s #%d %s",
			latency,
			stringData(event, "key"),
			f.renderer.RenderRelation(stringData(event, "relation"), -1),
			intData(event, "index"),
			stringData(event, "pattern"))

	case DatabaseClear:
		return fmt.Sprintf("%s Cleared %s",
			latency,
			f.colorizeCount("Relations", intData(event, "relations.count")))

	case LoadBegin:
		return fmt.Sprintf("%s %s Loading %d batches on %d workers",
			latency,
			f.colorize("===", color.FgYellow),
			intData(event, "batches.count"),
			intData(event, "workers"))

	case LoadComplete:
		if !boolData(event, "success") {
			return fmt.Sprintf("%s %s Load failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				event.Data["error"])
		}
		return fmt.Sprintf("%s %s Loaded %d batches with %s",
			latency,
			f.colorize("===", color.FgGreen),
			intData(event, "batches.count"),
			f.colorizeCount("Facts", intData(event, "facts.new")))

	case ErrorContract, ErrorBackend:
		return fmt.Sprintf("%s %s %s on %s: %v",
			latency,
			f.colorize("✗", color.FgRed),
			event.Name,
			stringData(event, "relation"),
			event.Data["error"])

	default:
		// Generic format for unknown events
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)

	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorizeCount formats a count with a label
func (f *OutputFormatter) colorizeCount(label string, count int) string {
	text := fmt.Sprintf("%d %s", count, label)

	if !f.useColor {
		return text
	}

	switch label {
	case "Relations":
		return color.CyanString(text)
	case "Facts":
		return color.MagentaString(text)
	case "Indices":
		return color.BlueString(text)
	default:
		return text
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func stringData(e Event, key string) string {
	if v, ok := e.Data[key]; ok {
		return fmt.Sprint(v)
	}
	return "?"
}

func intData(e Event, key string) int {
	v, _ := e.Data[key].(int)
	return v
}

func boolData(e Event, key string) bool {
	v, _ := e.Data[key].(bool)
	return v
}

func orderData(e Event, key string) []int {
	v, _ := e.Data[key].([]int)
	return v
}

// ConsoleHandler creates a handler that prints formatted events to w.
func ConsoleHandler(w io.Writer) Handler {
	return NewOutputFormatter(w).Handle
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
