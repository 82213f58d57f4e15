package factdb

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/wbrown/janus-factdb/datalog"
	"github.com/wbrown/janus-factdb/datalog/storage"
)

// TableFormatter renders indices and tuple sequences as markdown tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a cell; 0 disables truncation
	MaxWidth int
	// TruncateString is appended to truncated cells
	TruncateString string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatTuples formats tuples under headers as a markdown table
func (tf *TableFormatter) FormatTuples(headers []string, tuples []datalog.Tuple) string {
	if len(tuples) == 0 {
		return fmt.Sprintf("_Columns: %v_\n\n_No rows_\n", headers)
	}

	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)

	for _, tuple := range tuples {
		row := make([]string, len(tuple))
		for j, term := range tuple {
			row[j] = tf.formatTerm(term)
		}
		table.Append(row)
	}

	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", len(tuples)))
	return tableString.String()
}

// FormatIndex drains one index into a table headed by its column positions
func (tf *TableFormatter) FormatIndex(sym datalog.RelationSymbol, idx *IndexedFactSet) (string, error) {
	it, err := idx.All()
	if err != nil {
		return "", err
	}
	tuples, err := storage.Collect(it)
	if err != nil {
		return "", err
	}
	return tf.FormatTuples(ColumnHeaders(sym.Arity), tuples), nil
}

func (tf *TableFormatter) formatTerm(t datalog.Term) string {
	if t == nil {
		return "nil"
	}
	s := t.String()
	if tf.MaxWidth > 0 && len(s) > tf.MaxWidth {
		cut := tf.MaxWidth - len(tf.TruncateString)
		if cut < 0 {
			cut = 0
		}
		s = s[:cut] + tf.TruncateString
	}
	return s
}

// ColumnHeaders returns the positional headers used for relation dumps
func ColumnHeaders(arity int) []string {
	headers := make([]string, arity)
	for i := range headers {
		headers[i] = fmt.Sprintf("%d", i)
	}
	return headers
}

// FormatRelations dumps the database as markdown. The full form shows every
// index of every relation; the simplified form shows only the master index
// of non-empty relations.
func (db *Database) FormatRelations(simplified bool) (string, error) {
	tf := NewTableFormatter()
	var sb strings.Builder

	for _, sym := range db.symbols {
		rel := db.relations[sym]
		if simplified {
			master := rel.masterIndex()
			if master.IsEmpty() {
				continue
			}
			table, err := tf.FormatIndex(sym, master)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "### %s\n\n%s\n", sym, table)
			continue
		}

		fmt.Fprintf(&sb, "### %s\n\n", sym)
		for i, idx := range rel.indices {
			marker := ""
			if i == rel.master {
				marker = " (master)"
			}
			fmt.Fprintf(&sb, "#### Index %d: %s %v%s\n\n", i, idx.pattern, idx.order, marker)
			table, err := tf.FormatIndex(sym, idx)
			if err != nil {
				return "", err
			}
			sb.WriteString(table)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// String returns the full dump, or the error that prevented it
func (db *Database) String() string {
	s, err := db.FormatRelations(false)
	if err != nil {
		return fmt.Sprintf("<dump failed: %v>", err)
	}
	return s
}
