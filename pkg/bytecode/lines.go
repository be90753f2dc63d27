package bytecode

import "sort"

// LineRun records the source line of every byte from Start up to the next
// run's Start.
type LineRun struct {
	Line  int // Source line number
	Start int // First bytecode offset on this line
}

// LineTable maps bytecode offsets to source lines using run-length
// compression. Runs are strictly increasing by Start, and adjacent runs never
// share a line.
type LineTable struct {
	runs Buffer[LineRun]
}

// Add attributes the byte at offset to line. A new run is started only when
// line differs from the previous run's line.
func (t *LineTable) Add(line, offset int) {
	if last, ok := t.runs.Last(); ok && last.Line == line {
		return
	}
	t.runs.Push(LineRun{Line: line, Start: offset})
}

// FindLine returns the line of the run covering offset: the greatest run
// whose Start is <= offset. The last run extends to the end of the stream.
// Returns false if the table is empty or offset precedes the first run.
func (t *LineTable) FindLine(offset int) (int, bool) {
	runs := t.runs.Slice()
	// First run starting after offset; its predecessor covers offset.
	i := sort.Search(len(runs), func(i int) bool {
		return runs[i].Start > offset
	})
	if i == 0 {
		return 0, false
	}
	return runs[i-1].Line, true
}

// Runs returns the table's runs in offset order. Callers must not modify it.
func (t *LineTable) Runs() []LineRun {
	return t.runs.Slice()
}

// Len returns the number of runs.
func (t *LineTable) Len() int {
	return t.runs.Len()
}
