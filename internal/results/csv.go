package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportCSV writes the ledger's current roster as RFC 4180 CSV with the
// columns Roll, Name, Score, Total, Timestamp (RFC 3339 instant).
func (l *Ledger) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Roll", "Name", "Score", "Total", "Timestamp"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range l.Snapshot() {
		row := []string{
			r.Roll,
			r.Name,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Total),
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
