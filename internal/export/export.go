package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/statuswatch/statuswatch/internal/store"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ErrUnsupportedFormat is returned for formats other than json and csv.
type ErrUnsupportedFormat struct {
	Format string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported export format %q (use json or csv)", e.Format)
}

// History writes metric samples in the requested format.
func History(w io.Writer, samples []store.MetricSample, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, samples)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"timestamp", "service", "metric", "value"}); err != nil {
			return err
		}
		for _, s := range samples {
			row := []string{
				s.Timestamp.Format(time.RFC3339),
				s.Service,
				s.Metric,
				strconv.FormatFloat(s.Value, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return &ErrUnsupportedFormat{Format: format}
	}
}

// Anomalies writes anomaly records in the requested format.
func Anomalies(w io.Writer, anomalies []store.AnomalyRecord, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, anomalies)
	case FormatCSV:
		cw := csv.NewWriter(w)
		header := []string{"detected_at", "service", "metric", "value", "expected", "z_score", "severity", "confidence", "description"}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, a := range anomalies {
			row := []string{
				a.DetectedAt.Format(time.RFC3339),
				a.Service,
				a.Metric,
				strconv.FormatFloat(a.Value, 'f', -1, 64),
				strconv.FormatFloat(a.Expected, 'f', -1, 64),
				strconv.FormatFloat(a.ZScore, 'f', 4, 64),
				a.Severity,
				strconv.FormatFloat(a.Confidence, 'f', 4, 64),
				a.Description,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return &ErrUnsupportedFormat{Format: format}
	}
}

// Report writes any report structure as indented JSON. CSV does not fit
// nested reports and is rejected.
func Report(w io.Writer, report interface{}, format string) error {
	if format != FormatJSON {
		return &ErrUnsupportedFormat{Format: format}
	}
	return writeJSON(w, report)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
