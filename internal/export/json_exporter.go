package export

import (
	"encoding/json"
	"io"

	"github.com/tabaudit/tabaudit/pkg/models"
)

// JSONExporter renders audit aggregates as indented JSON, the format
// the snapshot/lineage tooling and external renderers consume.
type JSONExporter struct {
	Indent string
}

// NewJSONExporter creates a JSON exporter with two-space indentation.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{Indent: "  "}
}

func (e *JSONExporter) encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", e.Indent)
	return enc.Encode(v)
}

// ExportProfile writes a dataset profile.
func (e *JSONExporter) ExportProfile(w io.Writer, profile *models.DatasetProfile) error {
	return e.encode(w, profile)
}

// ExportDrift writes a drift report.
func (e *JSONExporter) ExportDrift(w io.Writer, report *models.DriftReport) error {
	return e.encode(w, report)
}

// ExportAudit writes a full audit report.
func (e *JSONExporter) ExportAudit(w io.Writer, report *models.AuditReport) error {
	return e.encode(w, report)
}
