// Package export renders the inventory as CSV or XLSX, records every attempt
// in the export log and optionally archives the file to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"github.com/qmedic/qmedic/internal/metrics"
	"github.com/qmedic/qmedic/internal/model"
	"github.com/qmedic/qmedic/internal/store"
)

// Columns is the header row of every export.
var Columns = []string{"Item ID", "Name", "Category", "Quantity", "Min. Quantity", "Expiry Date", "Location"}

const sheetName = "Inventory"

// Archiver stores a finished export file under key.
type Archiver interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Items       int
	ObjectKey   string
}

// Service produces exports.
type Service struct {
	DB       *sqlx.DB
	Archiver Archiver
	Metrics  *metrics.Metrics

	Now func() time.Time
}

// Export renders all active items in format. The attempt is written to the
// export log whether it succeeds or not.
func (s *Service) Export(ctx context.Context, sess model.Session, format model.ExportFormat) (*File, error) {
	now := s.now()
	file, err := s.render(ctx, format, now)

	entry := &model.ExportLog{
		Format:    format,
		Username:  sess.Username,
		CreatedAt: now,
	}
	if err != nil {
		entry.Status = model.ExportFailed
		entry.Details = err.Error()
	} else {
		entry.Status = model.ExportSuccess
		entry.Details = fmt.Sprintf("Exported %d items.", file.Items)
		entry.ObjectKey = file.ObjectKey
	}
	s.Metrics.ObserveExport(string(format), entry.Status)

	if logErr := store.AppendExportLog(ctx, s.DB, entry); logErr != nil {
		slog.Error("failed to record export", "format", format, "error", logErr)
		if err == nil {
			err = logErr
		}
	}
	if err != nil {
		return nil, err
	}

	slog.Info("export generated", "format", format, "items", file.Items, "user", sess.Username, "object", file.ObjectKey)
	return file, nil
}

func (s *Service) render(ctx context.Context, format model.ExportFormat, now time.Time) (*File, error) {
	items, err := store.ListItems(ctx, s.DB, store.ItemFilter{})
	if err != nil {
		return nil, err
	}

	var (
		buf         bytes.Buffer
		ext         string
		contentType string
	)
	switch format {
	case model.ExportCSV:
		ext, contentType = "csv", "text/csv"
		err = WriteCSV(&buf, items)
	case model.ExportExcel:
		ext, contentType = "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = WriteXLSX(&buf, items)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	file := &File{
		Name:        fmt.Sprintf("inventory-%s.%s", now.Format("2006-01-02"), ext),
		ContentType: contentType,
		Data:        buf.Bytes(),
		Items:       len(items),
	}

	if s.Archiver != nil {
		key := ObjectKey(now, ext)
		if err := s.Archiver.Put(ctx, key, contentType, file.Data); err != nil {
			return nil, fmt.Errorf("archiving export: %w", err)
		}
		file.ObjectKey = key
	}
	return file, nil
}

// ObjectKey returns the archive key for an export made at t.
func ObjectKey(t time.Time, ext string) string {
	return fmt.Sprintf("exports/%s-inventory.%s", t.UTC().Format("20060102T150405Z"), ext)
}

func row(item model.Item) []string {
	expiry := ""
	if item.Expiry != nil {
		expiry = item.Expiry.String()
	}
	return []string{
		item.Code,
		item.Name,
		string(item.Category),
		strconv.Itoa(item.Quantity),
		strconv.Itoa(item.MinQuantity),
		expiry,
		item.Location,
	}
}

// WriteCSV writes items as CSV with a header row.
func WriteCSV(w io.Writer, items []model.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, item := range items {
		if err := cw.Write(row(item)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// WriteXLSX writes items as a single-sheet workbook with a bold header.
func WriteXLSX(w io.Writer, items []model.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(item)
		cells := []any{values[0], values[1], values[2], item.Quantity, item.MinQuantity, values[5], values[6]}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	for i, c := range Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(max(len(c), 10) + 2)
		if c == "Name" || c == "Location" {
			width = 28
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("sizing columns: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// ParseFormat maps a URL path segment to an export format.
func ParseFormat(s string) (model.ExportFormat, bool) {
	switch strings.ToLower(s) {
	case "csv":
		return model.ExportCSV, true
	case "excel", "xlsx":
		return model.ExportExcel, true
	default:
		return "", false
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
