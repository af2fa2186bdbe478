package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

const (
	exportSheet = "Categorizations"
	legendSheet = "Legend"
)

var exportHeader = []interface{}{
	"Unit", "Segment Order", "Frame Name", "Frame Number", "Side", "User", "Category", "Label", "Flagged", "Note",
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) WriteCategorizations(ctx context.Context, unit models.Unit, w io.Writer) (int, error) {
	rows, err := s.repo.Categorization().ListAllForUnit(ctx, nil, unit)
	if err != nil {
		return 0, fmt.Errorf("failed to list categorizations: %w", err)
	}

	names, err := s.userNames(ctx, rows)
	if err != nil {
		return 0, err
	}
	sortExportRows(rows, names)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		values := exportValues(unit, row, names[row.UserID])
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := writeLegend(f); err != nil {
		return 0, err
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Exported categorizations", "unit", unit.String(), "rows", humanize.Comma(int64(len(rows))))
	return len(rows), nil
}

func (s *exportService) userNames(ctx context.Context, rows []*models.Categorization) (map[uint]string, error) {
	seen := make(map[uint]bool)
	var ids []uint
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			ids = append(ids, row.UserID)
		}
	}

	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	users, err := s.repo.User().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}

func sortExportRows(rows []*models.Categorization, names map[uint]string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Frame, rows[j].Frame
		if a != nil && b != nil {
			if oa, ob := segmentOrder(a), segmentOrder(b); oa != ob {
				return oa < ob
			}
			if a.SegmentID != b.SegmentID {
				return a.SegmentID < b.SegmentID
			}
			if na, nb := a.Number(), b.Number(); na != nb {
				return na < nb
			}
			if a.Side != b.Side {
				return a.Side < b.Side
			}
		}
		return names[rows[i].UserID] < names[rows[j].UserID]
	})
}

func exportValues(unit models.Unit, row *models.Categorization, user string) []interface{} {
	var (
		order  int
		name   string
		number int
		side   string
	)
	if f := row.Frame; f != nil {
		order = segmentOrder(f)
		name = f.FrameName
		number = f.Number()
		side = f.Side.String()
	}
	note := ""
	if row.Note != nil {
		note = *row.Note
	}
	return []interface{}{
		unit.String(), order, name, number, side, user,
		row.Category, models.CategoryLabels[row.Category], row.Flagged, note,
	}
}

func writeLegend(f *excelize.File) error {
	if _, err := f.NewSheet(legendSheet); err != nil {
		return fmt.Errorf("failed to add legend sheet: %w", err)
	}
	header := []interface{}{"Category", "Label"}
	if err := f.SetSheetRow(legendSheet, "A1", &header); err != nil {
		return err
	}

	codes := make([]string, 0, len(models.CategoryLabels))
	for code := range models.CategoryLabels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for i, code := range codes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{code, models.CategoryLabels[code]}
		if err := f.SetSheetRow(legendSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
