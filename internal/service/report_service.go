package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/evaluator"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// mineReportHeader is the column layout of the mine status export.
var mineReportHeader = []string{
	"Mine",
	"Mine Status",
	"Sector",
	"Level",
	"Sector Tier",
	"Sensors",
	"Active Sensors",
	"Open Alerts",
	"Generated At",
}

// ReportService builds XLSX status exports for supervisors. One row per
// sector, with the derived tier read from the same baselines the monitor
// maintains.
type ReportService struct {
	minesRepo  repository.MinesRepository
	alertsRepo repository.AlertsRepository
	baselines  evaluator.BaselineStore
	logger     *zap.Logger
}

// NewReportService creates the report service.
func NewReportService(
	minesRepo repository.MinesRepository,
	alertsRepo repository.AlertsRepository,
	baselines evaluator.BaselineStore,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		minesRepo:  minesRepo,
		alertsRepo: alertsRepo,
		baselines:  baselines,
		logger:     logger,
	}
}

type mineReportRow struct {
	mineName      string
	mineStatus    string
	sectorName    string
	level         int
	tier          string
	sensors       int
	activeSensors int
	openAlerts    int
}

// GenerateMineStatusReport renders the current status of one mine (or all
// mines when mineID is empty) as an XLSX workbook.
func (s *ReportService) GenerateMineStatusReport(ctx context.Context, mineID string) ([]byte, error) {
	var mines []domain.Mine
	if mineID != "" {
		mine, err := s.minesRepo.GetMine(ctx, mineID)
		if err != nil {
			return nil, fmt.Errorf("failed to load mine: %w", err)
		}
		mines = []domain.Mine{*mine}
	} else {
		var err error
		mines, err = s.minesRepo.ListMines(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list mines: %w", err)
		}
	}

	var rows []mineReportRow
	for _, mine := range mines {
		sectors, err := s.minesRepo.ListSectors(ctx, mine.MineID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sectors: %w", err)
		}
		openAlerts, err := s.alertsRepo.CountOpenAlerts(ctx, mine.MineID)
		if err != nil {
			return nil, err
		}
		for _, sector := range sectors {
			tier, _, err := s.baselines.PreviousTier(ctx, "sector:"+sector.SectorID)
			if err != nil {
				return nil, err
			}
			sensors, err := s.minesRepo.ListSensorsBySector(ctx, sector.SectorID)
			if err != nil {
				return nil, fmt.Errorf("failed to list sensors: %w", err)
			}
			active := 0
			for _, sensor := range sensors {
				if sensor.Status == domain.SensorActive {
					active++
				}
			}
			rows = append(rows, mineReportRow{
				mineName:      mine.Name,
				mineStatus:    string(mine.Status),
				sectorName:    sector.Name,
				level:         sector.Level,
				tier:          tier.String(),
				sensors:       len(sensors),
				activeSensors: active,
				openAlerts:    openAlerts,
			})
		}
	}

	data, err := renderMineStatusExcel(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mine status report generated",
		zap.String("mine_id", mineID),
		zap.Int("rows", len(rows)),
	)
	return data, nil
}

func renderMineStatusExcel(rows []mineReportRow) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so Close only runs on the error paths
	// and once at the end.

	sheetName := "Mine Status"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range mineReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{25, 15, 25, 8, 12, 10, 14, 12, 20}
	for i := range mineReportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	generatedAt := time.Now().UTC().Format("2006-01-02 15:04:05")
	for rowIdx, r := range rows {
		row := rowIdx + 2
		values := []interface{}{
			r.mineName,
			r.mineStatus,
			r.sectorName,
			r.level,
			r.tier,
			r.sensors,
			r.activeSensors,
			r.openAlerts,
			generatedAt,
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, colIdx+1, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}
