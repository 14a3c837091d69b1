package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/logger"
)

const discrepancySheet = "Discrepancies"

var discrepancyColumns = []string{
	"Lot ID", "EPC", "Chaine", "Quantite finale", "Detected count", "Delta", "Kind", "Date stockage",
}

// ExportDiscrepancies handles GET /api/lot-history/discrepancies/export
func (h *LotHandler) ExportDiscrepancies(w http.ResponseWriter, r *http.Request) {
	report, err := h.queries.Discrepancies.Handle(r.Context(), discrepancyFilter(r))
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	f, err := discrepancyWorkbook(report)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to build discrepancy workbook")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate Excel report",
		})
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("discrepancies-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(w); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to write discrepancy workbook")
	}
}

// discrepancyWorkbook lays the report out as one header row and one row per lot
func discrepancyWorkbook(report []domain.Discrepancy) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", discrepancySheet); err != nil {
		f.Close()
		return nil, err
	}

	for i, title := range discrepancyColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(discrepancySheet, cell, title); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, d := range report {
		stored := ""
		if d.DateStockage != nil {
			stored = d.DateStockage.UTC().Format(time.RFC3339)
		}
		row := []interface{}{d.LotID, d.EPC, d.ChaineID, d.QuantiteFinale, d.DetectedCount, d.Delta, string(d.Kind), stored}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(discrepancySheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}
