package ledger

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"komagene-kasa/internal/model"
)

const (
	reportSheet  = "Rapor"
	summarySheet = "Özet"
)

var xlsxHeader = []interface{}{
	"Tarih", "POS", "Nakit", "Yemeksepeti", "Getir", "Trendyol", "GelAl", "Toplam Gelir",
	"Tedarikçi", "Personel", "Faturalar", "Vergi", "Diğer", "Toplam Gider", "Net Kâr", "Not", "İşaretli",
}

// WriteXLSX writes a workbook with the same columns as the CSV export and a
// summary sheet with the grand totals.
func WriteXLSX(w io.Writer, records []model.DailyRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(reportSheet, "A1", &xlsxHeader); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(xlsxHeader))
	if err := f.SetCellStyle(reportSheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}

	for i, r := range records {
		t := RowTotals(r)
		b := expenseBreakdown(r)
		marked := ""
		if r.Marked {
			marked = "X"
		}
		row := []interface{}{
			r.Date,
			float64(r.Income.CreditCard),
			float64(r.Income.Cash),
			float64(r.Income.Online.Yemeksepeti),
			float64(r.Income.Online.Getir),
			float64(r.Income.Online.Trendyol),
			float64(r.Income.Online.Gelal),
			t.TotalIncome,
			b.Supplier, b.Staff, b.Bills, b.Tax, b.Other,
			t.TotalExpense,
			t.NetProfit,
			r.Note,
			marked,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return err
		}
	}

	s := GrandTotals(records)
	totalRow := []interface{}{
		TotalRowLabel,
		s.IncomeBreakdown.CreditCard,
		s.IncomeBreakdown.Cash,
		s.IncomeBreakdown.Yemeksepeti,
		s.IncomeBreakdown.Getir,
		s.IncomeBreakdown.Trendyol,
		s.IncomeBreakdown.Gelal,
		s.TotalIncome,
		s.ExpenseBreakdown.Supplier, s.ExpenseBreakdown.Staff, s.ExpenseBreakdown.Bills,
		s.ExpenseBreakdown.Tax, s.ExpenseBreakdown.Other,
		s.TotalExpense,
		s.NetProfit,
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, len(records)+2)
	if err := f.SetSheetRow(reportSheet, totalCell, &totalRow); err != nil {
		return err
	}
	endCell, _ := excelize.CoordinatesToCellName(len(totalRow), len(records)+2)
	if err := f.SetCellStyle(reportSheet, totalCell, endCell, bold); err != nil {
		return err
	}

	if err := writeSummarySheet(f, records, s, bold); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSummarySheet(f *excelize.File, records []model.DailyRecord, s Summary, bold int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Gün Sayısı", s.Days},
		{"Toplam Gelir", s.TotalIncome},
		{"Toplam Gider", s.TotalExpense},
		{"Net Kâr", s.NetProfit},
		{"Günlük Ortalama Gelir", s.AverageIncome},
		{"Günlük Ortalama Net", s.AverageNet},
	}
	if best, worst, ok := BestWorstDay(records); ok {
		rows = append(rows,
			[]interface{}{"En İyi Gün", best.Date, best.NetProfit},
			[]interface{}{"En Kötü Gün", worst.Date, worst.NetProfit},
		)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold)
}

// XLSXFileName embeds the export day in the download name.
func XLSXFileName(at time.Time) string {
	return "gunkasa-rapor-" + at.Format(model.DateLayout) + ".xlsx"
}
