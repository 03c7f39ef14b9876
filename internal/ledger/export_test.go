package ledger

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"komagene-kasa/internal/model"
)

func sampleRecords() []model.DailyRecord {
	a := rec("a", "2024-01-01", 1234.56, 789.1, exp(100.25, model.ExpenseSupplier), exp(50, model.ExpenseStaff))
	a.Income.Online = model.OnlineIncome{Yemeksepeti: 300, Getir: 45.5}
	a.Note = "Açılış; kalabalık"
	a.Marked = true

	b := rec("b", "2024-01-02", 0, 50, exp(20.5, model.ExpenseTax))
	return []model.DailyRecord{a, b}
}

func TestWriteCSV_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\xef\xbb\xbf") {
		t.Fatal("output must start with a UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(out, BOM), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 2 rows + total, got %d lines:\n%s", len(lines), out)
	}

	wantHeader := "Tarih;POS;Nakit;Yemeksepeti;Getir;Trendyol;GelAl;Toplam Gelir;Tedarikçi;Personel;Faturalar;Vergi;Diğer;Toplam Gider;Net Kâr;Not;İşaretli"
	if lines[0] != wantHeader {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-01-01;789.1;1234.56;300;45.5;0;0;") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[1], `"Açılış; kalabalık"`) {
		t.Errorf("note with delimiter should be quoted: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], ";X") {
		t.Errorf("marked record should end with X: %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], TotalRowLabel+";") {
		t.Errorf("last row should be the aggregate, got %q", lines[3])
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	records := sampleRecords()
	records = append(records, rec("c", "2024-01-03", 10.126, 0, exp(3.333, model.ExpenseOther)))

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != len(records)+1 {
		t.Fatalf("expected %d rows, got %d", len(records)+1, len(rows))
	}

	for i, r := range records {
		got, err := rows[i].Totals()
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		want := RowTotals(r)
		if math.Abs(got.TotalIncome-want.TotalIncome) > 1e-9 ||
			math.Abs(got.TotalExpense-want.TotalExpense) > 1e-9 ||
			math.Abs(got.NetProfit-want.NetProfit) > 1e-9 {
			t.Errorf("row %d: got %+v, want %+v", i, got, want)
		}
		if rows[i].Date != r.Date || rows[i].Note != r.Note {
			t.Errorf("row %d: date/note mismatch %+v", i, rows[i])
		}
	}

	total, err := rows[len(rows)-1].Totals()
	if err != nil {
		t.Fatalf("total row: %v", err)
	}
	if math.Abs(total.NetProfit-GrandTotals(records).NetProfit) > 1e-9 {
		t.Errorf("aggregate net = %v", total.NetProfit)
	}
}

func TestWriteCSV_EmptySetStillHasTotalRow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Date != TotalRowLabel || rows[0].NetProfit != "0" {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestFileNames(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	if got := CSVFileName(at); got != "gunkasa-rapor-2024-03-09.csv" {
		t.Errorf("csv name %q", got)
	}
	if got := XLSXFileName(at); got != "gunkasa-rapor-2024-03-09.xlsx" {
		t.Errorf("xlsx name %q", got)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "Tarih" || rows[1][0] != "2024-01-01" || rows[3][0] != TotalRowLabel {
		t.Errorf("unexpected first column: %v %v %v", rows[0][0], rows[1][0], rows[3][0])
	}

	days, err := f.GetCellValue(summarySheet, "B1")
	if err != nil || days != "2" {
		t.Errorf("summary days = %q, %v", days, err)
	}
	best, _ := f.GetCellValue(summarySheet, "B7")
	if best != "2024-01-01" {
		t.Errorf("best day = %q", best)
	}
}
