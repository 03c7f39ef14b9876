package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"komagene-kasa/internal/model"
)

// BOM is written before the header so spreadsheets pick UTF-8.
const BOM = "\ufeff"

// Delimiter is ';' so decimal commas survive in spreadsheet locales.
const Delimiter = ';'

// TotalRowLabel marks the trailing aggregate row.
const TotalRowLabel = "TOPLAM"

// CSVRow is one exported line. Column order follows field order.
type CSVRow struct {
	Date         string `csv:"Tarih"`
	POS          string `csv:"POS"`
	Cash         string `csv:"Nakit"`
	Yemeksepeti  string `csv:"Yemeksepeti"`
	Getir        string `csv:"Getir"`
	Trendyol     string `csv:"Trendyol"`
	Gelal        string `csv:"GelAl"`
	TotalIncome  string `csv:"Toplam Gelir"`
	Supplier     string `csv:"Tedarikçi"`
	Staff        string `csv:"Personel"`
	Bills        string `csv:"Faturalar"`
	Tax          string `csv:"Vergi"`
	Other        string `csv:"Diğer"`
	TotalExpense string `csv:"Toplam Gider"`
	NetProfit    string `csv:"Net Kâr"`
	Note         string `csv:"Not"`
	Marked       string `csv:"İşaretli"`
}

// Totals parses the three computed columns back.
func (r CSVRow) Totals() (Totals, error) {
	var t Totals
	var err error
	if t.TotalIncome, err = parseNumber(r.TotalIncome); err != nil {
		return t, fmt.Errorf("total income: %w", err)
	}
	if t.TotalExpense, err = parseNumber(r.TotalExpense); err != nil {
		return t, fmt.Errorf("total expense: %w", err)
	}
	if t.NetProfit, err = parseNumber(r.NetProfit); err != nil {
		return t, fmt.Errorf("net profit: %w", err)
	}
	return t, nil
}

// formatNumber writes the shortest form that parses back to v. Rounding to
// cents is left to whoever displays the file.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func expenseBreakdown(r model.DailyRecord) ExpenseBreakdown {
	var b ExpenseBreakdown
	for _, e := range r.Expenses {
		b.add(e.Category, float64(e.Amount))
	}
	return b
}

// ToCSVRows maps each record to a row and appends the aggregate row.
func ToCSVRows(records []model.DailyRecord) []CSVRow {
	rows := make([]CSVRow, 0, len(records)+1)
	for _, r := range records {
		t := RowTotals(r)
		b := expenseBreakdown(r)
		marked := ""
		if r.Marked {
			marked = "X"
		}
		rows = append(rows, CSVRow{
			Date:         r.Date,
			POS:          formatNumber(float64(r.Income.CreditCard)),
			Cash:         formatNumber(float64(r.Income.Cash)),
			Yemeksepeti:  formatNumber(float64(r.Income.Online.Yemeksepeti)),
			Getir:        formatNumber(float64(r.Income.Online.Getir)),
			Trendyol:     formatNumber(float64(r.Income.Online.Trendyol)),
			Gelal:        formatNumber(float64(r.Income.Online.Gelal)),
			TotalIncome:  formatNumber(t.TotalIncome),
			Supplier:     formatNumber(b.Supplier),
			Staff:        formatNumber(b.Staff),
			Bills:        formatNumber(b.Bills),
			Tax:          formatNumber(b.Tax),
			Other:        formatNumber(b.Other),
			TotalExpense: formatNumber(t.TotalExpense),
			NetProfit:    formatNumber(t.NetProfit),
			Note:         r.Note,
			Marked:       marked,
		})
	}

	s := GrandTotals(records)
	rows = append(rows, CSVRow{
		Date:         TotalRowLabel,
		POS:          formatNumber(s.IncomeBreakdown.CreditCard),
		Cash:         formatNumber(s.IncomeBreakdown.Cash),
		Yemeksepeti:  formatNumber(s.IncomeBreakdown.Yemeksepeti),
		Getir:        formatNumber(s.IncomeBreakdown.Getir),
		Trendyol:     formatNumber(s.IncomeBreakdown.Trendyol),
		Gelal:        formatNumber(s.IncomeBreakdown.Gelal),
		TotalIncome:  formatNumber(s.TotalIncome),
		Supplier:     formatNumber(s.ExpenseBreakdown.Supplier),
		Staff:        formatNumber(s.ExpenseBreakdown.Staff),
		Bills:        formatNumber(s.ExpenseBreakdown.Bills),
		Tax:          formatNumber(s.ExpenseBreakdown.Tax),
		Other:        formatNumber(s.ExpenseBreakdown.Other),
		TotalExpense: formatNumber(s.TotalExpense),
		NetProfit:    formatNumber(s.NetProfit),
	})
	return rows
}

// WriteCSV writes the BOM, the header, one row per record and the aggregate row.
func WriteCSV(w io.Writer, records []model.DailyRecord) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := gocsv.MarshalCSV(ToCSVRows(records), gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses an export written by WriteCSV, aggregate row included.
func ReadCSV(r io.Reader) ([]CSVRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body := strings.TrimPrefix(string(data), BOM)

	cr := csv.NewReader(strings.NewReader(body))
	cr.Comma = Delimiter

	var rows []CSVRow
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal csv: %w", err)
	}
	return rows, nil
}

// CSVFileName embeds the export day in the download name.
func CSVFileName(at time.Time) string {
	return "gunkasa-rapor-" + at.Format(model.DateLayout) + ".csv"
}
