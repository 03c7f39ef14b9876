package ledger

import (
	"fmt"
	"sort"
	"strings"

	"komagene-kasa/internal/model"
)

// FilterByDateRange keeps records with start <= date <= end. Empty bounds are
// open. Dates compare as strings, which orders zero-padded YYYY-MM-DD.
func FilterByDateRange(records []model.DailyRecord, start, end string) []model.DailyRecord {
	out := make([]model.DailyRecord, 0, len(records))
	for _, r := range records {
		if start != "" && r.Date < start {
			continue
		}
		if end != "" && r.Date > end {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Search keeps records whose date, note, expense descriptions, inventory names
// or shift note contain the query, case-insensitively.
func Search(records []model.DailyRecord, query string) []model.DailyRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]model.DailyRecord(nil), records...)
	}

	out := make([]model.DailyRecord, 0)
	for _, r := range records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r model.DailyRecord, q string) bool {
	if strings.Contains(r.Date, q) ||
		strings.Contains(strings.ToLower(r.Note), q) ||
		strings.Contains(strings.ToLower(r.Shift.Note), q) {
		return true
	}
	for _, e := range r.Expenses {
		if strings.Contains(strings.ToLower(e.Description), q) {
			return true
		}
	}
	for _, n := range r.Inventory {
		if strings.Contains(strings.ToLower(n.Name), q) {
			return true
		}
	}
	return false
}

type SortField string

const (
	SortByDate         SortField = "date"
	SortByTotalIncome  SortField = "totalIncome"
	SortByTotalExpense SortField = "totalExpense"
	SortByNetProfit    SortField = "netProfit"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ParseSort validates field and direction, defaulting to date ascending.
func ParseSort(field, dir string) (SortField, SortDir, error) {
	f := SortField(field)
	switch f {
	case "":
		f = SortByDate
	case SortByDate, SortByTotalIncome, SortByTotalExpense, SortByNetProfit:
	default:
		return "", "", fmt.Errorf("unknown sort field %q", field)
	}

	d := SortDir(strings.ToLower(dir))
	switch d {
	case "":
		d = Asc
	case Asc, Desc:
	default:
		return "", "", fmt.Errorf("unknown sort direction %q", dir)
	}
	return f, d, nil
}

// SortRecords returns a stably sorted copy. Equal keys keep their input order
// in both directions.
func SortRecords(records []model.DailyRecord, field SortField, dir SortDir) []model.DailyRecord {
	out := append([]model.DailyRecord(nil), records...)

	less := func(a, b model.DailyRecord) bool {
		switch field {
		case SortByTotalIncome:
			return TotalIncome(a) < TotalIncome(b)
		case SortByTotalExpense:
			return TotalExpense(a) < TotalExpense(b)
		case SortByNetProfit:
			return RowTotals(a).NetProfit < RowTotals(b).NetProfit
		default:
			return a.Date < b.Date
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if dir == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
