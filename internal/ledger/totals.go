// Package ledger holds the pure aggregation over daily records: totals,
// breakdowns, best and worst day, filtering, sorting, exports and forecast.
package ledger

import "komagene-kasa/internal/model"

// Totals is the income, expense and net of one record or a set of records.
type Totals struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	NetProfit    float64 `json:"netProfit"`
}

type IncomeBreakdown struct {
	Cash        float64 `json:"cash"`
	CreditCard  float64 `json:"creditCard"`
	Yemeksepeti float64 `json:"yemeksepeti"`
	Getir       float64 `json:"getir"`
	Trendyol    float64 `json:"trendyol"`
	Gelal       float64 `json:"gelal"`
}

type ExpenseBreakdown struct {
	Supplier float64 `json:"supplier"`
	Staff    float64 `json:"staff"`
	Bills    float64 `json:"bills"`
	Tax      float64 `json:"tax"`
	Other    float64 `json:"other"`
}

// Get returns the sum of one category.
func (b ExpenseBreakdown) Get(c model.ExpenseCategory) float64 {
	switch c {
	case model.ExpenseSupplier:
		return b.Supplier
	case model.ExpenseStaff:
		return b.Staff
	case model.ExpenseBills:
		return b.Bills
	case model.ExpenseTax:
		return b.Tax
	default:
		return b.Other
	}
}

func (b *ExpenseBreakdown) add(c model.ExpenseCategory, v float64) {
	switch c {
	case model.ExpenseSupplier:
		b.Supplier += v
	case model.ExpenseStaff:
		b.Staff += v
	case model.ExpenseBills:
		b.Bills += v
	case model.ExpenseTax:
		b.Tax += v
	default:
		b.Other += v
	}
}

// Summary is the aggregate over a record set.
type Summary struct {
	Totals
	IncomeBreakdown  IncomeBreakdown  `json:"incomeBreakdown"`
	ExpenseBreakdown ExpenseBreakdown `json:"expenseBreakdown"`
	Days             int              `json:"days"`
	AverageIncome    float64          `json:"averageIncome"`
	AverageNet       float64          `json:"averageNet"`
}

// TotalIncome sums cash, card and every online platform.
func TotalIncome(r model.DailyRecord) float64 {
	return float64(r.Income.Cash) + float64(r.Income.CreditCard) + r.Income.Online.Total()
}

// TotalExpense sums every expense line.
func TotalExpense(r model.DailyRecord) float64 {
	var sum float64
	for _, e := range r.Expenses {
		sum += float64(e.Amount)
	}
	return sum
}

// RowTotals computes one record's totals. Nothing is rounded.
func RowTotals(r model.DailyRecord) Totals {
	income := TotalIncome(r)
	expense := TotalExpense(r)
	return Totals{
		TotalIncome:  income,
		TotalExpense: expense,
		NetProfit:    income - expense,
	}
}

// GrandTotals sums every field across the set.
func GrandTotals(records []model.DailyRecord) Summary {
	var s Summary
	for _, r := range records {
		s.IncomeBreakdown.Cash += float64(r.Income.Cash)
		s.IncomeBreakdown.CreditCard += float64(r.Income.CreditCard)
		s.IncomeBreakdown.Yemeksepeti += float64(r.Income.Online.Yemeksepeti)
		s.IncomeBreakdown.Getir += float64(r.Income.Online.Getir)
		s.IncomeBreakdown.Trendyol += float64(r.Income.Online.Trendyol)
		s.IncomeBreakdown.Gelal += float64(r.Income.Online.Gelal)

		for _, e := range r.Expenses {
			s.ExpenseBreakdown.add(e.Category, float64(e.Amount))
		}

		t := RowTotals(r)
		s.TotalIncome += t.TotalIncome
		s.TotalExpense += t.TotalExpense
	}
	s.NetProfit = s.TotalIncome - s.TotalExpense
	s.Days = len(records)

	count := len(records)
	if count == 0 {
		count = 1
	}
	s.AverageIncome = s.TotalIncome / float64(count)
	s.AverageNet = s.NetProfit / float64(count)
	return s
}

// DayResult names a day and its net profit.
type DayResult struct {
	Date      string  `json:"date"`
	NetProfit float64 `json:"netProfit"`
}

// BestWorstDay scans for the highest and lowest net profit. Ties keep the
// first record seen. ok is false for an empty set.
func BestWorstDay(records []model.DailyRecord) (best, worst DayResult, ok bool) {
	for i, r := range records {
		net := RowTotals(r).NetProfit
		if i == 0 {
			best = DayResult{Date: r.Date, NetProfit: net}
			worst = best
			continue
		}
		if net > best.NetProfit {
			best = DayResult{Date: r.Date, NetProfit: net}
		}
		if net < worst.NetProfit {
			worst = DayResult{Date: r.Date, NetProfit: net}
		}
	}
	return best, worst, len(records) > 0
}

// FindByDate returns the first record for the day.
func FindByDate(records []model.DailyRecord, date string) (model.DailyRecord, bool) {
	for _, r := range records {
		if r.Date == date {
			return r, true
		}
	}
	return model.DailyRecord{}, false
}
