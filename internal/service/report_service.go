package service

import (
	"io"
	"time"

	"komagene-kasa/internal/ledger"
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/store"
)

// Range limits a report to start..end; empty bounds are open.
type Range struct {
	Start string
	End   string
}

type BestWorst struct {
	Best  *ledger.DayResult `json:"best"`
	Worst *ledger.DayResult `json:"worst"`
}

type ReportService interface {
	Summary(r Range) (ledger.Summary, error)
	BestWorst(r Range) (BestWorst, error)
	Forecast(window int) ledger.Forecast
	ExportCSV(w io.Writer, r Range) error
	ExportXLSX(w io.Writer, r Range) error
}

type reportService struct {
	store  *store.Store
	window int
	now    func() time.Time
}

func NewReportService(st *store.Store, window int, now func() time.Time) ReportService {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = ledger.DefaultForecastWindow
	}
	return &reportService{store: st, window: window, now: now}
}

func (s *reportService) records(r Range) ([]model.DailyRecord, error) {
	start, err := ParseDay(r.Start)
	if err != nil {
		return nil, err
	}
	end, err := ParseDay(r.End)
	if err != nil {
		return nil, err
	}
	return ledger.FilterByDateRange(s.store.Records(), start, end), nil
}

func (s *reportService) Summary(r Range) (ledger.Summary, error) {
	records, err := s.records(r)
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.GrandTotals(records), nil
}

func (s *reportService) BestWorst(r Range) (BestWorst, error) {
	records, err := s.records(r)
	if err != nil {
		return BestWorst{}, err
	}
	best, worst, ok := ledger.BestWorstDay(records)
	if !ok {
		return BestWorst{}, nil
	}
	return BestWorst{Best: &best, Worst: &worst}, nil
}

// Forecast projects the coming week; window <= 0 uses the configured one.
func (s *reportService) Forecast(window int) ledger.Forecast {
	if window <= 0 {
		window = s.window
	}
	return ledger.GenerateForecast(s.store.Records(), window, s.now().In(Istanbul))
}

func (s *reportService) sorted(r Range) ([]model.DailyRecord, error) {
	records, err := s.records(r)
	if err != nil {
		return nil, err
	}
	return ledger.SortRecords(records, ledger.SortByDate, ledger.Asc), nil
}

func (s *reportService) ExportCSV(w io.Writer, r Range) error {
	records, err := s.sorted(r)
	if err != nil {
		return err
	}
	return ledger.WriteCSV(w, records)
}

func (s *reportService) ExportXLSX(w io.Writer, r Range) error {
	records, err := s.sorted(r)
	if err != nil {
		return err
	}
	return ledger.WriteXLSX(w, records)
}
