package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"komagene-kasa/internal/model"
)

var ErrInvalidDate = errors.New("invalid date")

// Istanbul is the business day location of the branches.
var Istanbul = model.BusinessLocation

var dayFirstLayouts = []string{"02.01.2006", "2.1.2006", "02/01/2006"}

// ParseDay accepts the formats the dashboards send (2024-01-31,
// 31.01.2024, 2024-01-31T10:00:00Z, ...) and returns YYYY-MM-DD. Empty input
// stays empty.
func ParseDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(model.DateLayout, s); err == nil {
		return s, nil
	}
	// Day-first layouts are ambiguous for the generic parser.
	for _, layout := range dayFirstLayouts {
		if t, err := time.ParseInLocation(layout, s, Istanbul); err == nil {
			return t.Format(model.DateLayout), nil
		}
	}
	t, err := dateparse.ParseIn(s, Istanbul, dateparse.PreferMonthFirst(false))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return t.In(Istanbul).Format(model.DateLayout), nil
}

// Today is the current business day.
func Today(now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	return model.BusinessDay(now())
}
