package store

import (
	"time"

	"komagene-kasa/internal/events"
	"komagene-kasa/internal/model"
)

func validDay(date string) bool {
	_, err := time.Parse(model.DateLayout, date)
	return err == nil
}

// AddRecord appends the record, marked unsynced and stamped with the
// session's branch. A missing id is generated.
func (s *Store) AddRecord(r model.DailyRecord) model.DailyRecord {
	var out model.DailyRecord
	r = r.Clone()
	s.mutate(func() []events.Change {
		if r.ID == "" {
			r.ID = s.newID()
		}
		out = s.stampRecord(r)
		s.state.Records = append(s.state.Records, out)
		return []events.Change{{Action: events.ActionCreated, Entity: events.EntityRecord, ID: out.ID, Date: out.Date}}
	})
	return out.Clone()
}

// UpdateRecord replaces the record with the same id. It inserts nothing when
// the id is unknown and reports whether a record was replaced.
func (s *Store) UpdateRecord(r model.DailyRecord) bool {
	updated := false
	s.mutate(func() []events.Change {
		i := s.recordIndex(r.ID)
		if i < 0 {
			return nil
		}
		s.state.Records[i] = s.stampRecord(r)
		updated = true
		return []events.Change{{Action: events.ActionUpdated, Entity: events.EntityRecord, ID: r.ID, Date: r.Date}}
	})
	return updated
}

// DeleteRecord removes the record. Unknown ids are ignored.
func (s *Store) DeleteRecord(id string) bool {
	deleted := false
	s.mutate(func() []events.Change {
		i := s.recordIndex(id)
		if i < 0 {
			return nil
		}
		rec := s.state.Records[i]
		s.state.Records = append(s.state.Records[:i:i], s.state.Records[i+1:]...)
		s.state.PendingDeletes = append(s.state.PendingDeletes, model.Tombstone{Kind: model.TombstoneRecord, ID: id, BranchID: rec.BranchID})
		deleted = true
		return []events.Change{{Action: events.ActionDeleted, Entity: events.EntityRecord, ID: id, Date: rec.Date}}
	})
	return deleted
}

// MergeIncome adds amount to one income channel of the day's first record,
// creating the record when the day has none.
func (s *Store) MergeIncome(date string, channel model.IncomeChannel, amount model.Amount, source string) (model.DailyRecord, error) {
	if !validDay(date) {
		return model.DailyRecord{}, ErrInvalidDate
	}
	probe := model.Income{}
	if !probe.Add(channel, 0) {
		return model.DailyRecord{}, ErrUnknownChannel
	}

	var out model.DailyRecord
	s.mutate(func() []events.Change {
		action := events.ActionUpdated
		i := s.dateIndex(s.state.Records, date)
		var rec model.DailyRecord
		if i < 0 {
			rec = model.NewDailyRecord(s.newID(), date)
			action = events.ActionCreated
		} else {
			rec = s.state.Records[i].Clone()
		}

		rec.Income.Add(channel, amount.Normalize())
		if source != "" {
			rec.Income.Source = source
		}
		out = s.stampRecord(rec)

		if i < 0 {
			s.state.Records = append(s.state.Records, out)
		} else {
			s.state.Records[i] = out
		}
		return []events.Change{{Action: action, Entity: events.EntityRecord, ID: out.ID, Date: date}}
	})
	return out.Clone(), nil
}

// AddLedger opens a credit tab.
func (s *Store) AddLedger(item model.LedgerItem) model.LedgerItem {
	var out model.LedgerItem
	s.mutate(func() []events.Change {
		if item.ID == "" {
			item.ID = s.newID()
		}
		if item.CreatedDate == "" {
			item.CreatedDate = s.today()
		}
		item.IsPaid = false
		out = s.stampLedger(item)
		s.state.GlobalLedgers = append(s.state.GlobalLedgers, out)
		return []events.Change{{Action: events.ActionCreated, Entity: events.EntityLedger, ID: out.ID}}
	})
	return out
}

// RemoveLedger drops a credit tab without touching any record.
func (s *Store) RemoveLedger(id string) bool {
	removed := false
	s.mutate(func() []events.Change {
		i := s.ledgerIndex(id)
		if i < 0 {
			return nil
		}
		item := s.state.GlobalLedgers[i]
		s.state.GlobalLedgers = append(s.state.GlobalLedgers[:i:i], s.state.GlobalLedgers[i+1:]...)
		s.state.PendingDeletes = append(s.state.PendingDeletes, model.Tombstone{Kind: model.TombstoneLedger, ID: id, BranchID: item.BranchID})
		removed = true
		return []events.Change{{Action: events.ActionDeleted, Entity: events.EntityLedger, ID: id}}
	})
	return removed
}

// PayLedger settles a credit tab into the cash income of targetDate's
// record, creating that record when needed. The tab removal and the cash
// increment are committed together; on any error neither happens.
func (s *Store) PayLedger(id, targetDate string) (model.DailyRecord, error) {
	if targetDate == "" {
		targetDate = s.today()
	}
	if !validDay(targetDate) {
		return model.DailyRecord{}, ErrInvalidDate
	}

	var (
		out    model.DailyRecord
		payErr error
	)
	s.mutate(func() []events.Change {
		li := s.ledgerIndex(id)
		if li < 0 {
			payErr = ErrLedgerNotFound
			return nil
		}
		item := s.state.GlobalLedgers[li]

		// Build both next slices before touching state.
		records := append([]model.DailyRecord(nil), s.state.Records...)
		ri := s.dateIndex(records, targetDate)
		var rec model.DailyRecord
		if ri < 0 {
			rec = model.NewDailyRecord(s.newID(), targetDate)
		} else {
			rec = records[ri].Clone()
		}
		rec.Income.Cash += item.Amount
		rec = s.stampRecord(rec)
		if ri < 0 {
			records = append(records, rec)
		} else {
			records[ri] = rec
		}

		ledgers := make([]model.LedgerItem, 0, len(s.state.GlobalLedgers)-1)
		ledgers = append(ledgers, s.state.GlobalLedgers[:li]...)
		ledgers = append(ledgers, s.state.GlobalLedgers[li+1:]...)

		paid := item
		paid.IsPaid = true
		paid.IsSynced = false

		s.state.Records = records
		s.state.GlobalLedgers = ledgers
		s.state.PendingDeletes = append(s.state.PendingDeletes, model.Tombstone{Kind: model.TombstoneLedgerPaid, ID: id, BranchID: item.BranchID, Item: &paid})
		out = rec

		return []events.Change{
			{Action: events.ActionPaid, Entity: events.EntityLedger, ID: id},
			{Action: events.ActionUpdated, Entity: events.EntityRecord, ID: rec.ID, Date: targetDate},
		}
	})
	if payErr != nil {
		return model.DailyRecord{}, payErr
	}
	return out.Clone(), nil
}

// SetUserProfile replaces the tenant context. nil clears records, credit tabs
// and pending removals in memory and in storage.
func (s *Store) SetUserProfile(p *model.UserProfile) {
	s.mutate(func() []events.Change {
		if p == nil {
			s.clearTenantLocked()
			return []events.Change{{Action: events.ActionCleared, Entity: events.EntitySession}}
		}
		cp := *p
		s.state.UserProfile = &cp
		return []events.Change{{Action: events.ActionUpdated, Entity: events.EntitySession, ID: cp.ID}}
	})
}

func (s *Store) clearTenantLocked() {
	s.state.UserProfile = nil
	s.state.Records = []model.DailyRecord{}
	s.state.GlobalLedgers = []model.LedgerItem{}
	s.state.PendingDeletes = nil
}

// Login marks the session as logged in.
func (s *Store) Login() {
	s.mutate(func() []events.Change {
		s.state.Settings.IsLoggedIn = true
		return []events.Change{{Action: events.ActionUpdated, Entity: events.EntitySession}}
	})
}

// Logout marks the session as logged out and clears the tenant's data.
func (s *Store) Logout() {
	s.mutate(func() []events.Change {
		s.state.Settings.IsLoggedIn = false
		s.clearTenantLocked()
		return []events.Change{{Action: events.ActionCleared, Entity: events.EntitySession}}
	})
}

// SetTheme changes the UI theme.
func (s *Store) SetTheme(theme string) model.Settings {
	var out model.Settings
	s.mutate(func() []events.Change {
		s.state.Settings.Theme = theme
		out = s.state.Settings
		return []events.Change{{Action: events.ActionUpdated, Entity: events.EntitySettings}}
	})
	return out
}

// SetBrightness changes the display brightness, clamped to 0..100.
func (s *Store) SetBrightness(level int) model.Settings {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	var out model.Settings
	s.mutate(func() []events.Change {
		s.state.Settings.Brightness = level
		out = s.state.Settings
		return []events.Change{{Action: events.ActionUpdated, Entity: events.EntitySettings}}
	})
	return out
}
