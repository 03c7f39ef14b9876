package store

import (
	"komagene-kasa/internal/events"
	"komagene-kasa/internal/model"
)

// Pending is what the remote has not confirmed yet.
type Pending struct {
	Records    []model.DailyRecord
	Ledgers    []model.LedgerItem
	Tombstones []model.Tombstone
}

// Len counts every pending item.
func (p Pending) Len() int {
	return len(p.Records) + len(p.Ledgers) + len(p.Tombstones)
}

// Pending copies the unsynced records and credit tabs, with their revisions,
// and the pending removals.
func (s *Store) Pending() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p Pending
	for _, r := range s.state.Records {
		if !r.IsSynced {
			p.Records = append(p.Records, r.Clone())
		}
	}
	for _, l := range s.state.GlobalLedgers {
		if !l.IsSynced {
			p.Ledgers = append(p.Ledgers, l)
		}
	}
	p.Tombstones = append(p.Tombstones, s.state.PendingDeletes...)
	return p
}

// MarkRecordSynced flips isSynced only when the record still carries rev,
// so an edit made while the upload was in flight stays dirty.
func (s *Store) MarkRecordSynced(id string, rev uint64) bool {
	marked := false
	s.mutate(func() []events.Change {
		i := s.recordIndex(id)
		if i < 0 || s.state.Records[i].Rev() != rev {
			return nil
		}
		s.state.Records[i].IsSynced = true
		marked = true
		return []events.Change{{Action: events.ActionSynced, Entity: events.EntityRecord, ID: id}}
	})
	return marked
}

// MarkLedgerSynced is MarkRecordSynced for credit tabs.
func (s *Store) MarkLedgerSynced(id string, rev uint64) bool {
	marked := false
	s.mutate(func() []events.Change {
		i := s.ledgerIndex(id)
		if i < 0 || s.state.GlobalLedgers[i].Rev() != rev {
			return nil
		}
		s.state.GlobalLedgers[i].IsSynced = true
		marked = true
		return []events.Change{{Action: events.ActionSynced, Entity: events.EntityLedger, ID: id}}
	})
	return marked
}

// AckTombstone drops the first pending removal matching kind and id.
func (s *Store) AckTombstone(t model.Tombstone) bool {
	acked := false
	s.mutate(func() []events.Change {
		for i, p := range s.state.PendingDeletes {
			if p.Kind == t.Kind && p.ID == t.ID {
				s.state.PendingDeletes = append(s.state.PendingDeletes[:i:i], s.state.PendingDeletes[i+1:]...)
				acked = true
				return []events.Change{{Action: events.ActionSynced, Entity: entityOf(t.Kind), ID: t.ID}}
			}
		}
		return nil
	})
	return acked
}

func entityOf(k model.TombstoneKind) events.Entity {
	if k == model.TombstoneRecord {
		return events.EntityRecord
	}
	return events.EntityLedger
}

// ApplyRemote merges the remote copies of the branch's data. Remote copies
// replace local ones that are synced; local unsynced edits and pending
// removals win. Remote credit tabs already paid are skipped.
func (s *Store) ApplyRemote(records []model.DailyRecord, ledgers []model.LedgerItem) (applied int) {
	s.mutate(func() []events.Change {
		removed := make(map[string]bool, len(s.state.PendingDeletes))
		for _, t := range s.state.PendingDeletes {
			removed[string(t.Kind)+":"+t.ID] = true
		}

		for _, r := range records {
			if removed[string(model.TombstoneRecord)+":"+r.ID] {
				continue
			}
			r = r.Clone()
			r.Normalize()
			r.IsSynced = true
			if i := s.recordIndex(r.ID); i >= 0 {
				if !s.state.Records[i].IsSynced {
					continue
				}
				s.state.Records[i] = r.WithRev(s.nextRev())
			} else {
				s.state.Records = append(s.state.Records, r.WithRev(s.nextRev()))
			}
			applied++
		}

		for _, l := range ledgers {
			if l.IsPaid || removed[string(model.TombstoneLedger)+":"+l.ID] || removed[string(model.TombstoneLedgerPaid)+":"+l.ID] {
				continue
			}
			l.IsSynced = true
			if i := s.ledgerIndex(l.ID); i >= 0 {
				if !s.state.GlobalLedgers[i].IsSynced {
					continue
				}
				s.state.GlobalLedgers[i] = l.WithRev(s.nextRev())
			} else {
				s.state.GlobalLedgers = append(s.state.GlobalLedgers, l.WithRev(s.nextRev()))
			}
			applied++
		}

		if applied == 0 {
			return nil
		}
		return []events.Change{{Action: events.ActionRestored, Entity: events.EntityStore}}
	})
	return applied
}
