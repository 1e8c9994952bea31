package changelock

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/juju/errors"
)

// Record is the persisted state of the change log lock.
type Record struct {
	ID       int
	Locked   bool
	Granted  time.Time
	LockedBy string
}

func (r Record) String() string {
	if !r.Locked {
		return "unlocked"
	}
	return fmt.Sprintf("locked by %s since %s", r.LockedBy, r.Granted.Format(time.RFC3339))
}

// recordRow is the scan target of statement.SelectLock.
type recordRow struct {
	id       int
	locked   bool
	granted  grantedTime
	lockedBy sql.NullString
}

func (r *recordRow) dest() []any {
	return []any{&r.id, &r.locked, &r.granted, &r.lockedBy}
}

func (r *recordRow) record() Record {
	rec := Record{ID: r.id, Locked: r.locked}
	if !r.locked {
		return rec
	}
	rec.LockedBy = r.lockedBy.String
	if r.granted.valid {
		rec.Granted = r.granted.t.UTC()
	}
	return rec
}

var grantedLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// grantedTime accepts timestamps as returned by drivers that parse them and
// by drivers that hand back text.
type grantedTime struct {
	t     time.Time
	valid bool
}

func (g *grantedTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		g.t, g.valid = time.Time{}, false
		return nil
	case time.Time:
		g.t, g.valid = v, true
		return nil
	case []byte:
		return g.parse(string(v))
	case string:
		return g.parse(v)
	}
	return errors.Errorf("unsupported lock granted value of type %T", src)
}

func (g *grantedTime) parse(s string) error {
	for _, layout := range grantedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			g.t, g.valid = t, true
			return nil
		}
	}
	return errors.NotValidf("lock granted timestamp %q", s)
}
