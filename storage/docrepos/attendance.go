package docrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
)

const attendanceCollection = "attendance"

type recordRepository struct {
	store core.DocumentStore
}

var _ attendance.RecordRepository = (*recordRepository)(nil)

func NewRecordRepository(store core.DocumentStore) *recordRepository {
	return &recordRepository{store: store}
}

// SaveRecord replaces attendance/{class}/{date} with the record statuses.
func (repo recordRepository) SaveRecord(ctx context.Context, rec attendance.Record) error {
	if !validKeys(rec.ClassID, rec.Date) {
		return errors.Errorf("cannot save attendance of %q on %q", rec.ClassID, rec.Date)
	}
	doc := make(map[string]roster.Status, len(rec.Statuses))
	for id, st := range rec.Statuses {
		if validKeys(id) && st.Decided() {
			doc[id] = st
		}
	}
	return errors.Wrap(repo.store.Set(ctx, path(attendanceCollection, rec.ClassID, rec.Date), doc), "saving attendance")
}

func (repo recordRepository) GetRecord(ctx context.Context, classID, date string) (attendance.Record, error) {
	rec := attendance.Record{ClassID: classID, Date: date, Statuses: make(map[string]roster.Status)}
	if !validKeys(classID, date) {
		return rec, nil
	}
	if err := get(ctx, repo.store, path(attendanceCollection, classID, date), &rec.Statuses); err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return rec, nil
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance")
	}
	return rec, nil
}
