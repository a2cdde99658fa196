package repository

import (
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// Record store collection names.
const (
	CollectionTeachers       = "teachers"
	CollectionStudents       = "children"
	CollectionWeeklyClasses  = "weeklyClasses"
	CollectionDailyClasses   = "daily_classes"
	CollectionAdvanceClasses = "advanceClasses"
	CollectionHolidays       = "publicHolidays"
	CollectionSalaryReports  = "salaryReports"
)

func decodeEach(records []recordstore.Record, decode func(recordstore.Record) error) error {
	for _, rec := range records {
		if err := decode(rec); err != nil {
			return err
		}
	}
	return nil
}
