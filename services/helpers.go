package services

import (
	"time"

	"github.com/sahilchouksey/learning-center-api/utils/query"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// dateOf truncates t to its calendar day in UTC
func dateOf(t time.Time) datatypes.Date {
	t = t.UTC()
	return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// monthStart returns the first day of t's month
func monthStart(t time.Time) datatypes.Date {
	t = t.UTC()
	return datatypes.Date(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// scopeCenter restricts a query to one learning center unless centerID is 0
func scopeCenter(db *gorm.DB, column string, centerID uint) *gorm.DB {
	if centerID == 0 {
		return db
	}
	return db.Where(column+" = ?", centerID)
}

// paginate counts the filtered rows and loads one page into dest
func paginate(db *gorm.DB, p query.Pagination, order string, dest interface{}) (int64, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	err := p.Apply(db.Order(order)).Find(dest).Error
	return total, err
}

// Upload is an in-memory file received from a multipart form
type Upload struct {
	Filename string
	Data     []byte
}
