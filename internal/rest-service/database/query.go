package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const MaxPageSize = 100

func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// ForUpdate locks the selected rows until the end of the transaction.
// SQLite has no row locks, its writers are serialized by the database lock.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if IsPostgres(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Paginate limits the query to one page. A non-positive limit disables paging.
func Paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		if limit > MaxPageSize {
			limit = MaxPageSize
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
