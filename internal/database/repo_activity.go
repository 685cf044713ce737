package database

import (
	"time"

	"gorm.io/gorm"
)

type ActivityRepo struct {
	db *gorm.DB
}

func NewActivityRepo() *ActivityRepo {
	return &ActivityRepo{db: DB}
}

func NewActivityRepoWith(db *gorm.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(activity *Activity) error {
	return r.db.Create(activity).Error
}

func (r *ActivityRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&Activity{}).Count(&count).Error
	return count, err
}

func (r *ActivityRepo) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&Activity{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// CountByLanguage groups language switches since the given time by target
// language.
func (r *ActivityRepo) CountByLanguage(since time.Time) (map[string]int64, error) {
	type result struct {
		Language string
		Count    int64
	}
	var results []result
	err := r.db.Model(&Activity{}).
		Select("language, count(*) as count").
		Where("created_at >= ? AND category = ?", since, CategoryLanguage).
		Group("language").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, r := range results {
		counts[r.Language] = r.Count
	}
	return counts, nil
}

func (r *ActivityRepo) CountByCategory(since time.Time) (map[string]int64, error) {
	type result struct {
		Category string
		Count    int64
	}
	var results []result
	err := r.db.Model(&Activity{}).
		Select("category, count(*) as count").
		Where("created_at >= ?", since).
		Group("category").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, r := range results {
		counts[r.Category] = r.Count
	}
	return counts, nil
}

func (r *ActivityRepo) List(filter ActivityFilter) ([]Activity, int64, error) {
	var activities []Activity
	var total int64

	q := r.db.Model(&Activity{})
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Language != "" {
		q = q.Where("language = ?", filter.Language)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := filter.Offset()
	err := q.Order("created_at desc, id desc").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&activities).Error
	return activities, total, err
}

type ActivityFilter struct {
	Page     int
	PageSize int
	ClientID string
	Category string
	Language string
	Since    time.Time
}

func (f *ActivityFilter) Offset() int {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return (f.Page - 1) * f.PageSize
}
