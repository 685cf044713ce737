package database

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepo struct {
	db *gorm.DB
}

func NewSettingRepo() *SettingRepo {
	return &SettingRepo{db: DB}
}

func NewSettingRepoWith(db *gorm.DB) *SettingRepo {
	return &SettingRepo{db: db}
}

func (r *SettingRepo) Get(key string) (string, error) {
	var setting Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Lookup is Get with not-found reported as ok=false instead of an error.
func (r *SettingRepo) Lookup(key string) (string, bool, error) {
	v, err := r.Get(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *SettingRepo) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

func (r *SettingRepo) GetAll() (map[string]string, error) {
	var settings []Setting
	err := r.db.Find(&settings).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	return result, nil
}

func (r *SettingRepo) SetBatch(items map[string]string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range items {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&Setting{Key: key, Value: value}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SettingRepo) Delete(key string) error {
	return r.db.Where("key = ?", key).Delete(&Setting{}).Error
}

// ScopedSettings is a key/value view of the settings table restricted to one
// client. It backs the language store's durable storage.
type ScopedSettings struct {
	repo   *SettingRepo
	prefix string
}

func NewScopedSettings(repo *SettingRepo, clientID string) *ScopedSettings {
	return &ScopedSettings{repo: repo, prefix: "client:" + clientID + ":"}
}

func (s *ScopedSettings) Get(key string) (string, bool, error) {
	return s.repo.Lookup(s.prefix + key)
}

func (s *ScopedSettings) Set(key, value string) error {
	return s.repo.Set(s.prefix+key, value)
}
