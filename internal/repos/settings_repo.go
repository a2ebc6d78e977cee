package repos

import (
	"github.com/jmoiron/sqlx"

	"vitrine/internal/domain"
)

type SettingsRepo struct{ db *sqlx.DB }

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) Get() (domain.StoreSettings, error) {
	var s domain.StoreSettings
	err := r.db.Get(&s, `
		SELECT store_name, maintenance_mode, COALESCE(updated_at,'') AS updated_at
		FROM store_settings WHERE id = 1
	`)
	return s, err
}

func (r *SettingsRepo) SetMaintenance(on bool) error {
	_, err := r.db.Exec(`
		UPDATE store_settings SET maintenance_mode = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1
	`, on)
	return err
}

func (r *SettingsRepo) SetStoreName(name string) error {
	_, err := r.db.Exec(`
		UPDATE store_settings SET store_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1
	`, name)
	return err
}
