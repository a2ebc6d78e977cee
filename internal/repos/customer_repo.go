package repos

import (
	"github.com/jmoiron/sqlx"

	"vitrine/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) ByEmail(email string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `
		SELECT id, COALESCE(user_id,'') AS user_id, email, COALESCE(name,'') AS name,
		       COALESCE(zip_code,'') AS zip_code, COALESCE(street,'') AS street,
		       COALESCE(number,'') AS number, COALESCE(complement,'') AS complement,
		       COALESCE(neighborhood,'') AS neighborhood, COALESCE(city,'') AS city,
		       COALESCE(state,'') AS state, created_at, COALESCE(updated_at,'') AS updated_at
		FROM customers
		WHERE LOWER(email) = LOWER(?)
	`, email)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertAddress saves the delivery profile keyed by email; idempotent on
// identity, so re-running the Delivery step just refreshes the row.
func (r *CustomerRepo) UpsertAddress(id, userID, email string, a domain.Address) error {
	_, err := r.db.Exec(`
		INSERT INTO customers(id, user_id, email, name, zip_code, street, number,
		                      complement, neighborhood, city, state, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(email) DO UPDATE SET
		  user_id = excluded.user_id, name = excluded.name, zip_code = excluded.zip_code,
		  street = excluded.street, number = excluded.number, complement = excluded.complement,
		  neighborhood = excluded.neighborhood, city = excluded.city, state = excluded.state,
		  updated_at = CURRENT_TIMESTAMP
	`, id, userID, email, a.FullName, a.ZipCode, a.Street, a.Number,
		a.Complement, a.Neighborhood, a.City, a.State)
	return err
}

func (r *CustomerRepo) List(limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 200
	}
	var out []domain.Customer
	err := r.db.Select(&out, `
		SELECT id, COALESCE(user_id,'') AS user_id, email, COALESCE(name,'') AS name,
		       COALESCE(zip_code,'') AS zip_code, COALESCE(street,'') AS street,
		       COALESCE(number,'') AS number, COALESCE(complement,'') AS complement,
		       COALESCE(neighborhood,'') AS neighborhood, COALESCE(city,'') AS city,
		       COALESCE(state,'') AS state, created_at, COALESCE(updated_at,'') AS updated_at
		FROM customers
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}
