package user

import (
	"database/sql"
	"errors"
	"time"
)

type MySQLRepo struct {
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

func (r *MySQLRepo) Create(user *User) error {
	_, err := r.DB.Exec(
		"INSERT INTO users (id, name, email, password) VALUES (?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.Password,
	)
	if err != nil {
		return err
	}
	return nil
}

func (r *MySQLRepo) FindByEmail(email string) (*User, error) {
	return r.findOne("SELECT id, name, email, password, last_login FROM users WHERE email = ?", email)
}

func (r *MySQLRepo) FindByID(id string) (*User, error) {
	return r.findOne("SELECT id, name, email, password, last_login FROM users WHERE id = ?", id)
}

func (r *MySQLRepo) findOne(query, arg string) (*User, error) {
	var u User
	var lastLogin sql.NullTime

	err := r.DB.QueryRow(query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}

	return &u, nil
}

func (r *MySQLRepo) UpdateLastLogin(id string, at time.Time) error {
	_, err := r.DB.Exec("UPDATE users SET last_login = ? WHERE id = ?", at, id)
	return err
}
