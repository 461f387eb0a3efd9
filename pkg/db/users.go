package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/breezechat/breeze/pkg/log"
)

// User is one row of the users table. Optional profile fields are NULL
// until the user sets them.
type User struct {
	UserID      string
	Nickname    sql.NullString
	Description sql.NullString
	Password    sql.NullString
	Email       sql.NullString
	AvatarID    sql.NullString
}

const userColumns = "user_id, nickname, description, password, email, avatar_id"

// Users accesses the users table.
type Users struct {
	conn *sql.DB
}

// NewUsers wraps conn for the users table.
func NewUsers(conn *sql.DB) *Users {
	return &Users{conn: conn}
}

// Insert persists a new user row.
func (t *Users) Insert(ctx context.Context, u *User) error {
	_, err := t.conn.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		u.UserID, u.Nickname, u.Description, u.Password, u.Email, u.AvatarID)
	if err != nil {
		log.Errorf(fmt.Sprintf("新增用户失败 %s", u.UserID), err)
		return err
	}
	return nil
}

// Update rewrites every mutable column of the row keyed by user id.
func (t *Users) Update(ctx context.Context, u *User) error {
	tx, err := t.conn.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf(fmt.Sprintf("更新用户失败 %s", u.UserID), err)
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE users SET nickname = ?, description = ?, password = ?, email = ?, avatar_id = ? WHERE user_id = ?",
		u.Nickname, u.Description, u.Password, u.Email, u.AvatarID, u.UserID)
	if err != nil {
		tx.Rollback()
		log.Errorf(fmt.Sprintf("更新用户失败 %s", u.UserID), err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Errorf(fmt.Sprintf("更新用户失败 %s", u.UserID), err)
		return err
	}
	return nil
}

// EraseByID deletes the row for uid. Deleting a missing row is an error so
// registration compensation can tell whether it actually undid anything.
func (t *Users) EraseByID(ctx context.Context, uid string) error {
	res, err := t.conn.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", uid)
	if err != nil {
		log.Errorf(fmt.Sprintf("删除用户失败 %s", uid), err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("user not found")
	}
	return nil
}

// ByID loads the row for uid, or nil when absent.
func (t *Users) ByID(ctx context.Context, uid string) (*User, error) {
	return t.queryOne(ctx, "user_id = ?", uid)
}

// ByNickname loads the row owning nickname, or nil when absent.
func (t *Users) ByNickname(ctx context.Context, nickname string) (*User, error) {
	return t.queryOne(ctx, "nickname = ?", nickname)
}

// ByEmail loads the row owning email, or nil when absent.
func (t *Users) ByEmail(ctx context.Context, email string) (*User, error) {
	return t.queryOne(ctx, "email = ?", email)
}

func (t *Users) queryOne(ctx context.Context, where string, arg interface{}) (*User, error) {
	var u User
	err := t.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where, arg).
		Scan(&u.UserID, &u.Nickname, &u.Description, &u.Password, &u.Email, &u.AvatarID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Errorf("查询用户失败", err)
		return nil, err
	}
	return &u, nil
}

// ByIDs loads every row whose user id is in ids.
func (t *Users) ByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := t.conn.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id IN ("+placeholders+")", args...)
	if err != nil {
		log.Errorf(fmt.Sprintf("查询多用户失败 %s", strings.Join(ids, ",")), err)
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.Nickname, &u.Description, &u.Password, &u.Email, &u.AvatarID); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Truncate empties the table.
func (t *Users) Truncate(ctx context.Context) error {
	if _, err := t.conn.ExecContext(ctx, "TRUNCATE TABLE users"); err != nil {
		log.Errorf("清空用户表失败", err)
		return err
	}
	return nil
}
