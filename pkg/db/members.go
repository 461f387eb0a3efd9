package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/breezechat/breeze/pkg/log"
)

// Members accesses the chat_session_member table, which maps every chat
// session to the users receiving its messages.
type Members struct {
	conn *sql.DB
}

// NewMembers wraps conn for the chat_session_member table.
func NewMembers(conn *sql.DB) *Members {
	return &Members{conn: conn}
}

// Append adds one user to a session.
func (t *Members) Append(ctx context.Context, sessionID, userID string) error {
	_, err := t.conn.ExecContext(ctx,
		"INSERT INTO chat_session_member (session_id, user_id) VALUES (?, ?)",
		sessionID, userID)
	if err != nil {
		log.Errorf(fmt.Sprintf("新增单会话成员失败 %s-%s", sessionID, userID), err)
		return err
	}
	return nil
}

// AppendMany adds several users to a session in one transaction; either all
// join or none do.
func (t *Members) AppendMany(ctx context.Context, sessionID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return errors.New("no members to append")
	}

	tx, err := t.conn.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf(fmt.Sprintf("新增多会话成员失败 %s", sessionID), err)
		return err
	}
	for _, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chat_session_member (session_id, user_id) VALUES (?, ?)",
			sessionID, uid); err != nil {
			tx.Rollback()
			log.Errorf(fmt.Sprintf("新增多会话成员失败 %s", sessionID), err)
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		log.Errorf(fmt.Sprintf("新增多会话成员失败 %s", sessionID), err)
		return err
	}
	return nil
}

// Remove drops one user from a session.
func (t *Members) Remove(ctx context.Context, sessionID, userID string) error {
	_, err := t.conn.ExecContext(ctx,
		"DELETE FROM chat_session_member WHERE session_id = ? AND user_id = ?",
		sessionID, userID)
	if err != nil {
		log.Errorf(fmt.Sprintf("删除单会话成员失败 %s-%s", sessionID, userID), err)
		return err
	}
	return nil
}

// RemoveSession drops every member of a session.
func (t *Members) RemoveSession(ctx context.Context, sessionID string) error {
	_, err := t.conn.ExecContext(ctx,
		"DELETE FROM chat_session_member WHERE session_id = ?", sessionID)
	if err != nil {
		log.Errorf(fmt.Sprintf("删除会话所有成员失败 %s", sessionID), err)
		return err
	}
	return nil
}

// Members returns the user ids in a session.
func (t *Members) Members(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := t.conn.QueryContext(ctx,
		"SELECT user_id FROM chat_session_member WHERE session_id = ?", sessionID)
	if err != nil {
		log.Errorf(fmt.Sprintf("查询会话成员失败 %s", sessionID), err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Truncate empties the table.
func (t *Members) Truncate(ctx context.Context) error {
	if _, err := t.conn.ExecContext(ctx, "TRUNCATE TABLE chat_session_member"); err != nil {
		log.Errorf("清空会话成员表失败", err)
		return err
	}
	return nil
}
