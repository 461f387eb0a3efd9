package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
)

// Message is one row of the message table. The discriminator columns after
// Type are NULL unless that payload kind uses them: content for text
// messages, the file triple for everything stored in the file service.
type Message struct {
	MessageID  string
	SessionID  string
	UserID     string
	Type       model.MessageType
	CreateTime time.Time
	Content    sql.NullString
	FileID     sql.NullString
	FileName   sql.NullString
	FileSize   sql.NullInt64
}

const messageColumns = "message_id, session_id, user_id, message_type, create_time, content, file_id, file_name, file_size"

// Messages accesses the message table.
type Messages struct {
	conn *sql.DB
}

// NewMessages wraps conn for the message table.
func NewMessages(conn *sql.DB) *Messages {
	return &Messages{conn: conn}
}

// Insert persists one message row.
func (t *Messages) Insert(ctx context.Context, m *Message) error {
	_, err := t.conn.ExecContext(ctx,
		"INSERT INTO message ("+messageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.MessageID, m.SessionID, m.UserID, m.Type, m.CreateTime,
		m.Content, m.FileID, m.FileName, m.FileSize)
	if err != nil {
		log.Errorf(fmt.Sprintf("新增消息失败 %s", m.MessageID), err)
		return err
	}
	return nil
}

// EraseBySession deletes every message of one session.
func (t *Messages) EraseBySession(ctx context.Context, sessionID string) error {
	_, err := t.conn.ExecContext(ctx, "DELETE FROM message WHERE session_id = ?", sessionID)
	if err != nil {
		log.Errorf(fmt.Sprintf("删除会话消息失败 %s", sessionID), err)
		return err
	}
	return nil
}

// Recent returns the newest count messages of a session, newest first.
func (t *Messages) Recent(ctx context.Context, sessionID string, count int64) ([]Message, error) {
	rows, err := t.conn.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM message WHERE session_id = ? ORDER BY create_time DESC LIMIT ?",
		sessionID, count)
	if err != nil {
		log.Errorf(fmt.Sprintf("查询最近消息失败 %s", sessionID), err)
		return nil, err
	}
	return scanMessages(rows)
}

// RecentBefore returns the newest count messages of a session created at or
// before the bound, newest first.
func (t *Messages) RecentBefore(ctx context.Context, sessionID string, count int64, before time.Time) ([]Message, error) {
	rows, err := t.conn.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM message WHERE session_id = ? AND create_time <= ? ORDER BY create_time DESC LIMIT ?",
		sessionID, before, count)
	if err != nil {
		log.Errorf(fmt.Sprintf("查询最近消息失败 %s", sessionID), err)
		return nil, err
	}
	return scanMessages(rows)
}

// Range returns the messages of a session with create_time in [start, end],
// oldest first.
func (t *Messages) Range(ctx context.Context, sessionID string, start, end time.Time) ([]Message, error) {
	rows, err := t.conn.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM message WHERE session_id = ? AND create_time BETWEEN ? AND ? ORDER BY create_time ASC",
		sessionID, start, end)
	if err != nil {
		log.Errorf(fmt.Sprintf("查询区间消息失败 %s", sessionID), err)
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.MessageID, &m.SessionID, &m.UserID, &m.Type, &m.CreateTime,
			&m.Content, &m.FileID, &m.FileName, &m.FileSize); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Truncate empties the table.
func (t *Messages) Truncate(ctx context.Context) error {
	if _, err := t.conn.ExecContext(ctx, "TRUNCATE TABLE message"); err != nil {
		log.Errorf("清空消息表失败", err)
		return err
	}
	return nil
}
