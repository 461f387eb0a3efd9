package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

const testSchema = `
CREATE TABLE IF NOT EXISTS users (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  user_id CHAR(16) NOT NULL,
  nickname VARCHAR(32) NULL,
  description TEXT NULL,
  password CHAR(64) NULL,
  email VARCHAR(64) NULL,
  avatar_id CHAR(16) NULL,
  PRIMARY KEY (id),
  UNIQUE KEY uk_users_user_id (user_id),
  UNIQUE KEY uk_users_nickname (nickname),
  UNIQUE KEY uk_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
CREATE TABLE IF NOT EXISTS chat_session_member (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  session_id VARCHAR(64) NOT NULL,
  user_id CHAR(16) NOT NULL,
  PRIMARY KEY (id),
  UNIQUE KEY uk_member (session_id, user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
CREATE TABLE IF NOT EXISTS message (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  message_id CHAR(16) NOT NULL,
  session_id VARCHAR(64) NOT NULL,
  user_id CHAR(16) NOT NULL,
  message_type TINYINT UNSIGNED NOT NULL,
  create_time TIMESTAMP NULL,
  content TEXT NULL,
  file_id CHAR(16) NULL,
  file_name VARCHAR(128) NULL,
  file_size INT UNSIGNED NULL,
  PRIMARY KEY (id),
  UNIQUE KEY uk_message_message_id (message_id),
  KEY idx_message_session_time (session_id, create_time)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// newTestDB connects to a local MySQL and prepares empty tables, skipping
// the test when no server is reachable.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := Open(Config{
		User:     "root",
		Password: "",
		Host:     "127.0.0.1",
		Database: "breeze_test",
	})
	if err != nil {
		t.Skipf("mysql not available: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	for _, stmt := range splitStatements(testSchema) {
		_, err := conn.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	for _, table := range []string{"users", "chat_session_member", "message"} {
		_, err := conn.ExecContext(ctx, "TRUNCATE TABLE "+table)
		require.NoError(t, err)
	}
	return conn
}

func splitStatements(schema string) []string {
	var stmts []string
	start := 0
	for i := 0; i < len(schema); i++ {
		if schema[i] == ';' {
			stmt := schema[start:i]
			if len(stmt) > 1 {
				stmts = append(stmts, stmt)
			}
			start = i + 1
		}
	}
	return stmts
}

func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestUsersRoundTrip(t *testing.T) {
	conn := newTestDB(t)
	users := NewUsers(conn)
	ctx := context.Background()

	u := &User{
		UserID:   "9f3b2a6c1e4d0001",
		Nickname: ns("张三"),
		Password: ns("hash"),
	}
	require.NoError(t, users.Insert(ctx, u))

	got, err := users.ByID(ctx, u.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "张三", got.Nickname.String)
	assert.False(t, got.Email.Valid, "unset email stays NULL")

	got, err = users.ByNickname(ctx, "张三")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.UserID, got.UserID)

	got, err = users.ByNickname(ctx, "不存在")
	require.NoError(t, err)
	assert.Nil(t, got, "missing rows come back nil without error")

	// Update rewrites every mutable column.
	u.Nickname = ns("李四")
	u.Email = ns("lisi@example.com")
	u.Description = ns("你好")
	require.NoError(t, users.Update(ctx, u))

	got, err = users.ByEmail(ctx, "lisi@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "李四", got.Nickname.String)
	assert.Equal(t, "你好", got.Description.String)
}

func TestUsersUniqueNickname(t *testing.T) {
	conn := newTestDB(t)
	users := NewUsers(conn)
	ctx := context.Background()

	require.NoError(t, users.Insert(ctx, &User{UserID: "a000000000000001", Nickname: ns("dup")}))
	err := users.Insert(ctx, &User{UserID: "a000000000000002", Nickname: ns("dup")})
	assert.Error(t, err, "duplicate nicknames must be rejected by the unique key")
}

func TestUsersByIDs(t *testing.T) {
	conn := newTestDB(t)
	users := NewUsers(conn)
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, users.Insert(ctx, &User{UserID: id, Nickname: ns("nick-" + id)}))
	}

	got, err := users.ByIDs(ctx, []string{"u1", "u3", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = users.ByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUsersEraseByID(t *testing.T) {
	conn := newTestDB(t)
	users := NewUsers(conn)
	ctx := context.Background()

	require.NoError(t, users.Insert(ctx, &User{UserID: "gone000000000001"}))
	require.NoError(t, users.EraseByID(ctx, "gone000000000001"))

	got, err := users.ByID(ctx, "gone000000000001")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, users.EraseByID(ctx, "gone000000000001"), "second erase finds nothing")
}

func TestMembers(t *testing.T) {
	conn := newTestDB(t)
	members := NewMembers(conn)
	ctx := context.Background()

	require.NoError(t, members.Append(ctx, "s1", "u1"))
	require.NoError(t, members.AppendMany(ctx, "s1", []string{"u2", "u3"}))

	got, err := members.Members(ctx, "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, got)

	assert.Error(t, members.Append(ctx, "s1", "u1"), "the (session,user) pair is unique")
	assert.Error(t, members.AppendMany(ctx, "s2", nil))

	// A failing batch must leave no partial rows behind.
	assert.Error(t, members.AppendMany(ctx, "s1", []string{"u9", "u2"}))
	got, err = members.Members(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, got, "u9")

	require.NoError(t, members.Remove(ctx, "s1", "u2"))
	got, err = members.Members(ctx, "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u3"}, got)

	require.NoError(t, members.RemoveSession(ctx, "s1"))
	got, err = members.Members(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMessagesRecentAndRange(t *testing.T) {
	conn := newTestDB(t)
	messages := NewMessages(conn)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2023, 10, d, 12, 0, 0, 0, time.UTC)
	}
	rows := []Message{
		{MessageID: "1", SessionID: "session1", UserID: "user1", Type: model.MessageString, CreateTime: day(1), Content: ns("一")},
		{MessageID: "2", SessionID: "session1", UserID: "user2", Type: model.MessageString, CreateTime: day(2), Content: ns("二")},
		{MessageID: "3", SessionID: "session1", UserID: "user3", Type: model.MessageString, CreateTime: day(3), Content: ns("三")},
		{MessageID: "4", SessionID: "session2", UserID: "user4", Type: model.MessageFile, CreateTime: day(4), FileID: ns("f4"), FileName: ns("a.txt"), FileSize: sql.NullInt64{Int64: 10, Valid: true}},
		{MessageID: "5", SessionID: "session2", UserID: "user5", Type: model.MessageString, CreateTime: day(5), Content: ns("五")},
	}
	for i := range rows {
		require.NoError(t, messages.Insert(ctx, &rows[i]))
	}

	got, err := messages.Recent(ctx, "session1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[0].MessageID, "recent messages come newest first")
	assert.Equal(t, "2", got[1].MessageID)
	assert.Equal(t, "1", got[2].MessageID)

	got, err = messages.Recent(ctx, "session2", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "5", got[0].MessageID)
	assert.Equal(t, "4", got[1].MessageID)
	assert.Equal(t, "f4", got[1].FileID.String)
	assert.EqualValues(t, 10, got[1].FileSize.Int64)

	got, err = messages.Recent(ctx, "session3", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = messages.RecentBefore(ctx, "session1", 3, day(2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].MessageID, "bound is inclusive")
	assert.Equal(t, "1", got[1].MessageID)

	got, err = messages.Range(ctx, "session1",
		time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 10, 3, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].MessageID, "range scans come oldest first")
	assert.Equal(t, "3", got[2].MessageID)

	got, err = messages.Range(ctx, "session2",
		time.Date(2023, 10, 1, 13, 0, 0, 0, time.UTC),
		time.Date(2023, 10, 4, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].MessageID)

	got, err = messages.Range(ctx, "session2",
		time.Date(2023, 10, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 10, 10, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, messages.EraseBySession(ctx, "session1"))
	got, err = messages.Recent(ctx, "session1", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}
