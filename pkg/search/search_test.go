package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezechat/breeze/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

// newMockES serves canned cluster responses so index and query bodies can be
// asserted without a live cluster.
func newMockES(t *testing.T, handler http.Handler) *elastic.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elastic.NewClient(
		elastic.SetURL(srv.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

func searchResult(sources ...string) string {
	hits := make([]string, len(sources))
	for i, src := range sources {
		hits[i] = `{"_index":"x","_type":"_doc","_id":"` + string(rune('a'+i)) + `","_score":1.0,"_source":` + src + `}`
	}
	return `{"took":1,"timed_out":false,` +
		`"_shards":{"total":1,"successful":1,"skipped":0,"failed":0},` +
		`"hits":{"total":{"value":` + strconv.Itoa(len(sources)) + `,"relation":"eq"},"max_score":1.0,"hits":[` +
		strings.Join(hits, ",") + `]}}`
}

func TestEnsureIndexCreatesOnlyWhenMissing(t *testing.T) {
	var exists atomic.Bool
	var creates atomic.Int32
	var mapping atomic.Value

	client := newMockES(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/user":
			if exists.Load() {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut && r.URL.Path == "/user":
			body, _ := io.ReadAll(r.Body)
			mapping.Store(string(body))
			creates.Add(1)
			exists.Store(true)
			writeJSON(w, `{"acknowledged":true,"shards_acknowledged":true,"index":"user"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	idx := NewUserIndex(client)
	require.NoError(t, idx.EnsureIndex(context.Background()))
	require.NoError(t, idx.EnsureIndex(context.Background()))

	assert.Equal(t, int32(1), creates.Load(), "existing index must not be recreated")

	body := mapping.Load().(string)
	assert.Contains(t, body, "ik_max_word")
	assert.Contains(t, body, `"nickname"`)
	assert.Contains(t, body, `"keyword"`)
}

func TestUserUpsertKeyedByID(t *testing.T) {
	var gotPath atomic.Value
	var gotBody atomic.Value

	client := newMockES(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.Method + " " + r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		writeJSON(w, `{"_index":"user","_type":"_doc","_id":"u1","_version":1,"result":"created",`+
			`"_shards":{"total":1,"successful":1,"failed":0},"_seq_no":0,"_primary_term":1}`)
	}))

	idx := NewUserIndex(client)
	err := idx.Upsert(context.Background(), UserDoc{
		UserID:      "u1",
		Email:       "alice@example.com",
		Nickname:    "爱丽丝",
		Description: "hello",
		AvatarID:    "av1",
	})
	require.NoError(t, err)

	assert.Equal(t, "PUT /user/_doc/u1", gotPath.Load())

	var doc UserDoc
	require.NoError(t, json.Unmarshal([]byte(gotBody.Load().(string)), &doc))
	assert.Equal(t, "爱丽丝", doc.Nickname)
	assert.Equal(t, "alice@example.com", doc.Email)
}

func TestUserSearchBuildsBoolQuery(t *testing.T) {
	var body atomic.Value

	client := newMockES(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body.Store(string(b))
		writeJSON(w, searchResult(
			`{"user_id":"u2","email":"bob@example.com","nickname":"bob","description":"","avatar_id":""}`,
			`{"user_id":"u3","email":"carol@example.com","nickname":"carol","description":"","avatar_id":""}`,
		))
	}))

	idx := NewUserIndex(client)
	docs, err := idx.Search(context.Background(), "bob", []string{"u1", "u9"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "u2", docs[0].UserID, "hit order must be preserved")
	assert.Equal(t, "u3", docs[1].UserID)

	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body.Load().(string)), &q))
	boolq := q["query"].(map[string]interface{})["bool"].(map[string]interface{})

	should := boolq["should"].([]interface{})
	assert.Len(t, should, 3, "email, user_id and nickname clauses")

	mustNot := boolq["must_not"].(map[string]interface{})
	terms := mustNot["terms"].(map[string]interface{})["user_id.keyword"].([]interface{})
	assert.ElementsMatch(t, []interface{}{"u1", "u9"}, terms)
}

func TestUserSearchWithoutExclusions(t *testing.T) {
	var body atomic.Value

	client := newMockES(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body.Store(string(b))
		writeJSON(w, searchResult())
	}))

	idx := NewUserIndex(client)
	docs, err := idx.Search(context.Background(), "nobody", nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body.Load().(string)), &q))
	boolq := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	_, hasMustNot := boolq["must_not"]
	assert.False(t, hasMustNot, "no exclusion clause without excluded ids")
}

func TestMessageSearchScopedToSession(t *testing.T) {
	var body atomic.Value

	client := newMockES(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body.Store(string(b))
		writeJSON(w, searchResult(
			`{"user_id":"u1","message_id":"m1","chat_session_id":"s1",`+
				`"create_time":"2024-05-06T07:08:09Z","content":"吃饭了吗"}`,
		))
	}))

	idx := NewMessageIndex(client)
	docs, err := idx.Search(context.Background(), "s1", "吃饭")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "m1", docs[0].MessageID)
	assert.Equal(t, "吃饭了吗", docs[0].Content)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), docs[0].CreateTime)

	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body.Load().(string)), &q))
	boolq := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolq["must"].([]interface{})
	require.Len(t, must, 2)

	term := must[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "s1", term["chat_session_id.keyword"])

	match := must[1].(map[string]interface{})["match"].(map[string]interface{})
	_, ok := match["content"]
	assert.True(t, ok, "content match clause missing")
}

func TestMessageDeleteTargetsDocID(t *testing.T) {
	var gotPath atomic.Value

	client := newMockES(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.Method + " " + r.URL.Path)
		writeJSON(w, `{"_index":"message","_type":"_doc","_id":"m1","_version":2,"result":"deleted",`+
			`"_shards":{"total":1,"successful":1,"failed":0},"_seq_no":1,"_primary_term":1}`)
	}))

	idx := NewMessageIndex(client)
	require.NoError(t, idx.Delete(context.Background(), "m1"))
	assert.Equal(t, "DELETE /message/_doc/m1", gotPath.Load())
}
