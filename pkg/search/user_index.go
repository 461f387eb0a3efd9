package search

import (
	"context"
	"encoding/json"

	"github.com/olivere/elastic/v7"

	"github.com/breezechat/breeze/pkg/log"
)

const userIndexName = "user"

// userMapping indexes profile fields for people search. Fields matched
// exactly carry a keyword subfield; nickname is analyzed with ik_max_word
// for Chinese tokenization. Description and avatar travel in _source only.
const userMapping = `{
  "settings": {
    "analysis": {
      "analyzer": {
        "ik": { "tokenizer": "ik_max_word" }
      }
    }
  },
  "mappings": {
    "dynamic": true,
    "properties": {
      "user_id":     { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "email":       { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "nickname":    { "type": "text", "analyzer": "ik_max_word" },
      "description": { "type": "text", "index": false },
      "avatar_id":   { "type": "keyword", "index": false }
    }
  }
}`

// UserDoc is the user profile as indexed for search.
type UserDoc struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`
	AvatarID    string `json:"avatar_id"`
}

// UserIndex reads and writes the user search index.
type UserIndex struct {
	client *elastic.Client
}

// NewUserIndex wraps client for the user index.
func NewUserIndex(client *elastic.Client) *UserIndex {
	return &UserIndex{client: client}
}

// EnsureIndex creates the user index when missing.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	if err := ensureIndex(ctx, x.client, userIndexName, userMapping); err != nil {
		log.Errorf("用户索引创建失败", err)
		return err
	}
	return nil
}

// Upsert writes the full profile document keyed by user id, replacing any
// previous version.
func (x *UserIndex) Upsert(ctx context.Context, doc UserDoc) error {
	_, err := x.client.Index().
		Index(userIndexName).
		Id(doc.UserID).
		BodyJson(doc).
		Do(ctx)
	if err != nil {
		log.Errorf("用户索引插入失败", err)
		return err
	}
	return nil
}

// Delete removes the profile document for uid.
func (x *UserIndex) Delete(ctx context.Context, uid string) error {
	_, err := x.client.Delete().
		Index(userIndexName).
		Id(uid).
		Do(ctx)
	if err != nil {
		log.Errorf("用户索引删除失败", err)
		return err
	}
	return nil
}

// Search matches key against email, user id and nickname, excluding the
// given user ids (the caller and their existing friends). Hits come back in
// relevance order.
func (x *UserIndex) Search(ctx context.Context, key string, excludeIDs []string) ([]UserDoc, error) {
	q := elastic.NewBoolQuery().Should(
		elastic.NewMatchQuery("email.keyword", key),
		elastic.NewMatchQuery("user_id.keyword", key),
		elastic.NewMatchQuery("nickname", key),
	)
	if len(excludeIDs) > 0 {
		ids := make([]interface{}, len(excludeIDs))
		for i, id := range excludeIDs {
			ids[i] = id
		}
		q.MustNot(elastic.NewTermsQuery("user_id.keyword", ids...))
	}

	res, err := x.client.Search(userIndexName).Query(q).Do(ctx)
	if err != nil {
		log.Errorf("用户索引搜索失败", err)
		return nil, err
	}

	docs := make([]UserDoc, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc UserDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			log.Errorf("用户索引结果解析失败", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
