package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/breezechat/breeze/pkg/log"
)

const messageIndexName = "message"

// messageMapping indexes text-message bodies per chat session. Only the
// session id and the analyzed content are searchable; the rest rides along
// in _source for result assembly.
const messageMapping = `{
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
      "user_id":         { "type": "keyword" },
      "message_id":      { "type": "keyword", "index": false },
      "chat_session_id": { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "create_time":     { "type": "date" },
      "content":         { "type": "text", "analyzer": "ik_max_word" }
    }
  }
}`

// MessageDoc is one text message as indexed for in-session search.
type MessageDoc struct {
	UserID        string    `json:"user_id"`
	MessageID     string    `json:"message_id"`
	ChatSessionID string    `json:"chat_session_id"`
	CreateTime    time.Time `json:"create_time"`
	Content       string    `json:"content"`
}

// MessageIndex reads and writes the message search index.
type MessageIndex struct {
	client *elastic.Client
}

// NewMessageIndex wraps client for the message index.
func NewMessageIndex(client *elastic.Client) *MessageIndex {
	return &MessageIndex{client: client}
}

// EnsureIndex creates the message index when missing.
func (x *MessageIndex) EnsureIndex(ctx context.Context) error {
	if err := ensureIndex(ctx, x.client, messageIndexName, messageMapping); err != nil {
		log.Errorf("消息索引创建失败", err)
		return err
	}
	return nil
}

// Upsert writes the message document keyed by message id.
func (x *MessageIndex) Upsert(ctx context.Context, doc MessageDoc) error {
	_, err := x.client.Index().
		Index(messageIndexName).
		Id(doc.MessageID).
		BodyJson(doc).
		Do(ctx)
	if err != nil {
		log.Errorf("消息索引插入失败", err)
		return err
	}
	return nil
}

// Delete removes the document for messageID. It backs out the search half
// of a message whose relational write failed.
func (x *MessageIndex) Delete(ctx context.Context, messageID string) error {
	_, err := x.client.Delete().
		Index(messageIndexName).
		Id(messageID).
		Do(ctx)
	if err != nil {
		log.Errorf("消息索引删除失败", err)
		return err
	}
	return nil
}

// Search finds text messages in one session whose content matches key.
func (x *MessageIndex) Search(ctx context.Context, sessionID, key string) ([]MessageDoc, error) {
	q := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chat_session_id.keyword", sessionID),
		elastic.NewMatchQuery("content", key),
	)

	res, err := x.client.Search(messageIndexName).Query(q).Do(ctx)
	if err != nil {
		log.Errorf("消息索引搜索失败", err)
		return nil, err
	}

	docs := make([]MessageDoc, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc MessageDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			log.Errorf("消息索引结果解析失败", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
