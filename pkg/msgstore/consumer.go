package msgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/breezechat/breeze/pkg/db"
	"github.com/breezechat/breeze/pkg/ident"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/metrics"
	"github.com/breezechat/breeze/pkg/model"
	"github.com/breezechat/breeze/pkg/rpc"
	"github.com/breezechat/breeze/pkg/search"
)

// HandleEnvelope persists one broker delivery. A nil return acknowledges the
// delivery; an error leaves it queued for redelivery. Envelopes that can
// never persist (unparseable, malformed union) are acknowledged and dropped.
func (s *Server) HandleEnvelope(body []byte) error {
	var msg model.MessageInfo
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Errorf("消息反序列化失败", err)
		return nil
	}

	ctx := context.Background()
	start := time.Now()

	row := &db.Message{
		MessageID:  msg.MessageID,
		SessionID:  msg.ChatSessionID,
		UserID:     msg.Sender.UserID,
		Type:       msg.Content.Type,
		CreateTime: time.Unix(msg.Timestamp, 0),
	}

	indexed := false
	switch msg.Content.Type {
	case model.MessageString:
		if msg.Content.StringMessage == nil {
			log.Error(fmt.Sprintf("消息负载缺失 %s", msg.MessageID))
			return nil
		}
		content := msg.Content.StringMessage.Content
		if err := s.index.Upsert(ctx, search.MessageDoc{
			UserID:        msg.Sender.UserID,
			MessageID:     msg.MessageID,
			ChatSessionID: msg.ChatSessionID,
			CreateTime:    row.CreateTime,
			Content:       content,
		}); err != nil {
			log.Errorf(fmt.Sprintf("持久化消息插入es失败 %s", msg.MessageID), err)
			return err
		}
		indexed = true
		row.Content = db.NullStr(content)
	case model.MessageFile:
		if msg.Content.FileMessage == nil {
			log.Error(fmt.Sprintf("消息负载缺失 %s", msg.MessageID))
			return nil
		}
		fid, err := s.putFile(ctx, msg.Content.FileMessage.FileName, msg.Content.FileMessage.FileContents)
		if err != nil {
			return err
		}
		row.FileID = db.NullStr(fid)
		row.FileName = db.NullStr(msg.Content.FileMessage.FileName)
		row.FileSize = sql.NullInt64{Int64: msg.Content.FileMessage.FileSize, Valid: true}
	case model.MessageImage:
		if msg.Content.ImageMessage == nil {
			log.Error(fmt.Sprintf("消息负载缺失 %s", msg.MessageID))
			return nil
		}
		fid, err := s.putFile(ctx, "", msg.Content.ImageMessage.ImageContent)
		if err != nil {
			return err
		}
		row.FileID = db.NullStr(fid)
	case model.MessageSpeech:
		if msg.Content.SpeechMessage == nil {
			log.Error(fmt.Sprintf("消息负载缺失 %s", msg.MessageID))
			return nil
		}
		fid, err := s.putFile(ctx, "", msg.Content.SpeechMessage.FileContents)
		if err != nil {
			return err
		}
		row.FileID = db.NullStr(fid)
	default:
		log.Critical(fmt.Sprintf("未知消息类型 %d, 消息 %s", msg.Content.Type, msg.MessageID))
		return nil
	}

	if err := s.messages.Insert(ctx, row); err != nil {
		log.Errorf(fmt.Sprintf("持久化消息插入mysql失败 %s", msg.MessageID), err)
		if indexed {
			if derr := s.index.Delete(ctx, msg.MessageID); derr != nil {
				log.Criticalf(fmt.Sprintf("持久化消息保持一致性失败 %s", msg.MessageID), derr)
				metrics.CompensationsTotal.WithLabelValues("message_insert", "failed").Inc()
			} else {
				metrics.CompensationsTotal.WithLabelValues("message_insert", "ok").Inc()
			}
		}
		return err
	}

	metrics.MessagesStoredTotal.WithLabelValues(msg.Content.Type.String()).Inc()
	metrics.MessageHandleDuration.WithLabelValues(msg.Content.Type.String()).Observe(time.Since(start).Seconds())
	return nil
}

// putFile stores one payload blob through the file service and returns the
// allocated file id.
func (s *Server) putFile(ctx context.Context, name string, data []byte) (string, error) {
	ch, conn := s.pick(s.fileService)
	if conn == nil {
		log.Error("没有可用的文件服务节点")
		return "", errors.New("没有可用的文件服务节点")
	}
	defer ch.Complete(conn)

	reqID := ident.New()
	frsp, err := rpc.NewFileClient(conn).PutSingleFile(ctx, &rpc.PutSingleFileReq{
		RequestID: reqID,
		FileData: model.FileUploadData{
			FileName:    name,
			FileSize:    int64(len(data)),
			FileContent: data,
		},
	})
	if err != nil {
		log.Errorf(fmt.Sprintf("PutSingleFile RPC失败 %s", reqID), err)
		return "", err
	}
	if !frsp.Success || frsp.FileInfo == nil {
		log.Error(fmt.Sprintf("PutSingleFile RPC失败 %s: %s", reqID, frsp.Errmsg))
		return "", errors.New(frsp.Errmsg)
	}
	return frsp.FileInfo.FileID, nil
}
