package msgstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/db"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
	"github.com/breezechat/breeze/pkg/mq"
	"github.com/breezechat/breeze/pkg/rpc"
	"github.com/breezechat/breeze/pkg/search"
)

// Server implements rpc.MsgStorageService and the broker consumer that feeds
// it. Rows hold text bodies inline and larger payloads as file-service ids;
// reads re-inflate both and resolve sender profiles before returning.
type Server struct {
	messages    *db.Messages
	index       *search.MessageIndex
	broker      *mq.Client
	queue       string
	manager     *balancer.Manager
	fileService string
	userService string

	coord    *coord.Client
	reg      *coord.Registry
	fileDisc *coord.Discovery
	userDisc *coord.Discovery
	rpc      *rpc.Server
	addr     string
}

// Start registers the broker consumer and serves RPCs until Stop.
func (s *Server) Start() error {
	if err := s.broker.Consume(s.queue, s.HandleEnvelope); err != nil {
		return err
	}
	return s.rpc.Start(s.addr)
}

// Stop deregisters the instance, drains the consumer and releases every
// connection. The manager closes after the broker and the RPC listener so
// in-flight handlers keep their file and user service connections.
func (s *Server) Stop() {
	if s.reg != nil {
		s.reg.Close()
	}
	if s.fileDisc != nil {
		s.fileDisc.Close()
	}
	if s.userDisc != nil {
		s.userDisc.Close()
	}
	if s.broker != nil {
		s.broker.Close()
	}
	if s.rpc != nil {
		s.rpc.Stop()
	}
	if s.manager != nil {
		s.manager.Close()
	}
	if s.coord != nil {
		s.coord.Close()
	}
}

// Manager exposes the connection manager for metrics sampling.
func (s *Server) Manager() *balancer.Manager {
	return s.manager
}

func (s *Server) GetHistoryMsg(ctx context.Context, in *rpc.GetHistoryMsgReq) (*rpc.GetHistoryMsgRsp, error) {
	rsp := &rpc.GetHistoryMsgRsp{}

	rows, err := s.messages.Range(ctx, in.ChatSessionID,
		time.Unix(in.StartTime, 0), time.Unix(in.OverTime, 0))
	if err != nil {
		log.Errorf(fmt.Sprintf("%s-%s mysql数据库查询失败", in.RequestID, in.ChatSessionID), err)
		rsp.Status = rpc.Fail(in.RequestID, "获取历史消息失败")
		return rsp, nil
	}

	list, errmsg := s.assemble(ctx, in.RequestID, rows)
	if errmsg != "" {
		rsp.Status = rpc.Fail(in.RequestID, errmsg)
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	rsp.MsgList = list
	return rsp, nil
}

func (s *Server) GetRecentMsg(ctx context.Context, in *rpc.GetRecentMsgReq) (*rpc.GetRecentMsgRsp, error) {
	rsp := &rpc.GetRecentMsgRsp{}

	var rows []db.Message
	var err error
	if in.CurTime > 0 {
		rows, err = s.messages.RecentBefore(ctx, in.ChatSessionID, in.MsgCount, time.Unix(in.CurTime, 0))
	} else {
		rows, err = s.messages.Recent(ctx, in.ChatSessionID, in.MsgCount)
	}
	if err != nil {
		log.Errorf(fmt.Sprintf("%s-%s mysql数据库查询失败", in.RequestID, in.ChatSessionID), err)
		rsp.Status = rpc.Fail(in.RequestID, "获取最近消息失败")
		return rsp, nil
	}
	// The LIMIT scan returns newest first; callers get oldest first.
	slices.Reverse(rows)

	list, errmsg := s.assemble(ctx, in.RequestID, rows)
	if errmsg != "" {
		rsp.Status = rpc.Fail(in.RequestID, errmsg)
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	rsp.MsgList = list
	return rsp, nil
}

func (s *Server) MsgSearch(ctx context.Context, in *rpc.MsgSearchReq) (*rpc.MsgSearchRsp, error) {
	rsp := &rpc.MsgSearchRsp{}

	docs, err := s.index.Search(ctx, in.ChatSessionID, in.SearchKey)
	if err != nil {
		log.Errorf(fmt.Sprintf("%s-%s es搜索失败", in.RequestID, in.ChatSessionID), err)
		rsp.Status = rpc.Fail(in.RequestID, "搜索历史消息失败")
		return rsp, nil
	}

	userIDs := make([]string, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.UserID] {
			continue
		}
		seen[doc.UserID] = true
		userIDs = append(userIDs, doc.UserID)
	}
	users, errmsg := s.fetchUsers(ctx, in.RequestID, userIDs)
	if errmsg != "" {
		rsp.Status = rpc.Fail(in.RequestID, errmsg)
		return rsp, nil
	}

	list := make([]model.MessageInfo, 0, len(docs))
	for _, doc := range docs {
		list = append(list, model.MessageInfo{
			MessageID:     doc.MessageID,
			ChatSessionID: doc.ChatSessionID,
			Timestamp:     doc.CreateTime.Unix(),
			Sender:        users[doc.UserID],
			Content: model.MessageContent{
				Type:          model.MessageString,
				StringMessage: &model.StringMessageInfo{Content: doc.Content},
			},
		})
	}
	rsp.Status = rpc.OK(in.RequestID)
	rsp.MsgList = list
	return rsp, nil
}

// pick returns the least busy connection of service, or nil when no instance
// is known. The caller must Complete on the returned channel.
func (s *Server) pick(service string) (*balancer.ServiceChannel, balancer.Conn) {
	ch := s.manager.Pool(service)
	if ch == nil {
		return nil, nil
	}
	conn := ch.Pick()
	if conn == nil {
		return nil, nil
	}
	return ch, conn
}

// fetchFiles resolves payload blobs through the file service in one batched
// call. The second return is the response errmsg, empty on success. A
// successful response carries every requested id.
func (s *Server) fetchFiles(ctx context.Context, reqID string, fileIDs []string) (map[string]model.FileDownloadData, string) {
	if len(fileIDs) == 0 {
		return nil, ""
	}
	ch, conn := s.pick(s.fileService)
	if conn == nil {
		log.Error(fmt.Sprintf("%s - 获取file服务失败", reqID))
		return nil, "获取file服务失败"
	}
	defer ch.Complete(conn)

	frsp, err := rpc.NewFileClient(conn).GetMultiFile(ctx, &rpc.GetMultiFileReq{
		RequestID:  reqID,
		FileIDList: fileIDs,
	})
	if err != nil || !frsp.Success {
		log.Errorf(fmt.Sprintf("%s - file服务查询失败", reqID), err)
		return nil, "获取file服务失败"
	}
	return frsp.FileData, ""
}

// fetchUsers resolves sender profiles through the user service in one
// batched call. The second return is the response errmsg, empty on success.
func (s *Server) fetchUsers(ctx context.Context, reqID string, userIDs []string) (map[string]model.UserInfo, string) {
	if len(userIDs) == 0 {
		return nil, ""
	}
	ch, conn := s.pick(s.userService)
	if conn == nil {
		log.Error(fmt.Sprintf("%s - 获取user服务失败", reqID))
		return nil, "获取user服务失败"
	}
	defer ch.Complete(conn)

	ursp, err := rpc.NewUserClient(conn).GetMultiUserInfo(ctx, &rpc.GetMultiUserInfoReq{
		RequestID: reqID,
		UsersID:   userIDs,
	})
	if err != nil || !ursp.Success {
		log.Errorf(fmt.Sprintf("%s - user服务查询失败", reqID), err)
		return nil, "获取user服务失败"
	}
	return ursp.UsersInfo, ""
}

// assemble turns stored rows into full envelopes, resolving blobs and sender
// profiles in one batched call each.
func (s *Server) assemble(ctx context.Context, reqID string, rows []db.Message) ([]model.MessageInfo, string) {
	var fileIDs []string
	for _, m := range rows {
		if m.FileID.String != "" {
			fileIDs = append(fileIDs, m.FileID.String)
		}
	}
	files, errmsg := s.fetchFiles(ctx, reqID, fileIDs)
	if errmsg != "" {
		return nil, errmsg
	}
	users, errmsg := s.fetchUsers(ctx, reqID, senderIDs(rows))
	if errmsg != "" {
		return nil, errmsg
	}

	list := make([]model.MessageInfo, 0, len(rows))
	for _, m := range rows {
		info := model.MessageInfo{
			MessageID:     m.MessageID,
			ChatSessionID: m.SessionID,
			Timestamp:     m.CreateTime.Unix(),
			Sender:        users[m.UserID],
		}
		switch m.Type {
		case model.MessageString:
			info.Content = model.MessageContent{
				Type:          model.MessageString,
				StringMessage: &model.StringMessageInfo{Content: m.Content.String},
			}
		case model.MessageImage:
			info.Content = model.MessageContent{
				Type: model.MessageImage,
				ImageMessage: &model.ImageMessageInfo{
					FileID:       m.FileID.String,
					ImageContent: files[m.FileID.String].FileContent,
				},
			}
		case model.MessageFile:
			info.Content = model.MessageContent{
				Type: model.MessageFile,
				FileMessage: &model.FileMessageInfo{
					FileID:       m.FileID.String,
					FileName:     m.FileName.String,
					FileSize:     m.FileSize.Int64,
					FileContents: files[m.FileID.String].FileContent,
				},
			}
		case model.MessageSpeech:
			info.Content = model.MessageContent{
				Type: model.MessageSpeech,
				SpeechMessage: &model.SpeechMessageInfo{
					FileID:       m.FileID.String,
					FileContents: files[m.FileID.String].FileContent,
				},
			}
		default:
			log.Critical(fmt.Sprintf("未知消息类型 %d, 消息 %s", m.Type, m.MessageID))
			continue
		}
		list = append(list, info)
	}
	return list, ""
}

// senderIDs collects the distinct sender ids of rows in first-seen order.
func senderIDs(rows []db.Message) []string {
	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		if seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		ids = append(ids, m.UserID)
	}
	return ids
}
