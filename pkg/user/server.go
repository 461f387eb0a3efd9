package user

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/cache"
	"github.com/breezechat/breeze/pkg/classifier"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/db"
	"github.com/breezechat/breeze/pkg/ident"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
	"github.com/breezechat/breeze/pkg/rpc"
	"github.com/breezechat/breeze/pkg/search"
)

// Server implements rpc.UserService: account registration and login,
// profile reads and writes, and user search. Profiles live in two stores
// that are kept in step write-through: the search index is written first,
// the relational row second, and a failed row write restores the previous
// index state.
type Server struct {
	users      *db.Users
	index      *search.UserIndex
	session    *cache.Session
	status     *cache.Status
	verifyCode *cache.VerifyCode
	email      CodeSender
	moderator  Moderator

	manager     *balancer.Manager
	fileService string

	coord     *coord.Client
	reg       *coord.Registry
	discovery *coord.Discovery
	rpc       *rpc.Server
	addr      string
}

// Start serves RPCs until Stop.
func (s *Server) Start() error {
	return s.rpc.Start(s.addr)
}

// Stop deregisters the instance and releases every connection. The manager
// closes after the RPC listener so in-flight handlers keep their file
// service connections.
func (s *Server) Stop() {
	if s.reg != nil {
		s.reg.Close()
	}
	if s.discovery != nil {
		s.discovery.Close()
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

// checkNickname validates length, runs the moderator, and checks uniqueness,
// in that order. A moderator failure reads as non-compliant: better to
// reject a good nickname than accept a bad one unscreened.
func (s *Server) checkNickname(ctx context.Context, nickname string) nicknameStatus {
	if nicknameTooLong(nickname) {
		return nicknameStyleError
	}
	result, err := s.moderator.Classify(ctx, nickname)
	if err != nil {
		log.Errorf("模型请求失败", err)
		return nicknameInvalid
	}
	if result == classifier.NonCompliant {
		return nicknameInvalid
	}
	existing, _ := s.users.ByNickname(ctx, nickname)
	if existing != nil {
		return nicknameExist
	}
	return nicknameOK
}

// sessionValid reports whether ssid is a live login session owned by uid.
func (s *Server) sessionValid(ctx context.Context, ssid, uid string) bool {
	owner, err := s.session.UID(ctx, ssid)
	if err != nil {
		log.Errorf("redis会话查询失败", err)
		return false
	}
	return owner != "" && owner == uid
}

// pickFile returns the least busy file-service connection, or nil when no
// instance is known. The caller must Complete on the returned channel.
func (s *Server) pickFile() (*balancer.ServiceChannel, balancer.Conn) {
	ch := s.manager.Pool(s.fileService)
	if ch == nil {
		return nil, nil
	}
	conn := ch.Pick()
	if conn == nil {
		return nil, nil
	}
	return ch, conn
}

// fetchAvatars resolves avatar blobs through the file service in one batched
// call. The second return is the response errmsg, empty on success.
func (s *Server) fetchAvatars(ctx context.Context, reqID string, avatarIDs []string) (map[string]model.FileDownloadData, string) {
	ch, conn := s.pickFile()
	if conn == nil {
		log.Error(fmt.Sprintf("%s - 获取file服务失败", reqID))
		return nil, "获取file服务失败"
	}
	defer ch.Complete(conn)

	frsp, err := rpc.NewFileClient(conn).GetMultiFile(ctx, &rpc.GetMultiFileReq{
		RequestID:  reqID,
		FileIDList: avatarIDs,
	})
	if err != nil || !frsp.Success {
		log.Errorf(fmt.Sprintf("%s - file服务查询失败", reqID), err)
		return nil, "获取头像失败"
	}
	return frsp.FileData, ""
}

func userInfoOf(u *db.User) model.UserInfo {
	return model.UserInfo{
		UserID:      u.UserID,
		Nickname:    u.Nickname.String,
		Description: u.Description.String,
		Email:       u.Email.String,
	}
}

func userDocOf(u *db.User) search.UserDoc {
	return search.UserDoc{
		UserID:      u.UserID,
		Email:       u.Email.String,
		Nickname:    u.Nickname.String,
		Description: u.Description.String,
		AvatarID:    u.AvatarID.String,
	}
}

func (s *Server) UserRegister(ctx context.Context, in *rpc.UserRegisterReq) (*rpc.UserRegisterRsp, error) {
	rsp := &rpc.UserRegisterRsp{}
	switch s.checkNickname(ctx, in.Nickname) {
	case nicknameOK:
	case nicknameExist:
		rsp.Status = rpc.Fail(in.RequestID, "昵称已存在")
		return rsp, nil
	case nicknameStyleError:
		rsp.Status = rpc.Fail(in.RequestID, "昵称格式错误")
		return rsp, nil
	case nicknameInvalid:
		rsp.Status = rpc.Fail(in.RequestID, "昵称敏感")
		return rsp, nil
	default:
		log.Fatal("未知昵称状态")
	}

	var hashed string
	switch checkPassword(in.Password) {
	case passwordOK:
		hashed = hashPassword(in.Password)
	case passwordTooShort:
		rsp.Status = rpc.Fail(in.RequestID, "密码过短")
		return rsp, nil
	case passwordTooLong:
		rsp.Status = rpc.Fail(in.RequestID, "密码过长")
		return rsp, nil
	case passwordStyleError:
		rsp.Status = rpc.Fail(in.RequestID, "密码格式错误, 至少一个字母和数字, 长度8-32, 允许字母、数字和特殊字符, 不允许空格")
		return rsp, nil
	default:
		log.Fatal("未知密码状态")
	}

	uid := ident.New()
	u := &db.User{UserID: uid, Nickname: db.NullStr(in.Nickname), Password: db.NullStr(hashed)}
	if err := s.users.Insert(ctx, u); err != nil {
		log.Errorf(fmt.Sprintf("%s - mysql数据库插入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "注册失败")
		return rsp, nil
	}
	if err := s.index.Upsert(ctx, search.UserDoc{UserID: uid, Nickname: in.Nickname}); err != nil {
		log.Errorf(fmt.Sprintf("%s - es数据库插入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "注册失败")
		// The row went in but the index write failed; take the row back out.
		if err := s.users.EraseByID(ctx, uid); err != nil {
			log.Criticalf(fmt.Sprintf("%s - mysql回滚新用户%s失败", in.RequestID, uid), err)
		}
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) UserLogin(ctx context.Context, in *rpc.UserLoginReq) (*rpc.UserLoginRsp, error) {
	rsp := &rpc.UserLoginRsp{}
	u, err := s.users.ByNickname(ctx, in.Nickname)
	if err != nil || u == nil {
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}
	if u.Password.String != hashPassword(in.Password) {
		rsp.Status = rpc.Fail(in.RequestID, "密码错误")
		return rsp, nil
	}
	online, err := s.status.Exists(ctx, u.UserID)
	if err != nil {
		log.Errorf(fmt.Sprintf("%s - redis登录状态查询失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "登录失败")
		return rsp, nil
	}
	if online {
		rsp.Status = rpc.Fail(in.RequestID, "用户已在其它地方登录")
		return rsp, nil
	}

	ssid := ident.New()
	if err := s.session.Append(ctx, ssid, u.UserID); err != nil {
		log.Errorf(fmt.Sprintf("%s - redis会话写入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "登录失败")
		return rsp, nil
	}
	if err := s.status.Append(ctx, u.UserID); err != nil {
		log.Errorf(fmt.Sprintf("%s - redis登录状态写入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "登录失败")
		return rsp, nil
	}
	rsp.LoginSessionID = ssid
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) GetEmailVerifyCode(ctx context.Context, in *rpc.EmailVerifyCodeReq) (*rpc.EmailVerifyCodeRsp, error) {
	rsp := &rpc.EmailVerifyCodeRsp{}
	if !checkEmail(in.Email) {
		rsp.Status = rpc.Fail(in.RequestID, "邮箱格式错误")
		return rsp, nil
	}

	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	if err := s.email.SendVerifyCode(in.Email, code); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s 邮件发送失败", in.RequestID, in.Email), err)
		rsp.Status = rpc.Fail(in.RequestID, "邮件发送失败")
		return rsp, nil
	}
	cid := ident.New()
	if err := s.verifyCode.Append(ctx, cid, code, 0); err != nil {
		log.Errorf(fmt.Sprintf("%s - redis数据库插入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "验证码存储失败")
		return rsp, nil
	}
	rsp.VerifyCodeID = cid
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

// consumeVerifyCode compares the submitted code against the stored one and
// deletes it on match. Missing ids read as a mismatch.
func (s *Server) consumeVerifyCode(ctx context.Context, cid, code string) bool {
	stored, err := s.verifyCode.Code(ctx, cid)
	if err != nil {
		log.Errorf("redis验证码查询失败", err)
		return false
	}
	if stored == "" || stored != code {
		return false
	}
	if err := s.verifyCode.Remove(ctx, cid); err != nil {
		log.Errorf("redis验证码删除失败", err)
	}
	return true
}

func (s *Server) EmailRegister(ctx context.Context, in *rpc.EmailRegisterReq) (*rpc.EmailRegisterRsp, error) {
	rsp := &rpc.EmailRegisterRsp{}
	if !checkEmail(in.Email) {
		rsp.Status = rpc.Fail(in.RequestID, "邮箱格式错误")
		return rsp, nil
	}
	if !s.consumeVerifyCode(ctx, in.VerifyCodeID, in.VerifyCode) {
		rsp.Status = rpc.Fail(in.RequestID, "验证码错误")
		return rsp, nil
	}
	existing, _ := s.users.ByEmail(ctx, in.Email)
	if existing != nil {
		rsp.Status = rpc.Fail(in.RequestID, "邮箱已被注册")
		return rsp, nil
	}

	uid := ident.New()
	nickname := "BreezeChatUser_" + uid
	u := &db.User{UserID: uid, Nickname: db.NullStr(nickname), Email: db.NullStr(in.Email)}
	if err := s.users.Insert(ctx, u); err != nil {
		log.Errorf(fmt.Sprintf("%s - mysql数据库插入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "注册失败")
		return rsp, nil
	}
	if err := s.index.Upsert(ctx, search.UserDoc{UserID: uid, Email: in.Email, Nickname: nickname}); err != nil {
		log.Errorf(fmt.Sprintf("%s - es数据库插入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "注册失败")
		if err := s.users.EraseByID(ctx, uid); err != nil {
			log.Criticalf(fmt.Sprintf("%s - mysql回滚新用户%s失败", in.RequestID, uid), err)
		}
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) EmailLogin(ctx context.Context, in *rpc.EmailLoginReq) (*rpc.EmailLoginRsp, error) {
	rsp := &rpc.EmailLoginRsp{}
	if !checkEmail(in.Email) {
		rsp.Status = rpc.Fail(in.RequestID, "邮箱格式错误")
		return rsp, nil
	}
	u, err := s.users.ByEmail(ctx, in.Email)
	if err != nil || u == nil {
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}
	if !s.consumeVerifyCode(ctx, in.VerifyCodeID, in.VerifyCode) {
		rsp.Status = rpc.Fail(in.RequestID, "验证码错误")
		return rsp, nil
	}
	online, err := s.status.Exists(ctx, u.UserID)
	if err != nil {
		log.Errorf(fmt.Sprintf("%s - redis登录状态查询失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "登录失败")
		return rsp, nil
	}
	if online {
		rsp.Status = rpc.Fail(in.RequestID, "用户已在其它地方登录")
		return rsp, nil
	}

	ssid := ident.New()
	if err := s.session.Append(ctx, ssid, u.UserID); err != nil {
		log.Errorf(fmt.Sprintf("%s - redis会话写入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "登录失败")
		return rsp, nil
	}
	if err := s.status.Append(ctx, u.UserID); err != nil {
		log.Errorf(fmt.Sprintf("%s - redis登录状态写入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "登录失败")
		return rsp, nil
	}
	rsp.LoginSessionID = ssid
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) GetUserInfo(ctx context.Context, in *rpc.GetUserInfoReq) (*rpc.GetUserInfoRsp, error) {
	rsp := &rpc.GetUserInfoRsp{}
	u, err := s.users.ByID(ctx, in.UserID)
	if err != nil || u == nil {
		log.Error(fmt.Sprintf("%s-%s mysql数据库查询失败: 未找到用户信息", in.RequestID, in.UserID))
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}

	info := userInfoOf(u)
	if aid := u.AvatarID.String; aid != "" {
		ch, conn := s.pickFile()
		if conn == nil {
			log.Error(fmt.Sprintf("%s-%s 获取file服务失败", in.RequestID, in.UserID))
			rsp.Status = rpc.Fail(in.RequestID, "获取file服务失败")
			return rsp, nil
		}
		defer ch.Complete(conn)
		frsp, err := rpc.NewFileClient(conn).GetSingleFile(ctx, &rpc.GetSingleFileReq{
			RequestID: in.RequestID,
			FileID:    aid,
		})
		if err != nil || !frsp.Success || frsp.FileData == nil {
			log.Errorf(fmt.Sprintf("%s-%s file服务查询失败", in.RequestID, in.UserID), err)
			rsp.Status = rpc.Fail(in.RequestID, "获取头像失败")
			return rsp, nil
		}
		info.Avatar = frsp.FileData.FileContent
	}
	rsp.UserInfo = &info
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) GetMultiUserInfo(ctx context.Context, in *rpc.GetMultiUserInfoReq) (*rpc.GetMultiUserInfoRsp, error) {
	rsp := &rpc.GetMultiUserInfoRsp{}

	// Requests may repeat ids; query each distinct id once.
	dedup := make([]string, 0, len(in.UsersID))
	seen := make(map[string]struct{}, len(in.UsersID))
	for _, id := range in.UsersID {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			dedup = append(dedup, id)
		}
	}

	users, err := s.users.ByIDs(ctx, dedup)
	if err != nil || len(users) != len(dedup) {
		log.Error(fmt.Sprintf("%s - mysql数据库查询失败: 批量查找结果与要求不一致, 请求去重数量%d, 结果数量%d",
			in.RequestID, len(dedup), len(users)))
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}

	infos := make(map[string]model.UserInfo, len(users))
	avatarOf := make(map[string]string)
	avatarSeen := make(map[string]struct{})
	var avatarIDs []string
	for i := range users {
		u := &users[i]
		infos[u.UserID] = userInfoOf(u)
		if aid := u.AvatarID.String; aid != "" {
			avatarOf[u.UserID] = aid
			if _, ok := avatarSeen[aid]; !ok {
				avatarSeen[aid] = struct{}{}
				avatarIDs = append(avatarIDs, aid)
			}
		}
	}

	if len(avatarIDs) > 0 {
		files, errmsg := s.fetchAvatars(ctx, in.RequestID, avatarIDs)
		if errmsg != "" {
			rsp.Status = rpc.Fail(in.RequestID, errmsg)
			return rsp, nil
		}
		for uid, aid := range avatarOf {
			if fd, ok := files[aid]; ok {
				info := infos[uid]
				info.Avatar = fd.FileContent
				infos[uid] = info
			}
		}
	}

	rsp.UsersInfo = infos
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) SetUserAvatar(ctx context.Context, in *rpc.SetUserAvatarReq) (*rpc.SetUserAvatarRsp, error) {
	rsp := &rpc.SetUserAvatarRsp{}
	if !s.sessionValid(ctx, in.SessionID, in.UserID) {
		rsp.Status = rpc.Fail(in.RequestID, "会话无效")
		return rsp, nil
	}
	u, err := s.users.ByID(ctx, in.UserID)
	if err != nil || u == nil {
		log.Error(fmt.Sprintf("%s-%s mysql数据库查询失败: 未找到用户信息", in.RequestID, in.UserID))
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}
	oldAvatarID := u.AvatarID.String

	ch, conn := s.pickFile()
	if conn == nil {
		log.Error(fmt.Sprintf("%s - 获取file服务失败", in.RequestID))
		rsp.Status = rpc.Fail(in.RequestID, "获取file服务失败")
		return rsp, nil
	}
	defer ch.Complete(conn)
	frsp, err := rpc.NewFileClient(conn).PutSingleFile(ctx, &rpc.PutSingleFileReq{
		RequestID: in.RequestID,
		FileData: model.FileUploadData{
			FileName:    "avatar_" + in.UserID + ".jpg",
			FileSize:    int64(len(in.Avatar)),
			FileContent: in.Avatar,
		},
	})
	if err != nil || !frsp.Success || frsp.FileInfo == nil {
		log.Errorf(fmt.Sprintf("%s-%s file服务上传失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "头像上传失败")
		return rsp, nil
	}
	avatarID := frsp.FileInfo.FileID

	doc := userDocOf(u)
	doc.AvatarID = avatarID
	if err := s.index.Upsert(ctx, doc); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s es数据库更新失败: 更新用户头像失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "头像更新失败")
		return rsp, nil
	}
	u.AvatarID = db.NullStr(avatarID)
	if err := s.users.Update(ctx, u); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s mysql数据库更新失败: 更新用户头像失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "头像更新失败")
		doc.AvatarID = oldAvatarID
		if err := s.index.Upsert(ctx, doc); err != nil {
			log.Criticalf(fmt.Sprintf("%s-%s es数据库恢复头像失败", in.RequestID, in.UserID), err)
		}
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) SetUserNickname(ctx context.Context, in *rpc.SetUserNicknameReq) (*rpc.SetUserNicknameRsp, error) {
	rsp := &rpc.SetUserNicknameRsp{}
	if !s.sessionValid(ctx, in.SessionID, in.UserID) {
		rsp.Status = rpc.Fail(in.RequestID, "会话无效")
		return rsp, nil
	}
	switch s.checkNickname(ctx, in.Nickname) {
	case nicknameOK:
	case nicknameExist:
		rsp.Status = rpc.Fail(in.RequestID, "昵称已存在")
		return rsp, nil
	case nicknameStyleError:
		rsp.Status = rpc.Fail(in.RequestID, "昵称格式错误")
		return rsp, nil
	case nicknameInvalid:
		rsp.Status = rpc.Fail(in.RequestID, "昵称敏感")
		return rsp, nil
	default:
		log.Fatal("未知昵称状态")
	}
	u, err := s.users.ByID(ctx, in.UserID)
	if err != nil || u == nil {
		log.Error(fmt.Sprintf("%s-%s mysql数据库查询失败: 未找到用户信息", in.RequestID, in.UserID))
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}
	oldNickname := u.Nickname.String

	doc := userDocOf(u)
	doc.Nickname = in.Nickname
	if err := s.index.Upsert(ctx, doc); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s es数据库更新失败: 更新用户昵称失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "昵称更新失败")
		return rsp, nil
	}
	u.Nickname = db.NullStr(in.Nickname)
	if err := s.users.Update(ctx, u); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s mysql数据库更新失败: 更新用户昵称失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "昵称更新失败")
		doc.Nickname = oldNickname
		if err := s.index.Upsert(ctx, doc); err != nil {
			log.Criticalf(fmt.Sprintf("%s-%s es数据库恢复昵称失败", in.RequestID, in.UserID), err)
		}
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) SetUserDescription(ctx context.Context, in *rpc.SetUserDescriptionReq) (*rpc.SetUserDescriptionRsp, error) {
	rsp := &rpc.SetUserDescriptionRsp{}
	if !s.sessionValid(ctx, in.SessionID, in.UserID) {
		rsp.Status = rpc.Fail(in.RequestID, "会话无效")
		return rsp, nil
	}
	if descriptionTooLong(in.Description) {
		rsp.Status = rpc.Fail(in.RequestID, "签名过长")
		return rsp, nil
	}
	result, err := s.moderator.Classify(ctx, in.Description)
	if err != nil {
		log.Errorf("模型请求失败", err)
		rsp.Status = rpc.Fail(in.RequestID, "签名敏感")
		return rsp, nil
	}
	if result == classifier.NonCompliant {
		rsp.Status = rpc.Fail(in.RequestID, "签名敏感")
		return rsp, nil
	}
	u, err := s.users.ByID(ctx, in.UserID)
	if err != nil || u == nil {
		log.Error(fmt.Sprintf("%s-%s mysql数据库查询失败: 未找到用户信息", in.RequestID, in.UserID))
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}
	oldDescription := u.Description.String

	doc := userDocOf(u)
	doc.Description = in.Description
	if err := s.index.Upsert(ctx, doc); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s es数据库更新失败: 更新用户签名失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "签名更新失败")
		return rsp, nil
	}
	u.Description = db.NullStr(in.Description)
	if err := s.users.Update(ctx, u); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s mysql数据库更新失败: 更新用户签名失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "签名更新失败")
		doc.Description = oldDescription
		if err := s.index.Upsert(ctx, doc); err != nil {
			log.Criticalf(fmt.Sprintf("%s-%s es数据库恢复签名失败", in.RequestID, in.UserID), err)
		}
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) SetUserEmail(ctx context.Context, in *rpc.SetUserEmailReq) (*rpc.SetUserEmailRsp, error) {
	rsp := &rpc.SetUserEmailRsp{}
	if !s.sessionValid(ctx, in.SessionID, in.UserID) {
		rsp.Status = rpc.Fail(in.RequestID, "会话无效")
		return rsp, nil
	}
	if !checkEmail(in.Email) {
		rsp.Status = rpc.Fail(in.RequestID, "邮箱格式错误")
		return rsp, nil
	}
	if !s.consumeVerifyCode(ctx, in.EmailVerifyCodeID, in.EmailVerifyCode) {
		rsp.Status = rpc.Fail(in.RequestID, "验证码错误")
		return rsp, nil
	}
	u, err := s.users.ByID(ctx, in.UserID)
	if err != nil || u == nil {
		log.Error(fmt.Sprintf("%s-%s mysql数据库查询失败: 未找到用户信息", in.RequestID, in.UserID))
		rsp.Status = rpc.Fail(in.RequestID, "用户不存在")
		return rsp, nil
	}
	oldEmail := u.Email.String

	doc := userDocOf(u)
	doc.Email = in.Email
	if err := s.index.Upsert(ctx, doc); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s es数据库更新失败: 更新用户邮箱失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "邮箱更新失败")
		return rsp, nil
	}
	u.Email = db.NullStr(in.Email)
	if err := s.users.Update(ctx, u); err != nil {
		log.Errorf(fmt.Sprintf("%s-%s mysql数据库更新失败: 更新用户邮箱失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "邮箱更新失败")
		doc.Email = oldEmail
		if err := s.index.Upsert(ctx, doc); err != nil {
			log.Criticalf(fmt.Sprintf("%s-%s es数据库恢复邮箱失败", in.RequestID, in.UserID), err)
		}
		return rsp, nil
	}
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}

func (s *Server) UserSearch(ctx context.Context, in *rpc.UserSearchReq) (*rpc.UserSearchRsp, error) {
	rsp := &rpc.UserSearchRsp{}

	// Callers never see themselves in results.
	docs, err := s.index.Search(ctx, in.SearchKey, []string{in.UserID})
	if err != nil {
		log.Errorf(fmt.Sprintf("%s-%s es数据库搜索失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "搜索用户失败")
		return rsp, nil
	}

	infos := make([]model.UserInfo, len(docs))
	avatarSeen := make(map[string]struct{})
	var avatarIDs []string
	for i, d := range docs {
		infos[i] = model.UserInfo{
			UserID:      d.UserID,
			Nickname:    d.Nickname,
			Description: d.Description,
			Email:       d.Email,
		}
		if d.AvatarID != "" {
			if _, ok := avatarSeen[d.AvatarID]; !ok {
				avatarSeen[d.AvatarID] = struct{}{}
				avatarIDs = append(avatarIDs, d.AvatarID)
			}
		}
	}

	if len(avatarIDs) > 0 {
		files, errmsg := s.fetchAvatars(ctx, in.RequestID, avatarIDs)
		if errmsg != "" {
			rsp.Status = rpc.Fail(in.RequestID, errmsg)
			return rsp, nil
		}
		for i, d := range docs {
			if d.AvatarID == "" {
				continue
			}
			if fd, ok := files[d.AvatarID]; ok {
				infos[i].Avatar = fd.FileContent
			}
		}
	}

	rsp.UserInfo = infos
	rsp.Status = rpc.OK(in.RequestID)
	return rsp, nil
}
