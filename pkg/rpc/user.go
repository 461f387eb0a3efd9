package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/breezechat/breeze/pkg/model"
)

// UserServiceName is the registered gRPC service name for account and
// profile operations.
const UserServiceName = "breeze.UserService"

// UserService is the server-side contract implemented by pkg/user.
type UserService interface {
	UserRegister(ctx context.Context, in *UserRegisterReq) (*UserRegisterRsp, error)
	UserLogin(ctx context.Context, in *UserLoginReq) (*UserLoginRsp, error)
	GetEmailVerifyCode(ctx context.Context, in *EmailVerifyCodeReq) (*EmailVerifyCodeRsp, error)
	EmailRegister(ctx context.Context, in *EmailRegisterReq) (*EmailRegisterRsp, error)
	EmailLogin(ctx context.Context, in *EmailLoginReq) (*EmailLoginRsp, error)
	GetUserInfo(ctx context.Context, in *GetUserInfoReq) (*GetUserInfoRsp, error)
	GetMultiUserInfo(ctx context.Context, in *GetMultiUserInfoReq) (*GetMultiUserInfoRsp, error)
	SetUserAvatar(ctx context.Context, in *SetUserAvatarReq) (*SetUserAvatarRsp, error)
	SetUserNickname(ctx context.Context, in *SetUserNicknameReq) (*SetUserNicknameRsp, error)
	SetUserDescription(ctx context.Context, in *SetUserDescriptionReq) (*SetUserDescriptionRsp, error)
	SetUserEmail(ctx context.Context, in *SetUserEmailReq) (*SetUserEmailRsp, error)
	UserSearch(ctx context.Context, in *UserSearchReq) (*UserSearchRsp, error)
}

type UserRegisterReq struct {
	RequestID string `json:"request_id"`
	Nickname  string `json:"nickname"`
	Password  string `json:"password"`
}

type UserRegisterRsp struct {
	Status
}

type UserLoginReq struct {
	RequestID string `json:"request_id"`
	Nickname  string `json:"nickname"`
	Password  string `json:"password"`
}

type UserLoginRsp struct {
	Status
	LoginSessionID string `json:"login_session_id,omitempty"`
}

type EmailVerifyCodeReq struct {
	RequestID string `json:"request_id"`
	Email     string `json:"email"`
}

type EmailVerifyCodeRsp struct {
	Status
	VerifyCodeID string `json:"verify_code_id,omitempty"`
}

type EmailRegisterReq struct {
	RequestID    string `json:"request_id"`
	Email        string `json:"email"`
	VerifyCodeID string `json:"verify_code_id"`
	VerifyCode   string `json:"verify_code"`
}

type EmailRegisterRsp struct {
	Status
}

type EmailLoginReq struct {
	RequestID    string `json:"request_id"`
	Email        string `json:"email"`
	VerifyCodeID string `json:"verify_code_id"`
	VerifyCode   string `json:"verify_code"`
}

type EmailLoginRsp struct {
	Status
	LoginSessionID string `json:"login_session_id,omitempty"`
}

type GetUserInfoReq struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
}

type GetUserInfoRsp struct {
	Status
	UserInfo *model.UserInfo `json:"user_info,omitempty"`
}

type GetMultiUserInfoReq struct {
	RequestID string   `json:"request_id"`
	UsersID   []string `json:"users_id"`
}

type GetMultiUserInfoRsp struct {
	Status
	UsersInfo map[string]model.UserInfo `json:"users_info,omitempty"`
}

type SetUserAvatarReq struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Avatar    []byte `json:"avatar"`
}

type SetUserAvatarRsp struct {
	Status
}

type SetUserNicknameReq struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Nickname  string `json:"nickname"`
}

type SetUserNicknameRsp struct {
	Status
}

type SetUserDescriptionReq struct {
	RequestID   string `json:"request_id"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
}

type SetUserDescriptionRsp struct {
	Status
}

type SetUserEmailReq struct {
	RequestID         string `json:"request_id"`
	UserID            string `json:"user_id"`
	SessionID         string `json:"session_id"`
	Email             string `json:"email"`
	EmailVerifyCodeID string `json:"email_verify_code_id"`
	EmailVerifyCode   string `json:"email_verify_code"`
}

type SetUserEmailRsp struct {
	Status
}

type UserSearchReq struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	SearchKey string `json:"search_key"`
}

type UserSearchRsp struct {
	Status
	UserInfo []model.UserInfo `json:"user_info,omitempty"`
}

// UserServiceDesc wires UserService methods into a gRPC server.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UserRegister",
			Handler: handler[UserService, UserRegisterReq]("/breeze.UserService/UserRegister", func(s UserService, ctx context.Context, in *UserRegisterReq) (interface{}, error) {
				return s.UserRegister(ctx, in)
			}),
		},
		{
			MethodName: "UserLogin",
			Handler: handler[UserService, UserLoginReq]("/breeze.UserService/UserLogin", func(s UserService, ctx context.Context, in *UserLoginReq) (interface{}, error) {
				return s.UserLogin(ctx, in)
			}),
		},
		{
			MethodName: "GetEmailVerifyCode",
			Handler: handler[UserService, EmailVerifyCodeReq]("/breeze.UserService/GetEmailVerifyCode", func(s UserService, ctx context.Context, in *EmailVerifyCodeReq) (interface{}, error) {
				return s.GetEmailVerifyCode(ctx, in)
			}),
		},
		{
			MethodName: "EmailRegister",
			Handler: handler[UserService, EmailRegisterReq]("/breeze.UserService/EmailRegister", func(s UserService, ctx context.Context, in *EmailRegisterReq) (interface{}, error) {
				return s.EmailRegister(ctx, in)
			}),
		},
		{
			MethodName: "EmailLogin",
			Handler: handler[UserService, EmailLoginReq]("/breeze.UserService/EmailLogin", func(s UserService, ctx context.Context, in *EmailLoginReq) (interface{}, error) {
				return s.EmailLogin(ctx, in)
			}),
		},
		{
			MethodName: "GetUserInfo",
			Handler: handler[UserService, GetUserInfoReq]("/breeze.UserService/GetUserInfo", func(s UserService, ctx context.Context, in *GetUserInfoReq) (interface{}, error) {
				return s.GetUserInfo(ctx, in)
			}),
		},
		{
			MethodName: "GetMultiUserInfo",
			Handler: handler[UserService, GetMultiUserInfoReq]("/breeze.UserService/GetMultiUserInfo", func(s UserService, ctx context.Context, in *GetMultiUserInfoReq) (interface{}, error) {
				return s.GetMultiUserInfo(ctx, in)
			}),
		},
		{
			MethodName: "SetUserAvatar",
			Handler: handler[UserService, SetUserAvatarReq]("/breeze.UserService/SetUserAvatar", func(s UserService, ctx context.Context, in *SetUserAvatarReq) (interface{}, error) {
				return s.SetUserAvatar(ctx, in)
			}),
		},
		{
			MethodName: "SetUserNickname",
			Handler: handler[UserService, SetUserNicknameReq]("/breeze.UserService/SetUserNickname", func(s UserService, ctx context.Context, in *SetUserNicknameReq) (interface{}, error) {
				return s.SetUserNickname(ctx, in)
			}),
		},
		{
			MethodName: "SetUserDescription",
			Handler: handler[UserService, SetUserDescriptionReq]("/breeze.UserService/SetUserDescription", func(s UserService, ctx context.Context, in *SetUserDescriptionReq) (interface{}, error) {
				return s.SetUserDescription(ctx, in)
			}),
		},
		{
			MethodName: "SetUserEmail",
			Handler: handler[UserService, SetUserEmailReq]("/breeze.UserService/SetUserEmail", func(s UserService, ctx context.Context, in *SetUserEmailReq) (interface{}, error) {
				return s.SetUserEmail(ctx, in)
			}),
		},
		{
			MethodName: "UserSearch",
			Handler: handler[UserService, UserSearchReq]("/breeze.UserService/UserSearch", func(s UserService, ctx context.Context, in *UserSearchReq) (interface{}, error) {
				return s.UserSearch(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterUserService registers impl under the breeze.UserService name.
func RegisterUserService(s grpc.ServiceRegistrar, impl UserService) {
	s.RegisterService(&UserServiceDesc, impl)
}

// UserClient calls a user service instance over any client conn.
type UserClient struct {
	cc grpc.ClientConnInterface
}

func NewUserClient(cc grpc.ClientConnInterface) *UserClient {
	return &UserClient{cc: cc}
}

func (c *UserClient) UserRegister(ctx context.Context, in *UserRegisterReq) (*UserRegisterRsp, error) {
	return invoke[UserRegisterRsp](ctx, c.cc, "/breeze.UserService/UserRegister", in)
}

func (c *UserClient) UserLogin(ctx context.Context, in *UserLoginReq) (*UserLoginRsp, error) {
	return invoke[UserLoginRsp](ctx, c.cc, "/breeze.UserService/UserLogin", in)
}

func (c *UserClient) GetEmailVerifyCode(ctx context.Context, in *EmailVerifyCodeReq) (*EmailVerifyCodeRsp, error) {
	return invoke[EmailVerifyCodeRsp](ctx, c.cc, "/breeze.UserService/GetEmailVerifyCode", in)
}

func (c *UserClient) EmailRegister(ctx context.Context, in *EmailRegisterReq) (*EmailRegisterRsp, error) {
	return invoke[EmailRegisterRsp](ctx, c.cc, "/breeze.UserService/EmailRegister", in)
}

func (c *UserClient) EmailLogin(ctx context.Context, in *EmailLoginReq) (*EmailLoginRsp, error) {
	return invoke[EmailLoginRsp](ctx, c.cc, "/breeze.UserService/EmailLogin", in)
}

func (c *UserClient) GetUserInfo(ctx context.Context, in *GetUserInfoReq) (*GetUserInfoRsp, error) {
	return invoke[GetUserInfoRsp](ctx, c.cc, "/breeze.UserService/GetUserInfo", in)
}

func (c *UserClient) GetMultiUserInfo(ctx context.Context, in *GetMultiUserInfoReq) (*GetMultiUserInfoRsp, error) {
	return invoke[GetMultiUserInfoRsp](ctx, c.cc, "/breeze.UserService/GetMultiUserInfo", in)
}

func (c *UserClient) SetUserAvatar(ctx context.Context, in *SetUserAvatarReq) (*SetUserAvatarRsp, error) {
	return invoke[SetUserAvatarRsp](ctx, c.cc, "/breeze.UserService/SetUserAvatar", in)
}

func (c *UserClient) SetUserNickname(ctx context.Context, in *SetUserNicknameReq) (*SetUserNicknameRsp, error) {
	return invoke[SetUserNicknameRsp](ctx, c.cc, "/breeze.UserService/SetUserNickname", in)
}

func (c *UserClient) SetUserDescription(ctx context.Context, in *SetUserDescriptionReq) (*SetUserDescriptionRsp, error) {
	return invoke[SetUserDescriptionRsp](ctx, c.cc, "/breeze.UserService/SetUserDescription", in)
}

func (c *UserClient) SetUserEmail(ctx context.Context, in *SetUserEmailReq) (*SetUserEmailRsp, error) {
	return invoke[SetUserEmailRsp](ctx, c.cc, "/breeze.UserService/SetUserEmail", in)
}

func (c *UserClient) UserSearch(ctx context.Context, in *UserSearchReq) (*UserSearchRsp, error) {
	return invoke[UserSearchRsp](ctx, c.cc, "/breeze.UserService/UserSearch", in)
}
