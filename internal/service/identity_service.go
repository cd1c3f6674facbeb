package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/albumy/internal/mailer"
	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/logger"
	"github.com/d60-Lab/albumy/pkg/token"
)

// MailQueue 邮件协作方；只负责接收逻辑事件，投递在进程外完成
type MailQueue interface {
	Enqueue(msg mailer.Message)
}

type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
}

// NotificationSettings 通知偏好
type NotificationSettings struct {
	ReceiveComment bool `json:"receive_comment_notification"`
	ReceiveCollect bool `json:"receive_collect_notification"`
}

// IdentityService 注册、登录、邮箱确认与找回密码
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	// Authenticate 校验访问令牌并重新加载用户，供鉴权中间件使用
	Authenticate(ctx context.Context, accessToken string) (Actor, error)
	Confirm(ctx context.Context, actor Actor, raw string) error
	ResendConfirm(ctx context.Context, actor Actor) error
	ForgetPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, raw, email, newPassword string) error
	UpdateNotificationSettings(ctx context.Context, actor Actor, in NotificationSettings) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// IdentityOptions 注册策略
type IdentityOptions struct {
	AdminEmail string
	BcryptCost int
}

type identityService struct {
	base
	tokens *token.Manager
	mail   MailQueue
	opts   IdentityOptions
}

func NewIdentityService(store *repository.Store, timeout time.Duration, tokens *token.Manager, mail MailQueue, opts IdentityOptions) IdentityService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &identityService{base: newBase(store, timeout), tokens: tokens, mail: mail, opts: opts}
}

// Register 新账号默认未确认，确认令牌交给邮件协作方
func (s *identityService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Username == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	role := model.RoleUser
	if s.opts.AdminEmail != "" && strings.EqualFold(email, s.opts.AdminEmail) {
		role = model.RoleAdministrator
	}
	u := &model.User{
		Name:                       in.Name,
		Email:                      email,
		Username:                   in.Username,
		PasswordHash:               string(hash),
		Role:                       role,
		ReceiveCommentNotification: true,
		ReceiveCollectNotification: true,
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()
	if taken, err := s.store.Users.EmailExists(ctx, email); err != nil {
		return nil, storeErr(err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.store.Users.UsernameExists(ctx, in.Username); err != nil {
		return nil, storeErr(err)
	} else if taken {
		return nil, ErrUsernameTaken
	}
	err = s.store.Users.Create(ctx, u)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 检查与插入之间被并发注册抢先，由唯一索引拦下后回查冲突列
		err = s.duplicateUserErr(ctx, email)
	}
	if err = storeErr(err); err != nil {
		return nil, err
	}

	s.sendToken(u, token.PurposeConfirm)
	logger.Info("user registered", zap.String("user", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *identityService) duplicateUserErr(ctx context.Context, email string) error {
	taken, err := s.store.Users.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func (s *identityService) sendToken(u *model.User, purpose token.Purpose) {
	raw, err := s.tokens.Issue(u.ID, purpose, u.Email)
	if err != nil {
		logger.Error("issue token failed", zap.Error(err), zap.String("user", u.ID))
		return
	}
	if s.mail != nil {
		s.mail.Enqueue(mailer.Message{To: u.Email, Username: u.Username, Token: raw, Purpose: string(purpose)})
	}
}

func (s *identityService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	u, err := s.store.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if err = storeErr(err); errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if u.Role == model.RoleLocked {
		return "", nil, ErrLocked
	}
	raw, err := s.tokens.Issue(u.ID, token.PurposeAccess, "")
	if err != nil {
		return "", nil, err
	}
	return raw, u, nil
}

func (s *identityService) Authenticate(ctx context.Context, accessToken string) (Actor, error) {
	claims, err := s.tokens.Parse(accessToken, token.PurposeAccess)
	if err != nil {
		return Anonymous, ErrInvalidToken
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	u, err := s.store.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		if err = storeErr(err); errors.Is(err, ErrNotFound) {
			return Anonymous, ErrInvalidToken
		}
		return Anonymous, err
	}
	return ActorFromUser(u), nil
}

func (s *identityService) Confirm(ctx context.Context, actor Actor, raw string) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	if actor.Confirmed {
		return ErrAlreadyConfirmed
	}
	claims, err := s.tokens.Parse(raw, token.PurposeConfirm)
	if err != nil || claims.Subject != actor.ID {
		return ErrInvalidToken
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	return storeErr(s.store.Users.Update(ctx, actor.ID, map[string]any{"confirmed": true}))
}

func (s *identityService) ResendConfirm(ctx context.Context, actor Actor) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	if actor.Confirmed {
		return ErrAlreadyConfirmed
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	u, err := s.store.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return storeErr(err)
	}
	s.sendToken(u, token.PurposeConfirm)
	return nil
}

func (s *identityService) ForgetPassword(ctx context.Context, email string) error {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	u, err := s.store.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return storeErr(err)
	}
	s.sendToken(u, token.PurposeResetPassword)
	return nil
}

func (s *identityService) ResetPassword(ctx context.Context, raw, email, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	claims, err := s.tokens.Parse(raw, token.PurposeResetPassword)
	if err != nil {
		return ErrInvalidToken
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	u, err := s.store.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if err = storeErr(err); errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if claims.Subject != u.ID {
		return ErrInvalidToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.opts.BcryptCost)
	if err != nil {
		return err
	}
	return storeErr(s.store.Users.Update(ctx, u.ID, map[string]any{"password_hash": string(hash)}))
}

func (s *identityService) UpdateNotificationSettings(ctx context.Context, actor Actor, in NotificationSettings) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	return storeErr(s.store.Users.Update(ctx, actor.ID, map[string]any{
		"receive_comment_notification": in.ReceiveComment,
		"receive_collect_notification": in.ReceiveCollect,
	}))
}

func (s *identityService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	u, err := s.store.Users.GetByUsername(ctx, username)
	return u, storeErr(err)
}
