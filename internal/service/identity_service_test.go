package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/albumy/internal/mailer"
	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/pkg/token"
)

type memoryMail struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *memoryMail) Enqueue(msg mailer.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

func (m *memoryMail) last(t *testing.T) mailer.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

func newIdentity(f *fixture) (IdentityService, *memoryMail) {
	mail := &memoryMail{}
	tokens := token.NewManager("test-secret", time.Hour, time.Hour)
	svc := NewIdentityService(f.store, testTimeout, tokens, mail, IdentityOptions{
		AdminEmail: "Admin@Example.com",
		BcryptCost: bcrypt.MinCost,
	})
	return svc, mail
}

func register(t *testing.T, f *fixture, svc IdentityService, username string) *model.User {
	t.Helper()
	u, err := svc.Register(f.ctx, RegisterInput{
		Name: username, Email: username + "@Example.com", Username: username, Password: "secret",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	svc, mail := newIdentity(f)

	u := register(t, f, svc, "alice")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.False(t, u.Confirmed)
	assert.True(t, u.ReceiveCommentNotification)
	assert.True(t, u.ReceiveCollectNotification)
	assert.NotEqual(t, "secret", u.PasswordHash)

	msg := mail.last(t)
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, string(token.PurposeConfirm), msg.Purpose)

	admin, err := svc.Register(f.ctx, RegisterInput{Email: "admin@example.com", Username: "root", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdministrator, admin.Role)
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	svc, _ := newIdentity(f)
	register(t, f, svc, "alice")

	_, err := svc.Register(f.ctx, RegisterInput{Email: "ALICE@example.com", Username: "other", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = svc.Register(f.ctx, RegisterInput{Email: "new@example.com", Username: "alice", Password: "x"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = svc.Register(f.ctx, RegisterInput{Email: "", Username: "x", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualValues(t, 1, f.count(&model.User{}, ""))
}

// insertRivalUser 在 Register 通过存在性检查之后、INSERT 之前提交一个冲突用户
func insertRivalUser(t *testing.T, f *fixture, email, username string) {
	t.Helper()
	fired := false
	err := f.db.Callback().Create().Before("gorm:begin_transaction").Register("test:rival_user", func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "users" {
			return
		}
		fired = true
		rival := &model.User{ID: model.NewID(), Email: email, Username: username, PasswordHash: "x", Role: model.RoleUser}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(rival).Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.db.Callback().Create().Remove("test:rival_user") })
}

func TestRegisterRaceMapsUniqueViolation(t *testing.T) {
	tests := []struct {
		name            string
		email, username string
		want            error
	}{
		{"email", "alice@example.com", "rival", ErrEmailTaken},
		{"username", "rival@example.com", "alice", ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc, mail := newIdentity(f)
			insertRivalUser(t, f, tt.email, tt.username)

			_, err := svc.Register(f.ctx, RegisterInput{Email: "alice@example.com", Username: "alice", Password: "secret"})
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrStore)
			assert.Empty(t, mail.sent)
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc, _ := newIdentity(f)
	u := register(t, f, svc, "alice")

	raw, got, err := svc.Login(f.ctx, "Alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	actor, err := svc.Authenticate(f.ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)
	assert.Equal(t, "alice", actor.Username)
	assert.False(t, actor.Confirmed)

	_, _, err = svc.Login(f.ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(f.ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(f.ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginLocked(t *testing.T) {
	f := newFixture(t)
	svc, _ := newIdentity(f)
	u := register(t, f, svc, "alice")
	require.NoError(t, f.store.Users.Update(f.ctx, u.ID, map[string]any{"role": model.RoleLocked}))

	_, _, err := svc.Login(f.ctx, "alice@example.com", "secret")
	assert.ErrorIs(t, err, ErrLocked)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	svc, mail := newIdentity(f)
	a := register(t, f, svc, "alice")
	confirmToken := mail.last(t).Token
	b := register(t, f, svc, "bob")

	assert.ErrorIs(t, svc.Confirm(f.ctx, asActor(b), confirmToken), ErrInvalidToken, "token bound to another user")
	assert.ErrorIs(t, svc.Confirm(f.ctx, Anonymous, confirmToken), ErrForbidden)
	require.NoError(t, svc.Confirm(f.ctx, asActor(a), confirmToken))

	reloaded, err := f.store.Users.GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Confirmed)
	assert.ErrorIs(t, svc.Confirm(f.ctx, asActor(reloaded), confirmToken), ErrAlreadyConfirmed)
	assert.ErrorIs(t, svc.ResendConfirm(f.ctx, asActor(reloaded)), ErrAlreadyConfirmed)
}

func TestResendConfirm(t *testing.T) {
	f := newFixture(t)
	svc, mail := newIdentity(f)
	a := register(t, f, svc, "alice")

	require.NoError(t, svc.ResendConfirm(f.ctx, asActor(a)))
	assert.Len(t, mail.sent, 2)
	assert.Equal(t, string(token.PurposeConfirm), mail.last(t).Purpose)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	svc, mail := newIdentity(f)
	a := register(t, f, svc, "alice")
	register(t, f, svc, "bob")
	confirmToken := mail.sent[0].Token

	assert.ErrorIs(t, svc.ForgetPassword(f.ctx, "nobody@example.com"), ErrNotFound)
	require.NoError(t, svc.ForgetPassword(f.ctx, "alice@example.com"))
	msg := mail.last(t)
	assert.Equal(t, string(token.PurposeResetPassword), msg.Purpose)

	assert.ErrorIs(t, svc.ResetPassword(f.ctx, confirmToken, a.Email, "new"), ErrInvalidToken, "confirm token cannot reset")
	assert.ErrorIs(t, svc.ResetPassword(f.ctx, msg.Token, "bob@example.com", "new"), ErrInvalidToken)
	assert.ErrorIs(t, svc.ResetPassword(f.ctx, msg.Token, a.Email, ""), ErrInvalidInput)
	require.NoError(t, svc.ResetPassword(f.ctx, msg.Token, a.Email, "fresh"))

	_, _, err := svc.Login(f.ctx, a.Email, "fresh")
	assert.NoError(t, err)
	_, _, err = svc.Login(f.ctx, a.Email, "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateNotificationSettings(t *testing.T) {
	f := newFixture(t)
	svc, _ := newIdentity(f)
	a := register(t, f, svc, "alice")

	require.NoError(t, svc.UpdateNotificationSettings(f.ctx, asActor(a), NotificationSettings{ReceiveComment: false, ReceiveCollect: true}))
	got, err := svc.GetByUsername(f.ctx, "alice")
	require.NoError(t, err)
	assert.False(t, got.ReceiveCommentNotification)
	assert.True(t, got.ReceiveCollectNotification)

	assert.ErrorIs(t, svc.UpdateNotificationSettings(f.ctx, Anonymous, NotificationSettings{}), ErrForbidden)
	_, err = svc.GetByUsername(f.ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
