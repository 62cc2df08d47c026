package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stock_portfolio/internal/feature/auth/domain/entity"

	"golang.org/x/crypto/bcrypt"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8
	// MaxSessionsPerUser はユーザーごとに保持するアクティブセッションの上限です。
	MaxSessionsPerUser = 5
	// DefaultSessionTTL はブラウザセッションの既定の有効期間（2週間）です。
	DefaultSessionTTL = 14 * 24 * time.Hour
	// sessionIDBytes はセッションIDの乱数バイト数です（16進で64文字）。
	sessionIDBytes = 32
)

// ユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュ
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// TokenGenerator はJWTトークン生成のインターフェースを定義します。
type TokenGenerator interface {
	GenerateToken(userID uint, email string) (string, error)
}

// AuthUsecase はアカウント登録、ログイン、セッション管理を実装します。
type AuthUsecase struct {
	users      UserRepository
	sessions   SessionRepository
	tokens     TokenGenerator
	sessionTTL time.Duration
}

// NewAuthUsecase はAuthUsecaseの新しいインスタンスを生成します。
// sessionTTL が0以下の場合はDefaultSessionTTLを使用します。
func NewAuthUsecase(users UserRepository, sessions SessionRepository, tokens TokenGenerator, sessionTTL time.Duration) *AuthUsecase {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthUsecase{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録します。
func (u *AuthUsecase) Signup(ctx context.Context, email, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{Email: normalizeEmail(email), Password: string(hashed)}
	return u.users.Create(ctx, user)
}

// Authenticate はメールアドレスとパスワードを検証し、ユーザーを返します。
// ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *AuthUsecase) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := u.users.FindByEmail(ctx, normalizeEmail(email))

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login は認証に成功したユーザーの新しいブラウザセッションを開始します。
func (u *AuthUsecase) Login(ctx context.Context, email, password, userAgent, ip string) (*entity.Session, error) {
	user, err := u.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return u.startSession(ctx, user.ID, userAgent, ip)
}

// startSession は新しいセッションを保存します。上限を超えた古いセッションはストアが削除します。
func (u *AuthUsecase) startSession(ctx context.Context, userID uint, userAgent, ip string) (*entity.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	session := &entity.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ip,
		CreatedAt: now,
		ExpiresAt: now.Add(u.sessionTTL),
	}
	evicted, err := u.sessions.Save(ctx, session, MaxSessionsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if evicted > 0 {
		slog.Info("oldest sessions evicted", "user_id", userID, "count", evicted)
	}
	return session, nil
}

// ResolveSession はセッションIDから有効なユーザーを取得します。
func (u *AuthUsecase) ResolveSession(ctx context.Context, sessionID string) (*entity.User, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsRevoked() {
		return nil, ErrSessionRevoked
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return u.users.FindByID(ctx, session.UserID)
}

// FindUser は正規化したメールアドレスでユーザーを取得します。
func (u *AuthUsecase) FindUser(ctx context.Context, email string) (*entity.User, error) {
	return u.users.FindByEmail(ctx, normalizeEmail(email))
}

// UserByID はIDでユーザーを取得します。Bearerトークンの解決に使われます。
func (u *AuthUsecase) UserByID(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// Logout はセッションを失効させます。存在しないセッションは成功扱いです。
func (u *AuthUsecase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := u.sessions.Revoke(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// IssueToken はユーザーを認証し、API用の署名済みJWTトークンを返します。
func (u *AuthUsecase) IssueToken(ctx context.Context, email, password string) (string, error) {
	user, err := u.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	token, err := u.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// RevokeUserSessions はユーザーのすべての有効なセッションを失効させ、件数を返します。
// 次のリクエストから全端末でログイン画面へ戻されます。
func (u *AuthUsecase) RevokeUserSessions(ctx context.Context, email string) (int64, error) {
	user, err := u.FindUser(ctx, email)
	if err != nil {
		return 0, err
	}
	n, err := u.sessions.RevokeUser(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	slog.Info("user sessions revoked", "user_id", user.ID, "count", n)
	return n, nil
}

// PurgeExpiredSessions は期限切れと失効済みのセッションを削除し、削除件数を返します。
func (u *AuthUsecase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := u.sessions.Purge(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("stale sessions purged", "count", n)
	}
	return n, nil
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
