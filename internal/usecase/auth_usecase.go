package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	auth "storefront/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, name string, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string) error
	ValidateForceLogout(ctx context.Context, targetUserID int64) error
}

type UserDTO struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	TokenVersion int        `json:"token_version"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

// handlerがCookieに詰める値も一緒に返す
type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	RefreshExpiresAt  time.Time
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	RefreshTokenPlain string
	RefreshExpiresAt  time.Time
}

type AuthUsecase struct {
	users      repo.UserRepository
	rtRepo     repo.RefreshTokenRepository
	audits     repo.AuditLogRepository
	validator  AuthValidator
	hasher     auth.PasswordHasher
	verifier   auth.PasswordVerifier
	issuer     auth.AccessTokenIssuer
	idGen      auth.IDGenerator
	clock      Clock
	refreshTTL time.Duration
}

func NewAuthUsecase(
	users repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	audits repo.AuditLogRepository,
	validator AuthValidator,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	issuer auth.AccessTokenIssuer,
	idGen auth.IDGenerator,
	clock Clock,
	refreshTTL time.Duration,
) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		rtRepo:     rtRepo,
		audits:     audits,
		validator:  validator,
		hasher:     hasher,
		verifier:   verifier,
		issuer:     issuer,
		idGen:      idGen,
		clock:      clock,
		refreshTTL: refreshTTL,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*UserDTO, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Name, req.Email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, ErrInternal
	}

	now := u.clock.Now()
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         model.RoleCustomer,
		TokenVersion: 0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, ErrInternal
	}

	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, userAgent string) (*LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil || user == nil {
		return nil, ErrInternal
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}
	if !u.verifier.Verify(req.Password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}

	now := u.clock.Now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		zap.L().Warn("update last_login_at failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	token, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, ErrInternal
	}
	plain, exp, err := u.storeRefreshToken(ctx, user.ID, userAgent, now)
	if err != nil {
		return nil, ErrInternal
	}

	return &LoginResult{
		Body:              AuthLoginResponse{User: toUserDTO(user), Token: token},
		RefreshTokenPlain: plain,
		RefreshExpiresAt:  exp,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, actor model.Actor) (*UserDTO, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	user, err := u.users.FindByID(ctx, actor.UserID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// ローテーション。使用済みが再提示されたら全セッションを破棄する。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain); err != nil {
		return nil, err
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, auth.HashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, ErrUnauthorized
	}

	now := u.clock.Now()
	//期限切れ
	if rt.ExpiresAt.Before(now) {
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return nil, ErrUnauthorized
	}
	if rt.RevokedAt != nil {
		return nil, ErrUnauthorized
	}
	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}
	//user_agent違いも再認証扱い
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}

	plain, exp, err := u.storeRefreshToken(ctx, user.ID, userAgent, now)
	if err != nil {
		return nil, ErrInternal
	}
	token, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, ErrInternal
	}

	return &RefreshResult{Body: token, RefreshTokenPlain: plain, RefreshExpiresAt: exp}, nil
}

// Cookieが無くても成功扱い（handler側でCookieを消す）
func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) (*SuccessResponse, error) {
	if strings.TrimSpace(refreshTokenPlain) != "" {
		rt, err := u.rtRepo.FindByTokenHash(ctx, auth.HashToken(refreshTokenPlain))
		if err == nil && rt != nil {
			if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil {
				return nil, ErrInternal
			}
		} else if err != nil && !errors.Is(err, repo.ErrRefreshTokenNotFound) {
			return nil, ErrInternal
		}
	}
	return &SuccessResponse{Message: "logout success"}, nil
}

// token_versionを上げて既存のアクセストークンを無効化し、refreshも全削除
func (u *AuthUsecase) ForceLogout(ctx context.Context, actor model.Actor, targetUserID int64) (*ForceLogoutResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, err
	}

	before, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil || before == nil {
		return nil, ErrInternal
	}
	prevVersion := before.TokenVersion

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return nil, ErrInternal
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return nil, ErrInternal
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return nil, ErrInternal
	}

	if err := u.audits.Create(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   auditJSON(map[string]int{"token_version": prevVersion}),
		AfterJSON:    auditJSON(map[string]int{"token_version": user.TokenVersion}),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		zap.L().Warn("audit force logout failed", zap.Int64("user_id", targetUserID), zap.Error(err))
	}

	return &ForceLogoutResponse{UserID: user.ID, NewTokenVersion: user.TokenVersion}, nil
}

func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (JwtAccessTokenDTO, error) {
	token, exp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return JwtAccessTokenDTO{}, err
	}
	return JwtAccessTokenDTO{
		AccessToken:  token,
		ExpiresIn:    int(exp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}, nil
}

// DBにはhashだけ保存する
func (u *AuthUsecase) storeRefreshToken(ctx context.Context, userID int64, userAgent string, now time.Time) (string, time.Time, error) {
	plain, hash, err := auth.NewRefreshToken()
	if err != nil {
		return "", time.Time{}, err
	}
	exp := now.Add(u.refreshTTL)
	if err := u.rtRepo.Create(ctx, &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    userID,
		TokenHash: hash,
		UserAgent: userAgent,
		ExpiresAt: exp,
		CreatedAt: now,
	}); err != nil {
		return "", time.Time{}, err
	}
	return plain, exp, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
	}
}
