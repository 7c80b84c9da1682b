package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// usecaseへはActorだけを渡す
const CtxActorKey = "actor" // model.Actor

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			rawToken, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//署名・期限・claimsを検証してActorを組み立てる
			actor, err := auth.ParseAccessToken(cfg.JWTSecret, rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxActorKey, actor)

			return next(c)
		}
	}
}

// AuthJWTが無いルートではゼロ値（未認証）を返す
func ActorFrom(c echo.Context) model.Actor {
	a, _ := c.Get(CtxActorKey).(model.Actor)
	return a
}

func bearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
