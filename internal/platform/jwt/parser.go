package jwtmw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret はサーバー側で JWT_SECRET が設定されていないことを示します。
	ErrMissingSecret = errors.New("jwt secret is not configured")
	// ErrInvalidToken は署名・期限・クレームのいずれかが不正なトークンを示します。
	ErrInvalidToken = errors.New("invalid token")
)

// Parser はGeneratorが発行したトークンを検証します。
type Parser struct {
	secret []byte
}

// NewParser は指定された秘密鍵でParserを生成します。
func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// ParseToken はトークンを検証し、subクレームのユーザーIDを返します。
func (p *Parser) ParseToken(tokenStr string) (uint, error) {
	if len(p.secret) == 0 {
		return 0, ErrMissingSecret
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// HMAC 以外のアルゴリズムは拒否する
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	// JWT の数値は float64 としてデコードされる
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, ErrInvalidToken
	}
	return uint(sub), nil
}

// BearerToken は Authorization ヘッダーから Bearer トークンを取り出します。
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return tok, tok != ""
}
