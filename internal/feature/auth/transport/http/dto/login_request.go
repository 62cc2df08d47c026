// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// LoginReq はログインフォームおよびトークン発行のリクエストを表します。
// フォーム送信とJSONの両方でバインドできます。
type LoginReq struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
	// Next はログイン後の遷移先です。同一オリジンのパスのみ使用されます。
	Next string `form:"next" json:"next"`
}
