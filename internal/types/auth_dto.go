package types

// NonceReq defines the request body for issuing a sign-in nonce.
type NonceReq struct {
	// The base58 public address of the wallet that will sign in.
	WalletAddress string `json:"wallet_address"`
}

// NonceResp 返回给客户端待签名的 nonce
type NonceResp struct {
	Nonce string `json:"nonce"`
	// 客户端需要签名的完整消息
	Message string `json:"message,optional"`
}

// VerifyReq defines the request body for verifying a signed nonce.
type VerifyReq struct {
	WalletAddress string `json:"wallet_address"`
	// Base64 encoded ed25519 signature over the sign-in message.
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

// VerifyResp defines the response body for a successful verification.
type VerifyResp struct {
	// Bearer token for authenticated routes.
	Token string `json:"token"`
	// Unix seconds when the token expires.
	ExpiresAt     int64  `json:"expires_at"`
	WalletAddress string `json:"wallet_address"`
}

// ErrorResp 所有失败请求的统一响应体
type ErrorResp struct {
	Error string `json:"error"`
}
