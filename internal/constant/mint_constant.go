package constant

import "time"

type Network string

const (
	NetworkDevnet  Network = "devnet"
	NetworkMainnet Network = "mainnet-beta"
	// NetworkTestnet Network = "testnet" // Example for future support
)

// SupportedNetworks lists all networks the mint executor can submit to.
var SupportedNetworks = []Network{
	NetworkDevnet,
	NetworkMainnet,
}

// IsNetworkSupported checks if a given network is in the list of supported networks.
func IsNetworkSupported(network string) bool {
	for _, supported := range SupportedNetworks {
		if string(supported) == network {
			return true
		}
	}
	return false
}

// AppName 钱包授权时展示给用户的应用身份
const (
	AppName = "now.ink"
	AppURI  = "https://now.ink"
	AppIcon = "favicon.ico"
)

// NFT 固定参数
const (
	Symbol      = "NOWINK"
	ExternalURL = "https://now.ink"
)

// 版税分成策略：平台 5%（已验证，平台签名），创作者 95%（未验证）
const (
	PlatformShare uint8 = 5
	CreatorShare  uint8 = 95
)

// SellerFeeBasisPoints 二级市场版税，每次铸造必须显式指定
const (
	ProductionSellerFeeBasisPoints uint16 = 500
	BootstrapSellerFeeBasisPoints  uint16 = 0
)

// LamportsPerSOL 1 SOL = 1e9 lamports
const LamportsPerSOL uint64 = 1_000_000_000

// MinPlatformBalance 平台钱包最低余额 0.01 SOL，低于此值拒绝铸造
const MinPlatformBalance = LamportsPerSOL / 100

// 确认轮询预算：固定 1 秒间隔，最多 30 次
const (
	PollInterval    = time.Second
	PollMaxAttempts = 30
)

// MintJobTimeout 后台铸造任务未配置时限时的默认值
const MintJobTimeout = 5 * time.Minute

// 交易确认：轮询签名状态直到 confirmed，或区块高度超过 blockhash 有效期
const ConfirmPollInterval = 2 * time.Second

// RequestTimeout 后端网关每次请求的超时时间
const RequestTimeout = 30 * time.Second

// NonceTTL 登录 nonce 有效期
const NonceTTL = 5 * time.Minute

// SignInMessagePrefix 登录时钱包签名的消息前缀，后接 nonce
const SignInMessagePrefix = "Sign in to now.ink: "

// 上传视频限制
const (
	MaxVideoBytes int64 = 100 * 1024 * 1024
)

// SupportedVideoTypes 允许上传的视频类型
var SupportedVideoTypes = []string{
	"video/mp4",
	"video/quicktime",
}

// IsVideoTypeSupported checks if a content type may be saved as a moment.
func IsVideoTypeSupported(contentType string) bool {
	for _, t := range SupportedVideoTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

type MintStatus string

const (
	MintStatusNone    MintStatus = ""
	MintStatusPending MintStatus = "pending"
	MintStatusMinted  MintStatus = "minted"
	MintStatusFailed  MintStatus = "failed"
)
