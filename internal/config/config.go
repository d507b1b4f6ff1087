package config

import (
	"time"

	"github.com/zeromicro/go-zero/rest"
)

type SolanaConf struct {
	Network string `json:",default=devnet,options=devnet|mainnet-beta"`
	// 为空时使用 Network 对应的公共 RPC
	RpcUrl      string `json:",optional"`
	KeypairPath string `json:",optional"`
	// Secret Manager 资源名，例如 projects/p/secrets/platform-keypair/versions/latest
	KeypairSecret string `json:",optional"`
}

type StorageConf struct {
	UploaderUrl string
	ApiKey      string `json:",optional"`
}

type MinterConf struct {
	// inprocess: 在服务进程内铸造；process: 调用 minter 可执行文件
	Mode    string `json:",default=inprocess,options=inprocess|process"`
	BinPath string `json:",optional"`
	Workers int    `json:",default=4"`
	// 单个铸造任务的总时限，超时记为 failed
	Timeout time.Duration `json:",default=5m"`
}

type Config struct {
	rest.RestConf
	Postgres struct {
		DSN string
	}
	Auth struct {
		AccessSecret string
		AccessExpire int64 `json:",default=86400"`
	}
	Solana  SolanaConf
	Storage StorageConf
	Minter  MinterConf
	// 上传视频的本地存放目录
	VideoDir      string `json:",default=./videos"`
	MaxVideoBytes int64  `json:",default=104857600"`
}
