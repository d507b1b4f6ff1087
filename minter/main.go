package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nowink/internal/config"
	"nowink/internal/constant"
	"nowink/internal/executor"
	"nowink/internal/types"

	"github.com/joho/godotenv"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	exitOK    = 0
	exitMint  = 1
	exitUsage = 2
)

// 环境变量
const (
	envKeypairPath   = "NOWINK_KEYPAIR_PATH"
	envKeypairSecret = "NOWINK_KEYPAIR_SECRET"
	envRpcUrl        = "SOLANA_RPC_URL"
	envUploaderUrl   = "NOWINK_UPLOADER_URL"
	envUploaderKey   = "NOWINK_UPLOADER_API_KEY"
)

func main() {
	_ = godotenv.Load()
	// stdout 只输出 MintResult
	logx.SetWriter(logx.NewWriter(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	if len(args) > 0 && args[0] == "bootstrap" {
		return runBootstrap(ctx, args[1:], stdout)
	}

	a, err := config.ParseMintArgs(args)
	if err != nil {
		return usageFailure(stdout, a.Output, err)
	}

	fee := constant.ProductionSellerFeeBasisPoints
	e := executor.NewExecutor(keySource(), ledgerFor(a.Network), nil, a.Network)
	result := e.Mint(ctx, types.MintRequest{
		MetadataURI:          a.MetadataURI,
		VideoURI:             a.VideoURI,
		Name:                 a.Name,
		CreatorWallet:        a.CreatorWallet,
		Network:              a.Network,
		SellerFeeBasisPoints: &fee,
	})
	return finish(stdout, a.Output, result)
}

// runBootstrap 构建并上传元数据后铸造，版税为 0
func runBootstrap(ctx context.Context, args []string, stdout io.Writer) int {
	a, err := config.ParseBootstrapArgs(args)
	if err != nil {
		return usageFailure(stdout, a.Output, err)
	}
	// 地址错误先于上传配置与私钥检查
	if err := executor.ValidateAddress(a.CreatorWallet); err != nil {
		return finish(stdout, a.Output, types.MintFailed(err.Error(), time.Now()))
	}

	uploaderURL := os.Getenv(envUploaderUrl)
	if uploaderURL == "" {
		return usageFailure(stdout, a.Output, errors.New(envUploaderUrl+" is required for bootstrap"))
	}

	keys := keySource()
	authority, err := keys.Load(ctx)
	if err != nil {
		return finish(stdout, a.Output, types.MintFailed(err.Error(), time.Now()))
	}

	fee := constant.BootstrapSellerFeeBasisPoints
	doc := executor.BuildMetadata(executor.Moment{
		Title:                a.Name,
		CreatorWallet:        a.CreatorWallet,
		PlatformWallet:       authority.PublicKey.ToBase58(),
		Latitude:             a.Latitude,
		Longitude:            a.Longitude,
		Timestamp:            time.Now(),
		DurationSeconds:      a.DurationSeconds,
		VideoURI:             a.VideoURI,
		SellerFeeBasisPoints: fee,
	})

	storage := executor.NewHTTPUploader(uploaderURL, os.Getenv(envUploaderKey))
	e := executor.NewExecutor(keys, ledgerFor(a.Network), storage, a.Network)
	result := e.Mint(ctx, types.MintRequest{
		VideoURI:             a.VideoURI,
		Name:                 a.Name,
		CreatorWallet:        a.CreatorWallet,
		Network:              a.Network,
		SellerFeeBasisPoints: &fee,
		Metadata:             &doc,
	})
	return finish(stdout, a.Output, result)
}

func usageFailure(stdout io.Writer, output string, err error) int {
	if werr := writeResult(stdout, output, types.MintFailed(err.Error(), time.Now())); werr != nil {
		logx.Errorf("写入铸造结果失败: %v", werr)
	}
	return exitUsage
}

func keySource() executor.KeySource {
	if name := os.Getenv(envKeypairSecret); name != "" {
		return executor.SecretKeySource{Name: name}
	}
	return executor.FileKeySource{Path: os.Getenv(envKeypairPath)}
}

func ledgerFor(network string) executor.Ledger {
	return executor.NewSolanaLedger(executor.RPCEndpoint(network, os.Getenv(envRpcUrl)))
}

func finish(stdout io.Writer, output string, result types.MintResult) int {
	if err := writeResult(stdout, output, result); err != nil {
		logx.Errorf("写入铸造结果失败: %v", err)
		return exitMint
	}
	if !result.OK() {
		return exitMint
	}
	return exitOK
}

// writeResult 写到 output 文件，未指定时写标准输出
func writeResult(stdout io.Writer, output string, result types.MintResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		// 仍然让调用方拿到结果
		fmt.Fprint(stdout, string(data))
		return err
	}
	return nil
}
