package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nowink/internal/constant"
	"nowink/internal/executor"
	"nowink/internal/gateway"
	"nowink/internal/orchestrator"
	"nowink/internal/types"
	"nowink/internal/wallet"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// 1. 定义命令行参数
	api := flag.String("api", envOr("NOWINK_API_URL", "http://localhost:8080"), "now.ink 后端地址")
	keypair := flag.String("keypair", os.Getenv("NOWINK_KEYPAIR_PATH"), "用户钱包 keypair 文件 (JSON 数组)")
	videoPath := flag.String("video", "", "已录制的视频文件 (.mp4 / .mov)")
	title := flag.String("title", "", "moment 标题 (可选)")
	lat := flag.Float64("lat", 0, "纬度")
	lon := flag.Float64("lon", 0, "经度")
	noLocation := flag.Bool("no-location", false, "模拟没有定位")
	public := flag.Bool("public", true, "是否公开")
	flag.Parse()

	if *videoPath == "" {
		fail("错误: 必须指定 -video")
	}

	ctx := context.Background()

	// 2. 连接钱包
	account, err := executor.FileKeySource{Path: *keypair}.Load(ctx)
	if err != nil {
		fail(fmt.Sprintf("错误: 无法加载钱包: %v", err))
	}
	session := wallet.NewSession(wallet.NewKeypairAuthority(account), wallet.DefaultIdentity)
	address, err := session.Connect(ctx)
	if err != nil {
		fail(fmt.Sprintf("错误: 钱包授权失败: %v", err))
	}
	color.Cyan("🔑 钱包已连接: %s", address)

	// 3. 登录
	client := gateway.NewClient(*api)
	if err := signIn(ctx, client, session, address); err != nil {
		fail(fmt.Sprintf("错误: 登录失败: %v", err))
	}

	// 4. 录制并铸造
	f, err := os.Open(*videoPath)
	if err != nil {
		fail(fmt.Sprintf("错误: 无法打开视频: %v", err))
	}
	defer f.Close()

	orch := orchestrator.New(session, client, orchestrator.WithTransitionHook(func(from, to orchestrator.State) {
		fmt.Printf("   %s → %s\n", from, to)
	}))

	var fix *orchestrator.Location
	if !*noLocation {
		fix = &orchestrator.Location{Latitude: *lat, Longitude: *lon}
	}
	if err := orch.BeginRecording(fix); err != nil {
		fail(fmt.Sprintf("错误: 无法开始录制: %v", err))
	}

	out := orch.StopRecording(ctx, orchestrator.Capture{
		Title:    *title,
		IsPublic: *public,
		Artifact: gateway.Artifact{
			FileName:    filepath.Base(*videoPath),
			ContentType: videoContentType(*videoPath),
			Body:        f,
		},
	})

	// 5. 输出结果
	fmt.Println("\n--- 铸造结果 ---")
	switch {
	case out.Confirmed():
		color.Green("✅ %s", out.Message)
		fmt.Printf("Stream: %s\nMint:   %s\n", out.StreamID, out.MintAddress)
		if r := out.Result; r != nil && r.UpdateAuthority != "" {
			fmt.Printf("Update authority: %s\n", r.UpdateAuthority)
			for _, c := range r.Creators {
				fmt.Printf("Creator: %s %d%% verified=%t\n", c.Address, c.Share, c.Verified)
			}
		}
		if out.NFT != nil {
			fmt.Printf("查看:   %s\n", out.NFT.ExplorerURL)
		}
	case out.TimedOut():
		color.Yellow("⏳ %s", out.Message)
		fmt.Printf("Stream: %s\n", out.StreamID)
	default:
		color.Red("❌ %s", out.Message)
		if out.Err != nil {
			fmt.Fprintf(os.Stderr, "原因: %v\n", out.Err)
		}
		os.Exit(1)
	}
}

// signIn 用钱包签名 nonce 换取 JWT
func signIn(ctx context.Context, client *gateway.Client, session *wallet.Session, address string) error {
	nonce, err := client.GetNonce(ctx, address)
	if err != nil {
		return err
	}
	message := nonce.Message
	if message == "" {
		message = constant.SignInMessagePrefix + nonce.Nonce
	}

	signature, err := session.SignMessage(ctx, message)
	if err != nil {
		return err
	}

	resp, err := client.Verify(ctx, types.VerifyReq{
		WalletAddress: address,
		Signature:     signature,
		Nonce:         nonce.Nonce,
	})
	if err != nil {
		return err
	}
	client.SetAuthToken(resp.Token)
	color.Cyan("🔓 已登录, token 有效期至 %s", time.Unix(resp.ExpiresAt, 0).Format(time.RFC3339))
	return nil
}

func videoContentType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mov") {
		return "video/quicktime"
	}
	return "video/mp4"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(msg string) {
	color.Red(msg)
	os.Exit(1)
}
