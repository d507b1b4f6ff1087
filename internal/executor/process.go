package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"nowink/internal/constant"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

// ProcessRunner mints by invoking the minter binary once per request and
// reading the MintResult document it writes to --output.
type ProcessRunner struct {
	binPath string
	network string
	now     func() time.Time
}

func NewProcessRunner(binPath, network string) *ProcessRunner {
	return &ProcessRunner{binPath: binPath, network: network, now: time.Now}
}

func (p *ProcessRunner) Mint(ctx context.Context, req types.MintRequest) types.MintResult {
	logger := logx.WithContext(ctx)

	// minter 进程的参数集合固定，版税只能是生产值
	if req.SellerFeeBasisPoints == nil {
		return types.MintFailed(ErrSellerFeeUnset.Error(), p.now())
	}
	if *req.SellerFeeBasisPoints != constant.ProductionSellerFeeBasisPoints {
		return types.MintFailed(fmt.Sprintf("minter process only mints with seller fee %d", constant.ProductionSellerFeeBasisPoints), p.now())
	}
	if req.MetadataURI == "" {
		return types.MintFailed(ErrMissingMetadata.Error(), p.now())
	}

	network := req.Network
	if network == "" {
		network = p.network
	}

	out, err := os.CreateTemp("", "nowink-mint-*.json")
	if err != nil {
		return types.MintFailed(fmt.Sprintf("create output file: %v", err), p.now())
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := []string{
		"--metadata-uri", req.MetadataURI,
		"--video-uri", req.VideoURI,
		"--name", req.Name,
		"--creator-wallet", req.CreatorWallet,
		"--network", network,
		"--output", outPath,
	}
	logger.Infof("执行 minter: %s %s", p.binPath, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binPath, args...)
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	data, err := os.ReadFile(outPath)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		if runErr != nil {
			logger.Errorf("minter 退出异常: %v stderr=%s", runErr, stderr.String())
			return types.MintFailed(fmt.Sprintf("minter failed: %v", runErr), p.now())
		}
		return types.MintFailed("minter produced no result", p.now())
	}

	var result types.MintResult
	if err := json.Unmarshal(data, &result); err != nil {
		return types.MintFailed(fmt.Sprintf("decode minter result: %v", err), p.now())
	}
	if runErr != nil && result.OK() {
		return types.MintFailed(fmt.Sprintf("minter exited with %v after reporting success", runErr), p.now())
	}
	return result
}
