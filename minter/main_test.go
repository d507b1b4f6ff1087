package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nowink/internal/types"
)

const creator = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func decodeResult(t *testing.T, data []byte) types.MintResult {
	t.Helper()
	var r types.MintResult
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return r
}

func TestRunUsageError(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "missing creator", args: []string{"--metadata-uri", "ar://m", "--video-uri", "ar://v", "--name", "n"}},
		{name: "bad network", args: []string{"--metadata-uri", "ar://m", "--video-uri", "ar://v", "--name", "n", "--creator-wallet", creator, "--network", "testnet"}},
		{name: "bootstrap missing fields", args: []string{"bootstrap", "--name", "n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := run(context.Background(), tt.args, &out); code != exitUsage {
				t.Fatalf("exit = %d, want %d", code, exitUsage)
			}
			r := decodeResult(t, out.Bytes())
			f, ok := r.Failure()
			if !ok || f.Error == "" {
				t.Fatalf("expected failure document, got %s", out.String())
			}
		})
	}
}

func TestRunMissingKeypairWritesFailure(t *testing.T) {
	t.Setenv(envKeypairSecret, "")
	t.Setenv(envKeypairPath, filepath.Join(t.TempDir(), "absent.json"))
	output := filepath.Join(t.TempDir(), "result.json")

	var stdout bytes.Buffer
	code := run(context.Background(), []string{
		"--metadata-uri", "ar://m",
		"--video-uri", "ar://v",
		"--name", "Moment",
		"--creator-wallet", creator,
		"--output", output,
	}, &stdout)
	if code != exitMint {
		t.Fatalf("exit = %d, want %d", code, exitMint)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout must stay empty when --output is set, got %q", stdout.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	f, ok := decodeResult(t, data).Failure()
	if !ok || !strings.Contains(f.Error, "wallet") {
		t.Fatalf("failure = %+v", f)
	}
}

func TestRunInvalidCreatorNeverLoadsKey(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "mint", args: []string{"--metadata-uri", "ar://m", "--video-uri", "ar://v", "--name", "Moment", "--creator-wallet", "not-a-wallet"}},
		{name: "bootstrap", args: []string{"bootstrap", "--video-uri", "ar://v", "--name", "Moment", "--creator-wallet", "not-a-wallet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 即使 keypair 路径无效，也应先报告地址错误
			t.Setenv(envKeypairSecret, "")
			t.Setenv(envKeypairPath, "")
			t.Setenv(envUploaderUrl, "http://127.0.0.1:1")

			var stdout bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout); code != exitMint {
				t.Fatalf("exit = %d, want %d", code, exitMint)
			}
			f, ok := decodeResult(t, stdout.Bytes()).Failure()
			if !ok || !strings.Contains(f.Error, "invalid creator address") {
				t.Fatalf("failure = %+v", f)
			}
		})
	}
}

func TestRunUsageErrorHonorsOutput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "mint missing creator", args: []string{"--metadata-uri", "ar://m", "--video-uri", "ar://v", "--name", "n"}},
		{name: "mint stray argument", args: []string{"--metadata-uri", "ar://m", "--video-uri", "ar://v", "--name", "n", "--creator-wallet", creator, "extra"}},
		{name: "bootstrap bad network", args: []string{"bootstrap", "--video-uri", "ar://v", "--name", "n", "--creator-wallet", creator, "--network", "testnet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), "result.json")
			args := append([]string{}, tt.args...)
			// --output 放在参数前面，保证解析到
			if args[0] == "bootstrap" {
				args = append([]string{"bootstrap", "--output", output}, args[1:]...)
			} else {
				args = append([]string{"--output", output}, args...)
			}

			var stdout bytes.Buffer
			if code := run(context.Background(), args, &stdout); code != exitUsage {
				t.Fatalf("exit = %d, want %d", code, exitUsage)
			}
			if stdout.Len() != 0 {
				t.Fatalf("stdout must stay empty when --output is set, got %q", stdout.String())
			}
			data, err := os.ReadFile(output)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if f, ok := decodeResult(t, data).Failure(); !ok || f.Error == "" {
				t.Fatalf("expected failure document, got %s", data)
			}
		})
	}
}
