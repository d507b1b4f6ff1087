package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"nowink/internal/constant"
)

// MintArgs is the complete argument set of one executor invocation.
type MintArgs struct {
	MetadataURI   string
	VideoURI      string
	Name          string
	CreatorWallet string
	Network       string
	// 为空时结果写到标准输出
	Output string
}

// MissingArgsError lists every required argument absent from an invocation.
type MissingArgsError struct {
	Missing []string
}

func (e *MissingArgsError) Error() string {
	return "missing required arguments: " + strings.Join(e.Missing, ", ")
}

var ErrUnsupportedNetwork = errors.New("unsupported network")

// ParseMintArgs parses executor flags. Unknown flags and stray positional
// arguments are rejected; all missing required flags are reported together.
// On error the flags parsed so far are still returned, so callers can honor --output.
func ParseMintArgs(args []string) (MintArgs, error) {
	var a MintArgs
	fs := flag.NewFlagSet("minter", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.MetadataURI, "metadata-uri", "", "metadata document URI")
	fs.StringVar(&a.VideoURI, "video-uri", "", "video URI")
	fs.StringVar(&a.Name, "name", "", "NFT name")
	fs.StringVar(&a.CreatorWallet, "creator-wallet", "", "creator wallet address")
	fs.StringVar(&a.Network, "network", string(constant.NetworkDevnet), "devnet or mainnet-beta")
	fs.StringVar(&a.Output, "output", "", "result file path")

	if err := fs.Parse(args); err != nil {
		return a, fmt.Errorf("invalid arguments: %w", err)
	}
	if fs.NArg() > 0 {
		return a, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if err := a.Validate(); err != nil {
		return a, err
	}
	return a, nil
}

// Validate checks presence of required fields and the network value.
func (a MintArgs) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"metadata-uri", a.MetadataURI},
		{"video-uri", a.VideoURI},
		{"name", a.Name},
		{"creator-wallet", a.CreatorWallet},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MissingArgsError{Missing: missing}
	}
	if !constant.IsNetworkSupported(a.Network) {
		return fmt.Errorf("%w: %s", ErrUnsupportedNetwork, a.Network)
	}
	return nil
}

// BootstrapArgs mints a moment whose metadata document is built and uploaded
// by the executor itself, with zero resale royalty.
type BootstrapArgs struct {
	VideoURI        string
	Name            string
	CreatorWallet   string
	Latitude        float64
	Longitude       float64
	DurationSeconds int
	Network         string
	Output          string
}

// ParseBootstrapArgs is ParseMintArgs for the bootstrap subcommand.
func ParseBootstrapArgs(args []string) (BootstrapArgs, error) {
	var a BootstrapArgs
	fs := flag.NewFlagSet("minter bootstrap", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.VideoURI, "video-uri", "", "video URI")
	fs.StringVar(&a.Name, "name", "", "NFT name")
	fs.StringVar(&a.CreatorWallet, "creator-wallet", "", "creator wallet address")
	fs.Float64Var(&a.Latitude, "lat", 0, "latitude")
	fs.Float64Var(&a.Longitude, "lon", 0, "longitude")
	fs.IntVar(&a.DurationSeconds, "duration", 0, "video duration in seconds")
	fs.StringVar(&a.Network, "network", string(constant.NetworkDevnet), "devnet or mainnet-beta")
	fs.StringVar(&a.Output, "output", "", "result file path")

	if err := fs.Parse(args); err != nil {
		return a, fmt.Errorf("invalid arguments: %w", err)
	}
	if fs.NArg() > 0 {
		return a, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	var missing []string
	if strings.TrimSpace(a.VideoURI) == "" {
		missing = append(missing, "video-uri")
	}
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(a.CreatorWallet) == "" {
		missing = append(missing, "creator-wallet")
	}
	if len(missing) > 0 {
		return a, &MissingArgsError{Missing: missing}
	}
	if a.Latitude < -90 || a.Latitude > 90 || a.Longitude < -180 || a.Longitude > 180 {
		return a, fmt.Errorf("coordinates out of range: %f,%f", a.Latitude, a.Longitude)
	}
	if !constant.IsNetworkSupported(a.Network) {
		return a, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, a.Network)
	}
	return a, nil
}
