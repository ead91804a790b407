package probe

import (
	"context"
	"os"
	"time"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const probeTimeout = 10 * time.Second

func newEndpoints() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Checks every configured chain endpoint",
		Long:  "Performs a cheap liveness request against every configured RPC/API endpoint and reports the result.",
		Run: func(_ *cobra.Command, _ []string) {
			runEndpointsProbe()
		},
	}
}

func runEndpointsProbe() {
	cfg := config.DefaultConfigFromEnv()

	transports, err := signer.NewTransports(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build transports")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	healthy := true

	for chainID, caller := range transports.EVM {
		var chainIDHex string
		if err := caller.Call(ctx, "eth_chainId", nil, &chainIDHex); err != nil {
			log.Error().Int64("chain_id", chainID).Err(err).Msg("EVM endpoint unreachable")
			healthy = false
			continue
		}
		log.Info().Int64("chain_id", chainID).Str("result", chainIDHex).Msg("EVM endpoint OK")
	}

	var tipHeight int64
	if err := transports.Bitcoin.GetJSON(ctx, "/blocks/tip/height", &tipHeight); err != nil {
		log.Error().Err(err).Msg("Bitcoin endpoint unreachable")
		healthy = false
	} else {
		log.Info().Int64("tip_height", tipHeight).Msg("Bitcoin endpoint OK")
	}

	var solanaHealth string
	if err := transports.Solana.Call(ctx, "getHealth", nil, &solanaHealth); err != nil {
		log.Error().Err(err).Msg("Solana endpoint unreachable")
		healthy = false
	} else {
		log.Info().Str("health", solanaHealth).Msg("Solana endpoint OK")
	}

	var nowBlock map[string]any
	if err := transports.Tron.PostJSON(ctx, "/wallet/getnowblock", map[string]any{}, &nowBlock); err != nil {
		log.Error().Err(err).Msg("TRON endpoint unreachable")
		healthy = false
	} else {
		log.Info().Msg("TRON endpoint OK")
	}

	var masterchain struct {
		OK bool `json:"ok"`
	}
	if err := transports.TON.GetJSON(ctx, "/getMasterchainInfo", &masterchain); err != nil || !masterchain.OK {
		log.Error().Err(err).Msg("TON endpoint unreachable")
		healthy = false
	} else {
		log.Info().Msg("TON endpoint OK")
	}

	if !healthy {
		os.Exit(1)
	}
}
