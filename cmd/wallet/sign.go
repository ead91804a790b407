package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type signFlags struct {
	chain   string
	secret  string
	key     string
	to      string
	amount  string
	token   string
	comment string
	chainID int64
	bounce  bool
	send    bool
}

func newSign() *cobra.Command {
	var flags signFlags

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Signs a transfer transaction",
		Long:  "Builds and signs a transfer for the given chain using an encrypted key record. With --send the transaction is also broadcast.",
		Run: func(_ *cobra.Command, _ []string) {
			runSign(flags)
		},
	}

	cmd.Flags().StringVar(&flags.chain, "chain", "", "chain (evm, bitcoin, solana, tron, ton)")
	cmd.Flags().StringVar(&flags.secret, "secret", "", "device secret (falls back to "+secretEnvVar+" or an interactive prompt)")
	cmd.Flags().StringVar(&flags.key, "key", "", "encrypted key record (hex)")
	cmd.Flags().StringVar(&flags.to, "to", "", "recipient address")
	cmd.Flags().StringVar(&flags.amount, "amount", "", "amount in the chain's smallest unit")
	cmd.Flags().StringVar(&flags.token, "token", "", "token contract for ERC20/TRC20 transfers")
	cmd.Flags().StringVar(&flags.comment, "comment", "", "TON transfer comment")
	cmd.Flags().Int64Var(&flags.chainID, "chain-id", 1, "EVM chain id")
	cmd.Flags().BoolVar(&flags.bounce, "bounce", false, "mark the TON transfer bounceable")
	cmd.Flags().BoolVar(&flags.send, "send", false, "broadcast after signing")
	_ = cmd.MarkFlagRequired("chain")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runSign(flags signFlags) {
	secret, err := resolveSecret(flags.secret)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve device secret")
		os.Exit(1)
	}

	chainType, err := chain.ParseType(flags.chain)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse chain")
		os.Exit(1)
	}

	service, err := wallet.NewService(config.DefaultConfigFromEnv())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build wallet service")
		os.Exit(1)
	}

	result, err := dispatchSign(context.Background(), service.Signer(), chainType, secret, flags)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign transaction")
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode result")
		os.Exit(1)
	}

	fmt.Println(string(encoded)) //nolint:forbidigo
}

//nolint:cyclop // One dispatch arm per chain family
func dispatchSign(ctx context.Context, signerService signer.Service, chainType chain.Type, secret []byte, flags signFlags) (any, error) {
	switch chainType {
	case chain.TypeEVM:
		return signEVM(ctx, signerService, secret, flags)

	case chain.TypeBitcoin:
		amount, err := parseAmountInt64(flags.amount)
		if err != nil {
			return nil, err
		}

		req := &signer.SignBitcoinRequest{To: flags.to, AmountSats: amount}
		if flags.send {
			return wrapRawResponse(signerService.SignAndSendBitcoinTransaction(ctx, secret, flags.key, req))
		}
		return wrapRawResponse(signerService.SignBitcoinTransaction(ctx, secret, flags.key, req))

	case chain.TypeSolana:
		amount, err := parseAmountInt64(flags.amount)
		if err != nil {
			return nil, err
		}

		req := &signer.SignSolanaRequest{To: flags.to, Lamports: uint64(amount)}
		if flags.send {
			return signerService.SignAndSendSolanaTransaction(ctx, secret, flags.key, req)
		}
		return signerService.SignSolanaTransaction(ctx, secret, flags.key, req)

	case chain.TypeTron:
		amount, err := parseAmountInt64(flags.amount)
		if err != nil {
			return nil, err
		}

		req := &signer.SignTronRequest{To: flags.to, AmountSun: amount, TokenContract: flags.token}
		if flags.send {
			return signerService.SignAndSendTronTransaction(ctx, secret, flags.key, req)
		}
		return signerService.SignTronTransaction(ctx, secret, flags.key, req)

	case chain.TypeTON:
		amount, err := parseAmountInt64(flags.amount)
		if err != nil {
			return nil, err
		}

		req := &signer.SignTONRequest{
			To:            flags.to,
			AmountNanoton: uint64(amount),
			Comment:       flags.comment,
			Bounce:        flags.bounce,
		}
		if flags.send {
			return signerService.SignAndSendTONTransaction(ctx, secret, flags.key, req)
		}
		return signerService.SignTONTransaction(ctx, secret, flags.key, req)

	default:
		return nil, errors.Wrapf(chain.ErrUnsupportedChain, "%d", chainType)
	}
}

func signEVM(ctx context.Context, signerService signer.Service, secret []byte, flags signFlags) (any, error) {
	amount, ok := new(big.Int).SetString(flags.amount, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount: %s", flags.amount)
	}

	req := &signer.SignEVMRequest{ChainID: flags.chainID, To: flags.to, ValueWei: amount}

	// Token transfers call the contract with the value encoded in calldata
	if flags.token != "" {
		data, err := signer.ERC20TransferData(flags.to, amount)
		if err != nil {
			return nil, err
		}

		req.To = flags.token
		req.ValueWei = nil
		req.Data = data
	}

	if flags.send {
		return wrapEVMResponse(signerService.SignAndSendEVMTransaction(ctx, secret, flags.key, req))
	}

	return wrapEVMResponse(signerService.SignEVMTransaction(ctx, secret, flags.key, req))
}

func parseAmountInt64(amount string) (int64, error) {
	parsed, ok := new(big.Int).SetString(amount, 10)
	if !ok || !parsed.IsInt64() {
		return 0, errors.Errorf("invalid amount: %s", amount)
	}

	return parsed.Int64(), nil
}

// wrapEVMResponse hex-encodes the raw transaction for display.
func wrapEVMResponse(response *signer.SignEVMResponse, err error) (any, error) {
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"rawTransaction": "0x" + hex.EncodeToString(response.RawTransaction),
		"txHash":         response.TxHash,
	}, nil
}

// wrapRawResponse hex-encodes a Bitcoin raw transaction for display.
func wrapRawResponse(response *signer.SignBitcoinResponse, err error) (any, error) {
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"rawTransaction": hex.EncodeToString(response.RawTransaction),
		"txid":           response.TxID,
	}, nil
}
