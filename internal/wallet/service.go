package wallet

import (
	"context"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/balance"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/chainvault/go-signer/internal/wallet/vault"
	"github.com/pkg/errors"
)

// Service is the top-level wallet facade: key generation, address derivation,
// key-record decryption and access to the per-chain signers and balances.
type Service interface {
	// GenerateWallets generates one wallet per requested chain, encrypted
	// under the device secret.
	GenerateWallets(ctx context.Context, secret []byte, chainTypes []chain.Type) ([]*vault.WalletData, error)

	// DeriveAddress derives the chain address for raw private key bytes.
	DeriveAddress(ctx context.Context, chainType chain.Type, privateKey []byte) (string, error)

	// DecryptPrivateKey decrypts an encrypted key record, returning the
	// hex-encoded private key.
	DecryptPrivateKey(secret []byte, encryptedKey string) (string, error)

	// Signer exposes the transaction signing service.
	Signer() signer.Service

	// Balances exposes the chain balance service.
	Balances() balance.Service
}

type service struct {
	vaultService   vault.Service
	addressService address.Service
	signerService  signer.Service
	balanceService balance.Service
}

// NewService wires the full service graph from the configuration: address
// derivation, the key vault, one transport per configured network, the
// signers and the balance reader.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg config.Config) (Service, error) {
	addressService := address.NewService(cfg.Bitcoin.Network)

	vaultService, err := vault.NewService(addressService)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build vault service")
	}

	transports, err := signer.NewTransports(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transports")
	}

	signerService, err := signer.NewService(cfg, vaultService, addressService, transports)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build signer service")
	}

	balanceService, err := balance.NewService(cfg, transports)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build balance service")
	}

	return &service{
		vaultService:   vaultService,
		addressService: addressService,
		signerService:  signerService,
		balanceService: balanceService,
	}, nil
}

func (s *service) GenerateWallets(ctx context.Context, secret []byte, chainTypes []chain.Type) ([]*vault.WalletData, error) {
	if len(chainTypes) == 0 {
		chainTypes = chain.All()
	}

	return s.vaultService.GenerateWallets(ctx, secret, chainTypes)
}

func (s *service) DeriveAddress(ctx context.Context, chainType chain.Type, privateKey []byte) (string, error) {
	return s.addressService.DeriveAddress(ctx, chainType, privateKey)
}

func (s *service) DecryptPrivateKey(secret []byte, encryptedKey string) (string, error) {
	return s.vaultService.DecryptPrivateKey(secret, encryptedKey)
}

//nolint:ireturn // Returning interface is intentional for dependency injection
func (s *service) Signer() signer.Service {
	return s.signerService
}

//nolint:ireturn // Returning interface is intentional for dependency injection
func (s *service) Balances() balance.Service {
	return s.balanceService
}
