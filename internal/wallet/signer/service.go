package signer

import (
	"encoding/hex"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/rpc"
	"github.com/chainvault/go-signer/internal/wallet/vault"
	"github.com/pkg/errors"
)

// Transports bundles the per-chain RPC transports. They are constructed once
// from the configuration and injected, so tests can point every signer at its
// own endpoints.
type Transports struct {
	EVM     map[int64]rpc.Caller
	Bitcoin rpc.RESTCaller
	Solana  rpc.Caller
	Tron    rpc.RESTCaller
	TON     rpc.RESTCaller
}

// NewTransports builds HTTP transports for every configured network.
func NewTransports(cfg config.Config) (*Transports, error) {
	evm := make(map[int64]rpc.Caller, len(cfg.EVMNetworks))
	for chainID, network := range cfg.EVMNetworks {
		client, err := rpc.NewClient(network.RPCURLs)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build %s transport", network.Name)
		}
		evm[chainID] = client
	}

	bitcoin, err := rpc.NewClient(cfg.Bitcoin.APIURLs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build bitcoin transport")
	}

	solana, err := rpc.NewClient(cfg.Solana.RPCURLs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build solana transport")
	}

	tron, err := rpc.NewClient(cfg.Tron.APIURLs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build tron transport")
	}

	ton, err := rpc.NewClient(cfg.TON.APIURLs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build ton transport")
	}

	return &Transports{
		EVM:     evm,
		Bitcoin: bitcoin,
		Solana:  solana,
		Tron:    tron,
		TON:     ton,
	}, nil
}

type service struct {
	cfg            config.Config
	vaultService   vault.Service
	addressService address.Service
	transports     *Transports
}

// NewService creates a new multi-chain signer service.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg config.Config, vaultService vault.Service, addressService address.Service, transports *Transports) (Service, error) {
	if vaultService == nil || addressService == nil || transports == nil {
		return nil, errors.New("vault service, address service and transports are required")
	}

	return &service{
		cfg:            cfg,
		vaultService:   vaultService,
		addressService: addressService,
		transports:     transports,
	}, nil
}

// withPrivateKey decrypts the key record and hands the raw key bytes to fn.
// The buffer is zeroed when fn returns, on every exit path.
func (s *service) withPrivateKey(secret []byte, encryptedKey string, fn func(privateKey []byte) error) error {
	keyHex, err := s.vaultService.DecryptPrivateKey(secret, encryptedKey)
	if err != nil {
		return err
	}

	privateKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return errors.Wrap(err, "failed to decode private key hex")
	}

	material := vault.NewKeyMaterial(privateKey)
	defer material.Destroy()

	return fn(material.Bytes())
}

// evmCaller returns the transport for an EVM chain id.
func (s *service) evmCaller(chainID int64) (rpc.Caller, error) {
	caller, ok := s.transports.EVM[chainID]
	if !ok {
		return nil, errors.Wrapf(config.ErrUnsupportedChainID, "%d", chainID)
	}

	return caller, nil
}
