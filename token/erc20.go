package token

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Minimal ERC20 ABI plus the WETH withdraw function
const erc20ABI = `[
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"wad","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const (
	defaultGasLimit   = 120_000
	nativeTransferGas = 21_000
)

// Transactor signs and submits contract calls for a single sender key.
type Transactor struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	mu      sync.Mutex
}

// NewTransactor derives the sender address from the given hex private key.
func NewTransactor(client *ethclient.Client, pkHex string) (*Transactor, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(pkHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	return &Transactor{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

// From returns the sender address.
func (t *Transactor) From() common.Address {
	return t.from
}

// Send signs and submits a contract call to the given address.
func (t *Transactor) Send(ctx context.Context, to common.Address, data []byte) error {
	return t.submit(ctx, to, big.NewInt(0), defaultGasLimit, data)
}

// SendNative transfers value of the native coin to the given address.
func (t *Transactor) SendNative(ctx context.Context, to common.Address, value *big.Int) error {
	return t.submit(ctx, to, value, nativeTransferGas, nil)
}

func (t *Transactor) submit(ctx context.Context, to common.Address, value *big.Int, gasLimit uint64, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	nonce, err := t.client.PendingNonceAt(ctx, t.from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(t.chainID), t.key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := t.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	return nil
}

// ERC20 is a Token bound to an on-chain contract address.
type ERC20 struct {
	client *ethclient.Client
	tx     *Transactor
	abi    abi.ABI
	addr   common.Address
}

// NewERC20 binds a token client to the given contract address.
func NewERC20(client *ethclient.Client, tx *Transactor, addr common.Address) (*ERC20, error) {
	if client == nil {
		return nil, fmt.Errorf("ethclient cannot be nil")
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &ERC20{
		client: client,
		tx:     tx,
		abi:    parsedABI,
		addr:   addr,
	}, nil
}

// Address returns the bound contract address.
func (e *ERC20) Address() common.Address {
	return e.addr
}

// BalanceOf returns the held balance of the given account.
func (e *ERC20) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	data, err := e.abi.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}

	result, err := e.call(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	out, err := e.abi.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}

	return out[0].(*big.Int), nil
}

// Decimals returns the token's decimal precision.
func (e *ERC20) Decimals(ctx context.Context) (uint8, error) {
	data, err := e.abi.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to pack decimals: %w", err)
	}

	result, err := e.call(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("decimals call failed: %w", err)
	}

	out, err := e.abi.Unpack("decimals", result)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack decimals: %w", err)
	}

	return out[0].(uint8), nil
}

// Approve grants spender an allowance for exactly amount.
func (e *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int) error {
	data, err := e.abi.Pack("approve", spender, amount)
	if err != nil {
		return fmt.Errorf("failed to pack approve: %w", err)
	}
	return e.tx.Send(ctx, e.addr, data)
}

// Transfer moves amount to the given recipient.
func (e *ERC20) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	data, err := e.abi.Pack("transfer", to, amount)
	if err != nil {
		return fmt.Errorf("failed to pack transfer: %w", err)
	}
	return e.tx.Send(ctx, e.addr, data)
}

func (e *ERC20) call(ctx context.Context, data []byte) ([]byte, error) {
	return e.client.CallContract(ctx, ethereum.CallMsg{
		To:   &e.addr,
		Data: data,
	}, nil)
}

// WETH is an ERC20 that additionally supports unwrapping to native form.
type WETH struct {
	*ERC20
}

// NewWETH binds a wrapped-native client to the given contract address.
func NewWETH(client *ethclient.Client, tx *Transactor, addr common.Address) (*WETH, error) {
	erc20, err := NewERC20(client, tx, addr)
	if err != nil {
		return nil, err
	}
	return &WETH{ERC20: erc20}, nil
}

// Withdraw unwraps amount of the wrapped token into native form.
func (w *WETH) Withdraw(ctx context.Context, amount *big.Int) error {
	data, err := w.abi.Pack("withdraw", amount)
	if err != nil {
		return fmt.Errorf("failed to pack withdraw: %w", err)
	}
	return w.tx.Send(ctx, w.addr, data)
}

// ClientSource resolves token addresses to bound ERC20 clients, reusing
// clients across calls.
type ClientSource struct {
	client *ethclient.Client
	tx     *Transactor
	mu     sync.Mutex
	bound  map[common.Address]*ERC20
}

// NewClientSource creates a Source backed by the given RPC client.
func NewClientSource(client *ethclient.Client, tx *Transactor) *ClientSource {
	return &ClientSource{
		client: client,
		tx:     tx,
		bound:  make(map[common.Address]*ERC20),
	}
}

// Token returns a bound client for the given token address.
func (s *ClientSource) Token(addr common.Address) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.bound[addr]; ok {
		return t
	}

	t, err := NewERC20(s.client, s.tx, addr)
	if err != nil {
		// The only failure mode is the compiled-in ABI failing to parse.
		panic(err)
	}
	s.bound[addr] = t
	return t
}
