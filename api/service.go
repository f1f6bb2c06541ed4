// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api provides the JSON-RPC surface for the staking vault.
// Amounts travel as decimal strings to keep full big integer
// precision.
package api

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	rpcjson "github.com/gorilla/rpc/v2/json"
	"github.com/luxfi/ids"

	"github.com/luxfi/vault"
	"github.com/luxfi/vault/token"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownToken   = errors.New("unknown token")
)

// Service exposes the vault operations over JSON-RPC.
type Service struct {
	vault  *vault.Vault
	tokens map[ids.ID]token.Token
}

// NewService creates the RPC service around a vault. known lists the
// tokens addressable by RecoverForeignAsset.
func NewService(v *vault.Vault, known ...token.Token) *Service {
	tokens := make(map[ids.ID]token.Token, len(known))
	for _, tok := range known {
		tokens[tok.ID()] = tok
	}
	return &Service{
		vault:  v,
		tokens: tokens,
	}
}

// NewHandler returns an HTTP handler serving the service under the
// "vault" namespace.
func NewHandler(v *vault.Vault, known ...token.Token) (http.Handler, error) {
	codec := rpcjson.NewCodec()
	server := rpc.NewServer()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(NewService(v, known...), "vault"); err != nil {
		return nil, err
	}
	return server, nil
}

func parseAddress(field, value string) (ids.ShortID, error) {
	addr, err := ids.ShortFromString(value)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w: invalid %s address", ErrInvalidRequest, field)
	}
	return addr, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid %s amount", ErrInvalidRequest, field)
	}
	return amount, nil
}

type PingArgs struct{}

type PingReply struct {
	Success bool `json:"success"`
}

// Ping is a health check.
func (*Service) Ping(_ *http.Request, _ *PingArgs, reply *PingReply) error {
	reply.Success = true
	return nil
}

type StatusArgs struct{}

type StatusReply struct {
	TotalAssets             string `json:"totalAssets"`
	TotalShares             string `json:"totalShares"`
	RewardPerShare          string `json:"rewardPerShare"`
	RewardRate              string `json:"rewardRate"`
	PeriodFinish            uint64 `json:"periodFinish"`
	RewardsDuration         string `json:"rewardsDuration"`
	TotalRewardsDistributed string `json:"totalRewardsDistributed"`
	Paused                  bool   `json:"paused"`
}

// Status reports the vault-wide accounting state.
func (s *Service) Status(_ *http.Request, _ *StatusArgs, reply *StatusReply) error {
	reply.TotalAssets = s.vault.TotalAssets().String()
	reply.TotalShares = s.vault.TotalShares().String()
	reply.RewardPerShare = s.vault.RewardPerShare().String()
	reply.RewardRate = s.vault.RewardRate().String()
	reply.PeriodFinish = s.vault.PeriodFinish()
	reply.RewardsDuration = s.vault.RewardsDuration().String()
	reply.TotalRewardsDistributed = s.vault.TotalRewardsDistributed().String()
	reply.Paused = s.vault.Paused()
	return nil
}

type AccountArgs struct {
	Account string `json:"account"`
}

type AccountReply struct {
	AssetBalance string `json:"assetBalance"`
	ShareBalance string `json:"shareBalance"`
	Earned       string `json:"earned"`
	MaxWithdraw  string `json:"maxWithdraw"`
	MaxRedeem    string `json:"maxRedeem"`
}

// Account reports one account's position.
func (s *Service) Account(_ *http.Request, args *AccountArgs, reply *AccountReply) error {
	account, err := parseAddress("account", args.Account)
	if err != nil {
		return err
	}
	reply.AssetBalance = s.vault.AssetBalanceOf(account).String()
	reply.ShareBalance = s.vault.ShareBalanceOf(account).String()
	reply.Earned = s.vault.Earned(account).String()
	reply.MaxWithdraw = s.vault.MaxWithdraw(account).String()
	reply.MaxRedeem = s.vault.MaxRedeem(account).String()
	return nil
}

type DepositArgs struct {
	Caller   string `json:"caller"`
	Assets   string `json:"assets"`
	Receiver string `json:"receiver"`
}

type DepositReply struct {
	Shares string `json:"shares"`
}

// Deposit stakes assets and reports the shares minted.
func (s *Service) Deposit(_ *http.Request, args *DepositArgs, reply *DepositReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}
	receiver, err := parseAddress("receiver", args.Receiver)
	if err != nil {
		return err
	}
	assets, err := parseAmount("assets", args.Assets)
	if err != nil {
		return err
	}

	shares, err := s.vault.Deposit(caller, assets, receiver)
	if err != nil {
		return err
	}
	reply.Shares = shares.String()
	return nil
}

type MintArgs struct {
	Caller   string `json:"caller"`
	Shares   string `json:"shares"`
	Receiver string `json:"receiver"`
}

type MintReply struct {
	Assets string `json:"assets"`
}

// Mint stakes enough assets to issue the requested shares.
func (s *Service) Mint(_ *http.Request, args *MintArgs, reply *MintReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}
	receiver, err := parseAddress("receiver", args.Receiver)
	if err != nil {
		return err
	}
	shares, err := parseAmount("shares", args.Shares)
	if err != nil {
		return err
	}

	assets, err := s.vault.Mint(caller, shares, receiver)
	if err != nil {
		return err
	}
	reply.Assets = assets.String()
	return nil
}

type WithdrawArgs struct {
	Caller   string `json:"caller"`
	Assets   string `json:"assets"`
	Receiver string `json:"receiver"`
	Owner    string `json:"owner"`
}

type WithdrawReply struct {
	Shares string `json:"shares"`
}

// Withdraw unstakes assets and reports the shares burned.
func (s *Service) Withdraw(_ *http.Request, args *WithdrawArgs, reply *WithdrawReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}
	receiver, err := parseAddress("receiver", args.Receiver)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", args.Owner)
	if err != nil {
		return err
	}
	assets, err := parseAmount("assets", args.Assets)
	if err != nil {
		return err
	}

	shares, err := s.vault.Withdraw(caller, assets, receiver, owner)
	if err != nil {
		return err
	}
	reply.Shares = shares.String()
	return nil
}

type RedeemArgs struct {
	Caller   string `json:"caller"`
	Shares   string `json:"shares"`
	Receiver string `json:"receiver"`
	Owner    string `json:"owner"`
}

type RedeemReply struct {
	Assets string `json:"assets"`
}

// Redeem burns shares and reports the assets released.
func (s *Service) Redeem(_ *http.Request, args *RedeemArgs, reply *RedeemReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}
	receiver, err := parseAddress("receiver", args.Receiver)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", args.Owner)
	if err != nil {
		return err
	}
	shares, err := parseAmount("shares", args.Shares)
	if err != nil {
		return err
	}

	assets, err := s.vault.Redeem(caller, shares, receiver, owner)
	if err != nil {
		return err
	}
	reply.Assets = assets.String()
	return nil
}

type ExitArgs struct {
	Caller string `json:"caller"`
}

type ExitReply struct {
	Reward string `json:"reward"`
}

// Exit withdraws the caller's entire position and claims any reward.
func (s *Service) Exit(_ *http.Request, args *ExitArgs, reply *ExitReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}

	reward, err := s.vault.Exit(caller)
	if err != nil {
		return err
	}
	reply.Reward = reward.String()
	return nil
}

type ClaimRewardArgs struct {
	Caller string `json:"caller"`
}

type ClaimRewardReply struct {
	Reward string `json:"reward"`
}

// ClaimReward pays out the caller's pending reward.
func (s *Service) ClaimReward(_ *http.Request, args *ClaimRewardArgs, reply *ClaimRewardReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}

	reward, err := s.vault.ClaimReward(caller)
	if err != nil {
		return err
	}
	reply.Reward = reward.String()
	return nil
}

type NotifyRewardArgs struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type NotifyRewardReply struct {
	RewardRate   string `json:"rewardRate"`
	PeriodFinish uint64 `json:"periodFinish"`
}

// NotifyReward funds a new reward epoch.
func (s *Service) NotifyReward(_ *http.Request, args *NotifyRewardArgs, reply *NotifyRewardReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", args.Amount)
	if err != nil {
		return err
	}

	if err := s.vault.NotifyReward(caller, amount); err != nil {
		return err
	}
	reply.RewardRate = s.vault.RewardRate().String()
	reply.PeriodFinish = s.vault.PeriodFinish()
	return nil
}

type SetRewardsDurationArgs struct {
	Caller          string `json:"caller"`
	DurationSeconds uint64 `json:"durationSeconds"`
}

type SetRewardsDurationReply struct {
	RewardsDuration string `json:"rewardsDuration"`
}

// SetRewardsDuration changes the epoch window length.
func (s *Service) SetRewardsDuration(_ *http.Request, args *SetRewardsDurationArgs, reply *SetRewardsDurationReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}

	duration := time.Duration(args.DurationSeconds) * time.Second
	if err := s.vault.SetRewardsDuration(caller, duration); err != nil {
		return err
	}
	reply.RewardsDuration = s.vault.RewardsDuration().String()
	return nil
}

type SetPausedArgs struct {
	Caller string `json:"caller"`
	Paused bool   `json:"paused"`
}

type SetPausedReply struct {
	Paused bool `json:"paused"`
}

// SetPaused toggles the staking pause.
func (s *Service) SetPaused(_ *http.Request, args *SetPausedArgs, reply *SetPausedReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}

	if err := s.vault.SetPaused(caller, args.Paused); err != nil {
		return err
	}
	reply.Paused = s.vault.Paused()
	return nil
}

type RecoverForeignAssetArgs struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type RecoverForeignAssetReply struct {
	Success bool `json:"success"`
}

// RecoverForeignAsset sweeps a stray token balance to the owner. Only
// tokens registered with the service are addressable.
func (s *Service) RecoverForeignAsset(_ *http.Request, args *RecoverForeignAssetArgs, reply *RecoverForeignAssetReply) error {
	caller, err := parseAddress("caller", args.Caller)
	if err != nil {
		return err
	}
	tokenID, err := ids.FromString(args.Token)
	if err != nil {
		return fmt.Errorf("%w: invalid token id", ErrInvalidRequest)
	}
	amount, err := parseAmount("amount", args.Amount)
	if err != nil {
		return err
	}

	tok, ok := s.tokens[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, args.Token)
	}
	if err := s.vault.RecoverForeignAsset(caller, tok, amount); err != nil {
		return err
	}
	reply.Success = true
	return nil
}
