package balance

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/netclient"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

// Service 余额服务接口
type Service interface {
	// NativeBalance 查询地址的原生资产余额（最小面额）
	NativeBalance(ctx context.Context, client *netclient.Client, network chain.Network, address string) (*Balance, error)
}

// service 实现 Service 接口
type service struct{}

// NewService 创建余额服务
//
//nolint:ireturn // 返回接口类型是预期的设计
func NewService() Service {
	return &service{}
}

// Balance 余额信息
type Balance struct {
	ChainID string
	Denom   string
	// Amount 基础单位余额（wei / sats / lamports / 最小面额）
	Amount *big.Int
	// Display 按链精度换算后的展示值
	Display decimal.Decimal
}

// NativeBalance 按链族分派到对应端点查询余额
func (s *service) NativeBalance(ctx context.Context, client *netclient.Client, network chain.Network, address string) (*Balance, error) {
	var (
		amount *big.Int
		err    error
	)

	switch network.Family {
	case chain.FamilyEVM:
		amount, err = client.EVMBalance(ctx, address)
	case chain.FamilyCosmos:
		amount, err = client.CosmosBalance(ctx, address, network.Denom)
	case chain.FamilySolana:
		amount, err = client.SolanaBalance(ctx, address)
	case chain.FamilyUTXO:
		amount, err = client.UTXOBalance(ctx, address)
	default:
		return nil, errors.Wrapf(walleterrors.ErrUnsupportedChainFamily, "family %q", network.Family)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch balance on chain %s", network.ChainID)
	}

	return &Balance{
		ChainID: network.ChainID,
		Denom:   network.Denom,
		Amount:  amount,
		Display: DisplayAmount(amount, network.Decimals),
	}, nil
}

// DisplayAmount 将基础单位金额换算为链精度下的十进制展示值
func DisplayAmount(amount *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(amount, 0).Shift(-int32(decimals))
}
