package utxo

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
)

// ChainParams maps a UTXO network to its btcsuite chain parameters.
// 根据币种类型返回链参数
func ChainParams(network chain.Network) (*chaincfg.Params, error) {
	switch network.CoinType {
	case 0:
		return &chaincfg.MainNetParams, nil
	case 1:
		return &chaincfg.TestNet3Params, nil
	default:
		return nil, errors.Errorf("no chain parameters for coin type %d", network.CoinType)
	}
}
