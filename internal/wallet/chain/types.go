package chain

// Family 标识链所属的架构族，决定派生路径、地址编码与签名器
type Family string

const (
	FamilyUTXO   Family = "utxo"
	FamilyEVM    Family = "evm"
	FamilyCosmos Family = "cosmos"
	FamilySolana Family = "solana"
)

// KnownFamilies lists every family the engine ships a signer for.
var KnownFamilies = []Family{FamilyUTXO, FamilyEVM, FamilyCosmos, FamilySolana}

// Network 链配置（只读，启动时注入，运行期不可变）
type Network struct {
	// ChainID 链唯一标识，如 "helmchain-1"、"bitcoin"、"ethereum"
	ChainID string `json:"chainId" mapstructure:"chain_id"`

	// Name 展示名称
	Name string `json:"name" mapstructure:"name"`

	// Family 链架构族
	Family Family `json:"family" mapstructure:"family"`

	// CoinType BIP-44 币种编号（60=EVM、118=cosmos、0=BTC、501=solana）
	CoinType uint32 `json:"coinType" mapstructure:"coin_type"`

	// Decimals 最小面额精度
	Decimals uint8 `json:"decimals" mapstructure:"decimals"`

	// Denom 最小面额（cosmos 链）或原生资产符号
	Denom string `json:"denom" mapstructure:"denom"`

	// Bech32Prefix 地址前缀（cosmos 链）
	Bech32Prefix string `json:"bech32Prefix" mapstructure:"bech32_prefix"`

	// SegWit UTXO 链是否使用隔离见证地址（false 为 legacy base58Check）
	SegWit bool `json:"segwit" mapstructure:"segwit"`

	// Endpoints 有序 RPC/REST 端点列表，失败时按顺序切换
	Endpoints []string `json:"endpoints" mapstructure:"endpoints"`

	// FeeRateHint UTXO 链费率提示（sat/vB）
	FeeRateHint int64 `json:"feeRateHint" mapstructure:"fee_rate_hint"`

	// GasPriceHint 其余链的 gas 价格提示（族相关格式，如 "0.025uhelm"）
	GasPriceHint string `json:"gasPriceHint" mapstructure:"gas_price_hint"`

	// DustThreshold UTXO 链灰尘阈值（聪）
	DustThreshold int64 `json:"dustThreshold" mapstructure:"dust_threshold"`

	// EVMChainID EIP-155 链 ID（EVM 链）
	EVMChainID int64 `json:"evmChainId" mapstructure:"evm_chain_id"`

	// IsActive 是否启用
	IsActive bool `json:"isActive" mapstructure:"is_active"`
}
