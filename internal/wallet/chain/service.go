package chain

import (
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// service 实现 Service 接口
type service struct {
	byID    map[string]Network
	ordered []string
}

// Service 定义链配置注册表接口（只读配置，不在运行期变更）
type Service interface {
	// GetNetwork 根据 chain_id 查询链配置
	GetNetwork(chainID string) (Network, error)

	// ListNetworks 查询所有链配置
	ListNetworks() []Network

	// GetActiveNetworks 查询启用的链配置
	GetActiveNetworks() []Network

	// ParseRPCURLs 解析 RPC URL（支持多个，逗号分隔）
	ParseRPCURLs(rpcURL string) []string
}

// NewService 创建链配置注册表
//
//nolint:ireturn
func NewService(networks []Network) (Service, error) {
	s := &service{
		byID:    make(map[string]Network, len(networks)),
		ordered: make([]string, 0, len(networks)),
	}

	for i := range networks {
		n := networks[i]

		if err := validateNetwork(n); err != nil {
			return nil, errors.Wrapf(err, "invalid network at index %d", i)
		}

		if _, exists := s.byID[n.ChainID]; exists {
			return nil, errors.Errorf("duplicate network %q", n.ChainID)
		}

		s.byID[n.ChainID] = n
		s.ordered = append(s.ordered, n.ChainID)
	}

	return s, nil
}

func validateNetwork(n Network) error {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(n.ChainID, "chainId"),
		vala.StringNotEmpty(string(n.Family), "family"),
		vala.GreaterThan(len(n.Endpoints), 0, "endpoints"),
	).Check(); err != nil {
		return err
	}

	switch n.Family {
	case FamilyUTXO, FamilyEVM, FamilyCosmos, FamilySolana:
	default:
		return errors.Errorf("unknown family %q", n.Family)
	}

	if n.Family == FamilyCosmos && n.Bech32Prefix == "" {
		return errors.Errorf("network %q: cosmos networks require a bech32 prefix", n.ChainID)
	}

	return nil
}

// LoadNetworks 从配置文件读取链配置列表（yaml/json，顶层 networks 键）
func LoadNetworks(path string) ([]Network, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read network registry %q", path)
	}

	var networks []Network
	if err := v.UnmarshalKey("networks", &networks); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal network registry")
	}

	return networks, nil
}

// GetNetwork 根据 chain_id 查询链配置
func (s *service) GetNetwork(chainID string) (Network, error) {
	n, ok := s.byID[chainID]
	if !ok {
		return Network{}, errors.Errorf("network %q not registered", chainID)
	}

	return n, nil
}

// ListNetworks 查询所有链配置
func (s *service) ListNetworks() []Network {
	networks := make([]Network, 0, len(s.ordered))
	for _, id := range s.ordered {
		networks = append(networks, s.byID[id])
	}

	return networks
}

// GetActiveNetworks 查询启用的链配置
func (s *service) GetActiveNetworks() []Network {
	networks := make([]Network, 0, len(s.ordered))
	for _, id := range s.ordered {
		if n := s.byID[id]; n.IsActive {
			networks = append(networks, n)
		}
	}

	return networks
}

// ParseRPCURLs 解析 RPC URL（支持多个，逗号分隔）
func (s *service) ParseRPCURLs(rpcURL string) []string {
	if rpcURL == "" {
		return nil
	}

	urls := strings.Split(rpcURL, ",")
	result := make([]string, 0, len(urls))

	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url != "" {
			result = append(result, url)
		}
	}

	return result
}
