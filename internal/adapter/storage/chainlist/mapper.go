package chainlist

import (
	"strings"

	dto "rpchealth/internal/adapter/storage/chainlist/dto"
	"rpchealth/internal/domain/entity"

	"go.uber.org/zap"
)

// templatePlaceholder marks registry URLs that need an API key substituted before use.
const templatePlaceholder = "${"

// mapNetworkType converts a raw DTO network type to its domain entity counterpart.
func mapNetworkType(rawType dto.NetworkTypeRaw) entity.NetworkType {
	switch rawType {
	case dto.NetworkMainnetRaw:
		return entity.NetworkMainnet
	case dto.NetworkTestnetRaw:
		return entity.NetworkTestnet
	default:
		return entity.NetworkType(rawType)
	}
}

// toDomainChains converts raw DTO chains to domain chains, dropping URLs that cannot be probed as-is.
func toDomainChains(rawChains []dto.ChainRaw, logger *zap.Logger) []entity.Chain {
	if rawChains == nil {
		return nil
	}
	domainChains := make([]entity.Chain, 0, len(rawChains))
	for _, raw := range rawChains {
		domainChains = append(domainChains, entity.Chain{
			Name:      raw.Name,
			ShortName: raw.ShortName,
			ChainID:   raw.ChainID,
			NetworkID: raw.NetworkID,
			Network:   mapNetworkType(raw.Network),
			RPC:       toEndpointURLs(raw, logger),
		})
	}
	return domainChains
}

func toEndpointURLs(raw dto.ChainRaw, logger *zap.Logger) []entity.EndpointURL {
	if raw.RPC == nil {
		return nil
	}
	urls := make([]entity.EndpointURL, 0, len(raw.RPC))
	for _, rpcStr := range raw.RPC {
		if strings.Contains(rpcStr, templatePlaceholder) {
			continue
		}
		endpointURL, err := entity.NewEndpointURL(rpcStr)
		if err != nil {
			if logger != nil {
				logger.Warn("Skipping invalid RPC URL during mapping",
					zap.String("rawUrl", rpcStr),
					zap.Int64("chainId", raw.ChainID),
					zap.Error(err))
			}
			continue
		}
		urls = append(urls, endpointURL)
	}
	return urls
}
