// Package express wires the swap session manager from configuration, the
// hosting wallet's collaborators and the configured exchange providers.
package express

import (
	"net/http"

	"github.com/MMN3003/express/src/Infrastructure/oneinch"
	"github.com/MMN3003/express/src/config"
	"github.com/MMN3003/express/src/express/domain"
	"github.com/MMN3003/express/src/express/usecase"
	"github.com/MMN3003/express/src/logger"
)

// NewManager builds an ExpressManager for one swap session. The session owns
// its provider managers and caches; tear it down by dropping the reference.
func NewManager(
	cfg *config.Config,
	logg *logger.Logger,
	pair domain.Pair,
	providers []usecase.ProviderConfig,
	wallet domain.WalletDataProvider,
	fee domain.FeeProvider,
	pendingRepo domain.PendingTransactionRepository,
) domain.ExpressManager {
	var referrer *domain.ReferrerAccount
	if cfg.Referrer.Address != "" {
		referrer = &domain.ReferrerAccount{
			Address: cfg.Referrer.Address,
			FeeBps:  cfg.Referrer.FeeBps,
		}
	}

	return usecase.NewService(pair, providers, wallet, fee, pendingRepo, referrer, logg)
}

// DefaultProviders builds the provider set shipped with the module. Hosts can
// append their own ProviderConfig entries before calling NewManager.
func DefaultProviders(cfg *config.Config) ([]usecase.ProviderConfig, error) {
	client, err := oneinch.NewClient(cfg.OneInch.BaseURL,
		oneinch.WithAPIKey(cfg.OneInch.APIKey),
		oneinch.WithHTTPClient(&http.Client{Timeout: cfg.OneInch.Timeout}),
	)
	if err != nil {
		return nil, err
	}

	return []usecase.ProviderConfig{
		{
			Provider: domain.Provider{ID: "oneinch", Name: "1inch", Type: domain.ProviderTypeDEX},
			API:      client,
		},
	}, nil
}
