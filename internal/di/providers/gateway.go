package providers

import (
	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/config"
	"github.com/lumieapp/lumie-sync/internal/gateway"
	"github.com/lumieapp/lumie-sync/internal/logger"
)

// ProvideGateway provides the rate-limited backend client.
func ProvideGateway(i do.Injector) (gateway.Gateway, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	creds := do.MustInvoke[*CredentialsHandle](i)

	client, err := gateway.New(cfg.Backend.BaseURL, cfg.Backend.OwnerID, creds, log.Logger, gateway.Options{
		Timeout:           cfg.Backend.Timeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
