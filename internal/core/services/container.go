package services

import (
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
)

// Container holds all the services and manages their dependencies.
type Container struct {
	User       portssvc.UserSvcFacade
	Rate       portssvc.RateSvcFacade
	Order      portssvc.OrderSvcFacade
	Wallet     portssvc.WalletSvcFacade
	Settlement portssvc.SettlementSvcFacade
	Commission portssvc.CommissionResolverSvc
	Settings   *SettingCache
}

// NewContainer wires the service graph. The event publisher may be nil when
// no broker is configured.
func NewContainer(repos *portsrepo.RepositoryProvider, quotes portssvc.QuoteSource, events portssvc.OrderEventPublisher, settings *SettingCache) *Container {
	container := &Container{Settings: settings}

	container.User = NewUserService(repos.UserRepo)
	container.Commission = NewCommissionResolver(settings)
	container.Rate = NewRateService(repos.RateRepo, quotes, container.Commission, settings)
	container.Settlement = NewSettlementService(repos.WalletRepo, repos.UserRepo)
	container.Order = NewOrderService(repos.OrderRepo, repos.RateRepo, container.Settlement, events)
	container.Wallet = NewWalletService(repos.WalletRepo, repos.WithdrawalRepo, repos.UserRepo)

	return container
}
