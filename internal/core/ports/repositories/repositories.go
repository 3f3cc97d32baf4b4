package repositories

// RepositoryProvider aggregates all repositories for dependency injection.
type RepositoryProvider struct {
	OrderRepo      OrderRepositoryWithTx
	RateRepo       RateVersionRepository
	WalletRepo     WalletRepositoryWithTx
	WithdrawalRepo WithdrawalRepository
	UserRepo       UserRepository
	SettingRepo    SettingRepository
}
