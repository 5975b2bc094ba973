package services

import (
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/config"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
)

// App bundles every service of one brewerp instance
type App struct {
	Store  repositories.Store
	Bus    *events.Bus
	Logger *zap.Logger

	Auth       *AuthService
	Tenancy    *TenancyService
	Users      *UserService
	Items      *ItemService
	Suppliers  *SupplierService
	Purchasing *PurchasingService
	Stock      *StockService
	Alerts     *AlertService
	Reports    *ReportService
}

// NewApp builds the services on store and bus and subscribes the low-stock
// alert handler, so alerts follow every committed stock movement.
func NewApp(store repositories.Store, bus *events.Bus, cfg config.Config, opts Options) (*App, error) {
	opts.Store = store
	opts.Publisher = bus
	opts = opts.withDefaults()

	app := &App{
		Store:      store,
		Bus:        bus,
		Logger:     opts.Logger,
		Auth:       NewAuthService(opts, cfg.Auth),
		Tenancy:    NewTenancyService(opts),
		Users:      NewUserService(opts, cfg.Auth),
		Items:      NewItemService(opts),
		Suppliers:  NewSupplierService(opts),
		Purchasing: NewPurchasingService(opts),
		Stock:      NewStockService(opts),
		Alerts:     NewAlertService(opts),
		Reports:    NewReportService(opts, cfg.Reports),
	}
	if err := bus.Subscribe(app.Alerts.HandledEvents(), app.Alerts.Handler()); err != nil {
		return nil, err
	}
	return app, nil
}
