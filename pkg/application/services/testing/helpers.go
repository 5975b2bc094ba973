// Package testing builds a fully wired brewerp instance on a temporary SQLite
// database, seeded with the brewery scenario, for service and API tests.
package testing

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/services"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/config"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
	"github.com/vsinha/brewerp/pkg/infrastructure/repositories/sqlite"
	scenario "github.com/vsinha/brewerp/pkg/infrastructure/testing"
)

// Start is the harness clock's initial time
var Start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Harness is a seeded brewerp instance. Lookups are keyed by code, SKU or email.
type Harness struct {
	*services.App
	Clock *Clock

	Company         *entities.Company
	Branches        map[string]*entities.Branch
	ItemsBySKU      map[string]*entities.Item
	SuppliersByCode map[string]*entities.Supplier
	UsersByEmail    map[string]*entities.User
}

// Config is the configuration harnesses run with; bcrypt is at its minimum cost
func Config() config.Config {
	cfg := config.Default()
	cfg.Auth.BcryptCost = 4
	return cfg
}

// NewHarness opens a database under dir, seeds the brewery scenario and waits
// for the alerts its opening stock raises.
func NewHarness(dir string) (*Harness, error) {
	store, err := sqlite.Open(filepath.Join(dir, "brewerp.db"))
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	bus := events.NewBus(logger, 0)
	clock := &Clock{now: Start}

	app, err := services.NewApp(store, bus, Config(), services.Options{Logger: logger, Clock: clock.Now})
	if err != nil {
		store.Close()
		return nil, err
	}
	h := &Harness{App: app, Clock: clock}

	ctx := context.Background()
	if _, err := services.NewSeeder(app).Apply(ctx, scenario.BuildBreweryScenario()); err != nil {
		h.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	bus.Flush()

	if err := h.load(ctx); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Harness) load(ctx context.Context) error {
	var err error
	if h.Company, err = h.Store.Companies().GetCompanyByCode(ctx, scenario.CompanyCode); err != nil {
		return err
	}
	id := h.Company.ID

	branches, err := h.Store.Branches().ListBranches(ctx, id)
	if err != nil {
		return err
	}
	h.Branches = make(map[string]*entities.Branch, len(branches))
	for _, b := range branches {
		h.Branches[b.Code] = b
	}

	items, err := h.Store.Items().AllItems(ctx, id)
	if err != nil {
		return err
	}
	h.ItemsBySKU = make(map[string]*entities.Item, len(items))
	for _, it := range items {
		h.ItemsBySKU[it.SKU] = it
	}

	suppliers, err := h.Store.Suppliers().ListSuppliers(ctx, id, repositories.ListOptions{Limit: repositories.MaxListLimit})
	if err != nil {
		return err
	}
	h.SuppliersByCode = make(map[string]*entities.Supplier, len(suppliers))
	for _, sp := range suppliers {
		h.SuppliersByCode[sp.Code] = sp
	}

	users, err := h.Store.Users().ListUsers(ctx, id, repositories.ListOptions{Limit: repositories.MaxListLimit})
	if err != nil {
		return err
	}
	h.UsersByEmail = make(map[string]*entities.User, len(users))
	for _, u := range users {
		h.UsersByEmail[u.Email] = u
	}
	return nil
}

// Close stops the bus and closes the database
func (h *Harness) Close() error {
	h.Bus.Close()
	return h.Store.Close()
}

// As returns the principal of the scenario user with email
func (h *Harness) As(email string) services.Principal {
	u, ok := h.UsersByEmail[email]
	if !ok {
		panic("unknown scenario user " + email)
	}
	return services.Principal{
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Role:      u.Role,
		BranchIDs: u.BranchIDs,
	}
}

// Admin is the principal of the company administrator
func (h *Harness) Admin() services.Principal {
	return h.As(scenario.AdminEmail)
}

// Branch returns the id of the branch with code
func (h *Harness) Branch(code string) string {
	b, ok := h.Branches[code]
	if !ok {
		panic("unknown scenario branch " + code)
	}
	return b.ID
}

// Item returns the id of the item with sku
func (h *Harness) Item(sku string) string {
	it, ok := h.ItemsBySKU[sku]
	if !ok {
		panic("unknown scenario item " + sku)
	}
	return it.ID
}

// Supplier returns the id of the supplier with code
func (h *Harness) Supplier(code string) string {
	sp, ok := h.SuppliersByCode[code]
	if !ok {
		panic("unknown scenario supplier " + code)
	}
	return sp.ID
}
