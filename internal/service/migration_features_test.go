package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"beauty-kart/internal/events"
	"beauty-kart/internal/gateway"
	"beauty-kart/internal/gateway/gatewaytest"
	"beauty-kart/internal/localcart"
	"beauty-kart/internal/session"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const featureClientID = "client-1"

type migrationFeature struct {
	t *testing.T

	srv      *gatewaytest.Server
	kv       session.Store
	view     *CartView
	products map[string]string
	email    string

	previousCart     string
	callsBeforeLogin int
	login            *LoginResult
}

func (w *migrationFeature) reset() error {
	w.srv = gatewaytest.NewServer(w.t)
	client, err := gateway.NewClient(gateway.Config{
		BaseURL: w.srv.APIURL(),
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	deps := Dependencies{
		Carts:     client,
		Auth:      client,
		Products:  NewProductService(client, logger),
		Migration: NewMigrationService(client, logger),
		Orders:    NewOrderService(client, logger),
	}

	w.kv = session.NewMemoryStore(0)
	w.view = NewCartView(context.Background(), deps.viewConfig(w.kv, events.NewBus(), logger))
	w.products = make(map[string]string)
	w.email = ""
	w.previousCart = ""
	w.callsBeforeLogin = 0
	w.login = nil
	return nil
}

func (w *migrationFeature) productID(name string) (string, error) {
	id, ok := w.products[name]
	if !ok {
		return "", fmt.Errorf("unknown product %q", name)
	}
	return id, nil
}

func (w *migrationFeature) theCatalogueContains(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		name := row.Cells[0].Value
		stock, err := strconv.Atoi(row.Cells[2].Value)
		if err != nil {
			return err
		}
		w.products[name] = w.srv.AddProduct(name, row.Cells[1].Value, stock)
	}
	return nil
}

func (w *migrationFeature) aClientAccount(email string) error {
	w.email = email
	w.srv.AddUser(email, "secret", "user-1", featureClientID, "client")
	return nil
}

func (w *migrationFeature) theVisitorAdds(quantity int, name string) error {
	id, err := w.productID(name)
	if err != nil {
		return err
	}
	_, err = w.view.AddItem(context.Background(), id, quantity)
	return err
}

func (w *migrationFeature) theStockDropsTo(name string, stock int) error {
	id, err := w.productID(name)
	if err != nil {
		return err
	}
	w.srv.SetStock(id, stock)
	return nil
}

func (w *migrationFeature) theClientAlreadyHasAnActiveCartWith(quantity int, name string) error {
	id, err := w.productID(name)
	if err != nil {
		return err
	}
	w.previousCart = w.srv.SeedCart(featureClientID, true)
	w.srv.SeedLine(w.previousCart, id, quantity)
	return nil
}

func (w *migrationFeature) theStoredLocalCartIs(doc *godog.DocString) error {
	return w.kv.Set(context.Background(), localcart.StorageKey, []byte(doc.Content))
}

func (w *migrationFeature) theVisitorLogsIn() error {
	w.callsBeforeLogin = w.srv.TotalCalls()
	result, err := w.view.Login(context.Background(), w.email, "secret")
	if err != nil {
		return err
	}
	if result.MigrationErr != nil {
		return fmt.Errorf("migration failed: %w", result.MigrationErr)
	}
	w.login = result
	return nil
}

func (w *migrationFeature) theVisitorSetsTheQuantityTo(name string, quantity int) error {
	id, err := w.productID(name)
	if err != nil {
		return err
	}
	_, err = w.view.SetQuantity(context.Background(), id, quantity)
	return err
}

func (w *migrationFeature) activeCartQuantity(name string) (int, error) {
	id, err := w.productID(name)
	if err != nil {
		return 0, err
	}

	active := w.srv.ActiveCarts(featureClientID)
	if len(active) != 1 {
		return 0, fmt.Errorf("expected 1 active cart, got %d", len(active))
	}

	quantity := 0
	for _, line := range w.srv.Lines(active[0].ID) {
		if line.Product.ID == id {
			quantity += line.Quantity
		}
	}
	return quantity, nil
}

func (w *migrationFeature) theActiveRemoteCartContains(quantity int, name string) error {
	got, err := w.activeCartQuantity(name)
	if err != nil {
		return err
	}
	if got != quantity {
		return fmt.Errorf("expected %d %q in the active cart, got %d", quantity, name, got)
	}
	return nil
}

func (w *migrationFeature) theActiveRemoteCartDoesNotContain(name string) error {
	return w.theActiveRemoteCartContains(0, name)
}

func (w *migrationFeature) theLocalCartIsEmpty() error {
	if cart := w.view.local.Get(context.Background()); !cart.IsEmpty() {
		return fmt.Errorf("expected an empty local cart, got %d line(s)", len(cart.Lines))
	}
	return nil
}

func (w *migrationFeature) theClientHasActiveCarts(count int) error {
	if got := len(w.srv.ActiveCarts(featureClientID)); got != count {
		return fmt.Errorf("expected %d active cart(s), got %d", count, got)
	}
	return nil
}

func (w *migrationFeature) thePreviousCartIsInactive() error {
	for _, cart := range w.srv.Carts(featureClientID) {
		if cart.ID == w.previousCart {
			if cart.IsActive {
				return fmt.Errorf("cart %s is still active", cart.ID)
			}
			return nil
		}
	}
	return fmt.Errorf("previous cart %s no longer exists", w.previousCart)
}

func (w *migrationFeature) theCartSubtotalIs(amount string) error {
	view, err := w.view.Snapshot(context.Background())
	if err != nil {
		return err
	}
	want, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	if !view.Subtotal.Equal(want) {
		return fmt.Errorf("expected subtotal %s, got %s", want, view.Subtotal)
	}
	return nil
}

func (w *migrationFeature) theCartHasLines(count int) error {
	view, err := w.view.Snapshot(context.Background())
	if err != nil {
		return err
	}
	if len(view.Lines) != count {
		return fmt.Errorf("expected %d line(s), got %d", count, len(view.Lines))
	}
	return nil
}

func (w *migrationFeature) theCartHoldsInASingleLine(quantity int, name string) error {
	id, err := w.productID(name)
	if err != nil {
		return err
	}
	view, err := w.view.Snapshot(context.Background())
	if err != nil {
		return err
	}

	matches := 0
	for _, line := range view.Lines {
		if line.ProductID != id {
			continue
		}
		matches++
		if line.Quantity != quantity {
			return fmt.Errorf("expected quantity %d, got %d", quantity, line.Quantity)
		}
	}
	if matches != 1 {
		return fmt.Errorf("expected a single line for %q, got %d", name, matches)
	}
	return nil
}

func (w *migrationFeature) linesAreMigrated(count int) error {
	if w.login == nil || w.login.Migration == nil {
		return fmt.Errorf("no migration ran")
	}
	if w.login.Migration.Migrated != count {
		return fmt.Errorf("expected %d migrated line(s), got %d", count, w.login.Migration.Migrated)
	}
	return nil
}

func (w *migrationFeature) theSkippedLineIsForInsufficientStock(name string) error {
	if w.login == nil || w.login.Migration == nil {
		return fmt.Errorf("no migration ran")
	}
	skipped := w.login.Migration.Skipped
	if len(skipped) != 1 {
		return fmt.Errorf("expected 1 skipped line, got %d", len(skipped))
	}
	if skipped[0].Line.Name != name {
		return fmt.Errorf("expected %q to be skipped, got %q", name, skipped[0].Line.Name)
	}
	if !skipped[0].InsufficientStock() {
		return fmt.Errorf("expected insufficient stock, got %v", skipped[0].Reason)
	}
	return nil
}

func (w *migrationFeature) theMigrationSummaryIs(summary string) error {
	if got := w.login.Migration.Summary(); got != summary {
		return fmt.Errorf("expected summary %q, got %q", summary, got)
	}
	return nil
}

func (w *migrationFeature) noCartRequestReachedTheRemoteAPI() error {
	for _, route := range [][2]string{
		{http.MethodGet, "/paniers/client/{clientId}/actif"},
		{http.MethodPut, "/paniers/{id}"},
		{http.MethodPost, "/paniers"},
		{http.MethodPost, "/ligne-panier"},
	} {
		if n := w.srv.Calls(route[0], route[1]); n != 0 {
			return fmt.Errorf("expected no %s %s request, got %d", route[0], route[1], n)
		}
	}
	if n := w.srv.TotalCalls() - w.callsBeforeLogin; n != 1 {
		return fmt.Errorf("expected only the login request, got %d request(s)", n)
	}
	return nil
}

func initializeMigrationScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		w := &migrationFeature{t: t}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			return ctx, w.reset()
		})
		ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
			w.view.Close()
			return ctx, nil
		})

		// Given steps
		ctx.Step(`^the catalogue contains:$`, w.theCatalogueContains)
		ctx.Step(`^a client account "([^"]*)"$`, w.aClientAccount)
		ctx.Step(`^the visitor adds (\d+) "([^"]*)"$`, w.theVisitorAdds)
		ctx.Step(`^the stock of "([^"]*)" drops to (\d+)$`, w.theStockDropsTo)
		ctx.Step(`^the client already has an active cart with (\d+) "([^"]*)"$`, w.theClientAlreadyHasAnActiveCartWith)
		ctx.Step(`^the stored local cart is:$`, w.theStoredLocalCartIs)

		// When steps
		ctx.Step(`^the visitor logs in$`, w.theVisitorLogsIn)
		ctx.Step(`^the visitor sets the quantity of "([^"]*)" to (\d+)$`, w.theVisitorSetsTheQuantityTo)

		// Then steps
		ctx.Step(`^the active remote cart contains (\d+) "([^"]*)"$`, w.theActiveRemoteCartContains)
		ctx.Step(`^the active remote cart does not contain "([^"]*)"$`, w.theActiveRemoteCartDoesNotContain)
		ctx.Step(`^the local cart is empty$`, w.theLocalCartIsEmpty)
		ctx.Step(`^the client has (\d+) active carts?$`, w.theClientHasActiveCarts)
		ctx.Step(`^the previous cart is inactive$`, w.thePreviousCartIsInactive)
		ctx.Step(`^the cart subtotal is ([\d.]+)$`, w.theCartSubtotalIs)
		ctx.Step(`^the cart has (\d+) lines?$`, w.theCartHasLines)
		ctx.Step(`^the cart holds (\d+) "([^"]*)" in a single line$`, w.theCartHoldsInASingleLine)
		ctx.Step(`^(\d+) lines are migrated$`, w.linesAreMigrated)
		ctx.Step(`^the skipped line is "([^"]*)" for insufficient stock$`, w.theSkippedLineIsForInsufficientStock)
		ctx.Step(`^the migration summary is "([^"]*)"$`, w.theMigrationSummaryIs)
		ctx.Step(`^no cart request reached the remote API$`, w.noCartRequestReachedTheRemoteAPI)
	}
}

func TestMigrationFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeMigrationScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
