package cart_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/cucumber/godog"

	"github.com/noah-isme/discount-store/internal/cart"
	"github.com/noah-isme/discount-store/internal/catalog"
	"github.com/noah-isme/discount-store/internal/discount"
	"github.com/noah-isme/discount-store/internal/pricing"
)

type checkoutContext struct {
	products []catalog.Product
	deals    []discount.Definition
	byName   map[string]catalog.Product
	cart     *cart.Cart
	err      error
}

func (c *checkoutContext) reset() {
	c.products = nil
	c.deals = nil
	c.byName = map[string]catalog.Product{}
	c.cart = nil
	c.err = nil
}

func parseMoney(s string) (pricing.Money, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return pricing.Money(math.Round(f * 100)), nil
}

func (c *checkoutContext) theProductPriced(name, price string) error {
	amount, err := parseMoney(price)
	if err != nil {
		return err
	}
	p := catalog.Product{ID: int64(len(c.products) + 1), Name: name, Price: amount}
	c.products = append(c.products, p)
	c.byName[name] = p
	return nil
}

func (c *checkoutContext) theProductPricedWithDeal(name, price, kind, dealPrice string) error {
	if err := c.theProductPriced(name, price); err != nil {
		return err
	}
	t, err := discount.ParseType(kind)
	if err != nil {
		return err
	}
	amount, err := parseMoney(dealPrice)
	if err != nil {
		return err
	}
	c.deals = append(c.deals, discount.Definition{
		ID: int64(len(c.deals) + 1), Type: t, ProductID: c.byName[name].ID, DiscountedUnitPrice: amount,
	})
	return nil
}

func (c *checkoutContext) anEmptyCart() error {
	c.cart = cart.Empty()
	return nil
}

func (c *checkoutContext) pipeline() *cart.Pipeline {
	return cart.NewPipeline(catalog.NewStatic(c.products...), cart.DefaultRules(discount.NewStatic(c.deals...)), nil)
}

func (c *checkoutContext) product(name string) (catalog.Product, error) {
	p, ok := c.byName[name]
	if !ok {
		return catalog.Product{}, fmt.Errorf("unknown product %q", name)
	}
	return p, nil
}

func (c *checkoutContext) iAdd(name string) error {
	return c.iAddTimes(name, 1)
}

func (c *checkoutContext) iAddTimes(name string, n int) error {
	p, err := c.product(name)
	if err != nil {
		return err
	}
	pl := c.pipeline()
	for i := 0; i < n; i++ {
		next, err := pl.AddItem(context.Background(), c.cart, p.ID)
		if err != nil {
			return err
		}
		c.cart = next
	}
	return nil
}

func (c *checkoutContext) iRemove(name string) error {
	p, err := c.product(name)
	if err != nil {
		return err
	}
	next, err := c.pipeline().RemoveItem(context.Background(), c.cart, p.ID)
	if err != nil {
		c.err = err
		return nil
	}
	c.cart = next
	return nil
}

func (c *checkoutContext) only(name string) (cart.Item, error) {
	p, err := c.product(name)
	if err != nil {
		return cart.Item{}, err
	}
	var found []cart.Item
	for _, it := range c.cart.Items {
		if it.Product.ID == p.ID {
			found = append(found, it)
		}
	}
	if len(found) != 1 {
		return cart.Item{}, fmt.Errorf("expected one line of %q, got %d", name, len(found))
	}
	return found[0], nil
}

func (c *checkoutContext) holdsAtFullPrice(qty int, name string) error {
	it, err := c.only(name)
	if err != nil {
		return err
	}
	if it.Quantity != qty || it.Discounted() {
		return fmt.Errorf("expected %d undiscounted %q, got %+v", qty, name, it)
	}
	return nil
}

func (c *checkoutContext) holdsDiscounted(qty int, name, price string) error {
	it, err := c.only(name)
	if err != nil {
		return err
	}
	want, err := parseMoney(price)
	if err != nil {
		return err
	}
	if it.Quantity != qty || !it.Discounted() || it.UnitPrice() != want {
		return fmt.Errorf("expected %d %q at %d, got %+v", qty, name, want, it)
	}
	return nil
}

func (c *checkoutContext) totalIs(amount string) error {
	want, err := parseMoney(amount)
	if err != nil {
		return err
	}
	if got := c.cart.Total(); got != want {
		return fmt.Errorf("expected total %d, got %d", want, got)
	}
	return nil
}

func (c *checkoutContext) failsNotInCart() error {
	if !errors.Is(c.err, cart.ErrNotInCart) {
		return fmt.Errorf("expected not-in-cart error, got %v", c.err)
	}
	return nil
}

func InitializeCheckoutScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the product "([^"]*)" priced (\d+\.\d+)$`, tc.theProductPriced)
	ctx.Step(`^the product "([^"]*)" priced (\d+\.\d+) with a "([^"]*)" deal at (\d+\.\d+)$`, tc.theProductPricedWithDeal)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^I add "([^"]*)" to the cart$`, tc.iAdd)
	ctx.Step(`^I add "([^"]*)" to the cart (\d+) times$`, tc.iAddTimes)
	ctx.Step(`^I remove "([^"]*)" from the cart$`, tc.iRemove)
	ctx.Step(`^the cart holds (\d+) "([^"]*)" at full price$`, tc.holdsAtFullPrice)
	ctx.Step(`^the cart holds (\d+) "([^"]*)" discounted to (\d+\.\d+)$`, tc.holdsDiscounted)
	ctx.Step(`^the cart total is (\d+\.\d+)$`, tc.totalIs)
	ctx.Step(`^the request fails because the product is not in the cart$`, tc.failsNotInCart)
}

func TestCheckoutFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCheckoutScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
