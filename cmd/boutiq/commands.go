package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/avelinelabs/boutiq/internal/app"
	"github.com/avelinelabs/boutiq/internal/catalog"
	"github.com/avelinelabs/boutiq/internal/checkout"
	"github.com/avelinelabs/boutiq/internal/session"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
)

const usage = `usage: boutiq <command> [args]

catalog
  products              list the catalog
  product <id>          show one product
  promos                list published promo codes

session
  login <user> <pass>   sign in
  register [flags]      create an account
  whoami                show the current session
  logout                sign out

cart
  add <product-id> [qty]     add a product to the cart
  remove <product-id>        remove a product from the cart
  qty <product-id> <delta>   adjust a line quantity
  cart                       show the cart
  checkout [flags]           place the order and pay
`

func runCommand(ctx context.Context, application *app.App, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return pkgerrors.New(pkgerrors.CodeValidation, "a command is required")
	}

	switch args[0] {
	case "products":
		return cmdProducts(ctx, application)
	case "product":
		return cmdProduct(ctx, application, args[1:])
	case "promos":
		return cmdPromos(ctx, application)
	case "login":
		return cmdLogin(ctx, application, args[1:])
	case "register":
		return cmdRegister(ctx, application, args[1:])
	case "whoami":
		return cmdWhoami(application)
	case "logout":
		application.Session.Logout(ctx)
		fmt.Println("signed out")
		return nil
	case "add":
		return cmdAdd(ctx, application, args[1:])
	case "remove":
		return cmdRemove(ctx, application, args[1:])
	case "qty":
		return cmdQty(ctx, application, args[1:])
	case "cart":
		return cmdCart(application)
	case "checkout":
		return cmdCheckout(ctx, application, args[1:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown command %q", args[0]))
	}
}

func cmdProducts(ctx context.Context, application *app.App) error {
	products, err := application.Catalog.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE")
	for _, product := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\n", product.ID, product.Name, product.Price.StringFixed(2))
	}
	return w.Flush()
}

func cmdProduct(ctx context.Context, application *app.App, args []string) error {
	if len(args) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: boutiq product <id>")
	}
	product, err := application.Catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s\n  id: %s\n  price: %s\n", product.Name, product.ID, product.Price.StringFixed(2))
	if product.Description != "" {
		fmt.Printf("  %s\n", product.Description)
	}
	return nil
}

func cmdPromos(ctx context.Context, application *app.App) error {
	codes, err := application.Promo.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tDISCOUNT")
	for _, code := range codes {
		fmt.Fprintf(w, "%s\t%s%%\n", code.Code, code.DiscountPercent.StringFixed(0))
	}
	return w.Flush()
}

func cmdLogin(ctx context.Context, application *app.App, args []string) error {
	if len(args) != 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: boutiq login <user> <pass>")
	}
	if err := application.Session.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	profile, _ := application.Session.Current()
	fmt.Printf("signed in as %s %s\n", profile.FirstName, profile.LastName)
	return nil
}

func cmdRegister(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var input session.RegisterInput
	fs.StringVar(&input.Username, "username", "", "account username")
	fs.StringVar(&input.Password, "password", "", "account password")
	fs.StringVar(&input.ConfirmPassword, "confirm", "", "password confirmation")
	fs.StringVar(&input.FirstName, "first", "", "first name")
	fs.StringVar(&input.LastName, "last", "", "last name")
	fs.StringVar(&input.Email, "email", "", "email address")
	fs.StringVar(&input.Phone, "phone", "", "phone number (optional)")
	if err := fs.Parse(args); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid register flags")
	}

	if err := application.Session.Register(ctx, input); err != nil {
		return err
	}
	fmt.Println("account created, you can now sign in")
	return nil
}

func cmdWhoami(application *app.App) error {
	profile, phase := application.Session.Current()
	if profile == nil {
		fmt.Printf("not signed in (%s)\n", phase)
		return nil
	}
	fmt.Printf("%s %s <%s> (%s)\n", profile.FirstName, profile.LastName, profile.Email, phase)
	return nil
}

func cmdAdd(ctx context.Context, application *app.App, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: boutiq add <product-id> [qty]")
	}
	quantity := 1
	if len(args) == 2 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a number")
		}
		quantity = parsed
	}

	product, err := application.Catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	application.Cart.AddItem(ctx, catalog.CartInfo(*product), quantity)
	fmt.Printf("added %s, cart has %d item(s)\n", product.Name, application.Cart.Count())
	return nil
}

func cmdRemove(ctx context.Context, application *app.App, args []string) error {
	if len(args) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: boutiq remove <product-id>")
	}
	application.Cart.RemoveItem(ctx, args[0])
	fmt.Printf("cart has %d item(s)\n", application.Cart.Count())
	return nil
}

func cmdQty(ctx context.Context, application *app.App, args []string) error {
	if len(args) != 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: boutiq qty <product-id> <delta>")
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must be a number")
	}
	application.Cart.UpdateQuantity(ctx, args[0], delta)
	return cmdCart(application)
}

func cmdCart(application *app.App) error {
	lines := application.Cart.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tUNIT\tSUBTOTAL")
	for _, line := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			line.ProductID, line.Name, line.Quantity,
			line.UnitPrice.StringFixed(2), line.Subtotal().StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("total: %s\n", application.Cart.Total().StringFixed(2))
	return nil
}

func cmdCheckout(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var form checkout.Form
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.Address, "address", "", "street address")
	fs.StringVar(&form.City, "city", "", "city")
	fs.StringVar(&form.Zip, "zip", "", "postal code")
	fs.StringVar(&form.CardNumber, "card", "", "card number")
	fs.StringVar(&form.Expiry, "expiry", "", "card expiry (MM/YY)")
	fs.StringVar(&form.CVC, "cvc", "", "card cvc")
	if err := fs.Parse(args); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout flags")
	}

	confirmation, err := application.Checkout.Execute(ctx, form)
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed, charged %s\n", confirmation.OrderID, confirmation.Total.StringFixed(2))
	return nil
}
