// Command skipit-wallet is the command line rendition of the storefront's
// redemption screens: list your orders, claim units, and mint QR vouchers.
//
// Usage:
//
//	skipit-wallet orders
//	skipit-wallet claim -order ORD-XXXXXXXX -variation 104 -quantity 2
//	skipit-wallet claim-all -order ORD-XXXXXXXX
//	skipit-wallet global-qr -order ORD-XXXXXXXX
//	skipit-wallet vouchers -order ORD-XXXXXXXX
//	skipit-wallet mark-used -voucher ORD-XXXXXXXX-I0-N1
//
// Configuration comes from SKIPIT_* environment variables or skipit.yaml
// (api base URL, bearer token, output directory).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/skipit/redemption/internal/app"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: skipit-wallet <orders|claim|claim-all|global-qr|vouchers|mark-used> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]
	args := os.Args[2:]

	sdkapp.Run(func(ctx context.Context, lg *zap.Logger, _ *sdkapp.Telemetry) error {
		return run(ctx, lg, command, args)
	})
}

func run(ctx context.Context, lg *zap.Logger, command string, args []string) error {
	// Each subcommand declares only its own flags, so stray flags fail fast.
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	var orderID, voucherID *string
	var variationID, quantity *int
	switch command {
	case "orders":
	case "claim":
		orderID = fs.String("order", "", "order id")
		variationID = fs.Int("variation", 0, "variation id of the line to claim")
		quantity = fs.Int("quantity", 1, "units to claim")
	case "claim-all", "global-qr", "vouchers":
		orderID = fs.String("order", "", "order id")
	case "mark-used":
		voucherID = fs.String("voucher", "", "voucher id to mark as used")
	default:
		return errors.Errorf("unknown command %q", command)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	session, err := app.NewSession(cfg, lg)
	if err != nil {
		return err
	}

	out := os.Stdout
	switch command {
	case "orders":
		return session.ListOrders(ctx, out)
	case "claim":
		if *orderID == "" || *variationID == 0 {
			return errors.New("claim requires -order and -variation")
		}
		return session.ClaimLine(ctx, out, *orderID, *variationID, *quantity)
	case "claim-all":
		if *orderID == "" {
			return errors.New("claim-all requires -order")
		}
		return session.ClaimAll(ctx, out, *orderID)
	case "global-qr":
		if *orderID == "" {
			return errors.New("global-qr requires -order")
		}
		return session.GlobalQR(ctx, out, *orderID)
	case "vouchers":
		if *orderID == "" {
			return errors.New("vouchers requires -order")
		}
		session.ListVouchers(out, *orderID)
		return nil
	default: // mark-used
		if *voucherID == "" {
			return errors.New("mark-used requires -voucher")
		}
		session.MarkUsed(out, *voucherID)
		return nil
	}
}
