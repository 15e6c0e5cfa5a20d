// Package app wires a wallet session: the order service client, the order
// store, and the voucher presenter, bound to one signed-in user.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/skipit/redemption/internal/orderservice"
	"github.com/skipit/redemption/internal/planner"
	"github.com/skipit/redemption/internal/qr"
	"github.com/skipit/redemption/internal/store"
)

// Session is one user's redemption session. It lives from sign-in to
// sign-out; active vouchers minted during the session are not persisted
// anywhere else.
type Session struct {
	Store     *store.Store
	Presenter *qr.Presenter

	outputDir string
	lg        *zap.Logger
}

// NewSession builds a session from configuration. An empty token produces a
// signed-out session: order reads come back empty and writes fail.
func NewSession(cfg *Config, lg *zap.Logger) (*Session, error) {
	var svc orderservice.Service
	if cfg.Token != "" {
		client, err := orderservice.NewClient(orderservice.ClientConfig{
			BaseURL: cfg.APIBaseURL,
			Token:   cfg.Token,
		})
		if err != nil {
			return nil, errors.Wrap(err, "order service client")
		}
		svc = client
	}

	return &Session{
		Store:     store.New(svc, lg.Named("store")),
		Presenter: qr.NewPresenter(qr.WithSize(cfg.QRSize)),
		outputDir: cfg.OutputDir,
		lg:        lg,
	}, nil
}

// ListOrders refreshes the order list and prints a redemption summary per
// order.
func (s *Session) ListOrders(ctx context.Context, w io.Writer) error {
	s.Store.RefreshOrders(ctx)
	if msg := s.Store.Err(); msg != "" {
		return errors.New(msg)
	}

	orders := s.Store.Orders()
	if len(orders) == 0 {
		fmt.Fprintln(w, "No hay pedidos.")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(w, "%s  %s  $%s  [%s]\n", o.ID, o.Event.Name, o.Total.StringFixed(0), o.Status)
		for _, l := range o.Lines {
			fmt.Fprintf(w, "  %d  %s (%s)  comprados=%d reclamados=%d restantes=%d\n",
				l.VariationID, l.ProductName, l.VariationName, l.Quantity, l.Claimed, l.Remaining())
		}
	}
	return nil
}

// ClaimLine claims the given quantity of one line and writes one QR image
// per redeemed unit into the output directory.
func (s *Session) ClaimLine(ctx context.Context, w io.Writer, orderID string, variationID, quantity int) error {
	s.Store.RefreshOrders(ctx)
	if msg := s.Store.Err(); msg != "" {
		return errors.New(msg)
	}

	p := planner.New(s.Store, orderID)
	p.SetClaimAmount(variationID, quantity)
	if p.TotalSelected() == 0 {
		return errors.Errorf("nothing to claim for variation %d", variationID)
	}

	vouchers, err := p.PlanIndividualVouchers(ctx)
	if err != nil {
		return err
	}
	for _, v := range vouchers {
		path, err := s.Presenter.SaveImage(v, s.outputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s -> %s\n", v.ID.WireString(), path)
	}
	return nil
}

// GlobalQR bundles the whole order into one voucher and writes its QR image.
func (s *Session) GlobalQR(ctx context.Context, w io.Writer, orderID string) error {
	s.Store.RefreshOrders(ctx)
	if msg := s.Store.Err(); msg != "" {
		return errors.New(msg)
	}

	p := planner.New(s.Store, orderID)
	v, err := p.PlanGlobalVoucher()
	if err != nil {
		return err
	}
	path, err := s.Presenter.SaveImage(v, s.outputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s -> %s\n", v.ID.WireString(), path)
	return nil
}

// ClaimAll redeems everything still unclaimed on the order.
func (s *Session) ClaimAll(ctx context.Context, w io.Writer, orderID string) error {
	s.Store.RefreshOrders(ctx)
	if msg := s.Store.Err(); msg != "" {
		return errors.New(msg)
	}

	updated, err := s.Store.ClaimFullOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if updated == nil {
		fmt.Fprintln(w, "Nada pendiente de canje.")
		return nil
	}
	fmt.Fprintf(w, "%s ahora %s\n", updated.ID, updated.Status)
	return nil
}

// ListVouchers prints the order's active vouchers in issuance order.
func (s *Session) ListVouchers(w io.Writer, orderID string) {
	vouchers := s.Store.ActiveVouchers(orderID)
	if len(vouchers) == 0 {
		fmt.Fprintln(w, "Sin vouchers activos.")
		return
	}
	for _, v := range vouchers {
		fmt.Fprintf(w, "%s  %s  %v  $%s\n", v.ID.WireString(), v.Kind, v.Drinks, v.Total.StringFixed(0))
	}
}

// MarkUsed removes a voucher from the active registry.
func (s *Session) MarkUsed(w io.Writer, wireID string) {
	s.Store.MarkVoucherUsed(wireID)
	fmt.Fprintf(w, "Voucher %s retirado.\n", wireID)
}
