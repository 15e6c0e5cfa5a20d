// Package qr renders vouchers as scannable QR images and offers the
// save/share actions of the voucher views.
package qr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"github.com/skipit/redemption/internal/domain/voucher"
)

// ErrShareUnsupported is reported when the platform offers no native share
// capability.
var ErrShareUnsupported = errors.New("sharing is not supported on this platform")

// ShareFunc is a platform share hook: it receives a title and the PNG bytes
// of the rendered voucher.
type ShareFunc func(ctx context.Context, title string, png []byte) error

// Presenter renders voucher payloads into QR PNGs.
type Presenter struct {
	size  int
	share ShareFunc
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithSize sets the square image size in pixels. Default 512.
func WithSize(px int) Option {
	return func(p *Presenter) { p.size = px }
}

// WithShare installs the platform share capability.
func WithShare(fn ShareFunc) Option {
	return func(p *Presenter) { p.share = fn }
}

// NewPresenter builds a Presenter.
func NewPresenter(opts ...Option) *Presenter {
	p := &Presenter{size: 512}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render encodes the voucher's wire payload as a QR PNG. Medium recovery
// keeps codes scannable on dim bar displays without inflating the image.
func (p *Presenter) Render(v voucher.Voucher) ([]byte, error) {
	png, err := qrcode.Encode(string(v.EncodeWire()), qrcode.Medium, p.size)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr")
	}
	return png, nil
}

// RenderBatch renders every voucher of a batch concurrently. Either all
// images are returned in the batch's order, or the first error.
func (p *Presenter) RenderBatch(ctx context.Context, vouchers []voucher.Voucher) ([][]byte, error) {
	images := make([][]byte, len(vouchers))
	g, _ := errgroup.WithContext(ctx)
	for i, v := range vouchers {
		g.Go(func() error {
			png, err := p.Render(v)
			if err != nil {
				return errors.Wrapf(err, "voucher %s", v.ID.WireString())
			}
			images[i] = png
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// SaveImage writes the voucher's QR PNG into dir and returns the file path.
// The file name mirrors the download name users got in the storefront.
func (p *Presenter) SaveImage(v voucher.Voucher, dir string) (string, error) {
	png, err := p.Render(v)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(v))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", errors.Wrap(err, "write qr image")
	}
	return path, nil
}

// Share hands the rendered voucher to the platform share capability, or
// reports ErrShareUnsupported when none is installed.
func (p *Presenter) Share(ctx context.Context, v voucher.Voucher) error {
	if p.share == nil {
		return ErrShareUnsupported
	}
	png, err := p.Render(v)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Pedido %s - %s", v.ID.WireString(), v.EventName)
	if err := p.share(ctx, title, png); err != nil {
		return errors.Wrap(err, "share voucher")
	}
	return nil
}

// FileName returns the download file name for a voucher image.
func FileName(v voucher.Voucher) string {
	id := strings.ReplaceAll(v.ID.WireString(), string(filepath.Separator), "_")
	return "QR_Pedido_" + id + ".png"
}
