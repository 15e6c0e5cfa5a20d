package voucher

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// The wire payload is a de facto protocol shared with the scanning side:
//
//	{"type":"GLOBAL","orderNumber":"ORD-...","eventName":"...","drinks":["2x ..."],"total":15000}
//	{"type":"INDIVIDUAL","orderNumber":"ORD-...-I0-N1","eventName":"...","drinks":["1x ..."],"total":7000}
//
// Field names, the orderNumber format and the numeric total must be preserved
// exactly; jx gives byte-level control over what is emitted.

// EncodeWire renders the voucher payload that is embedded in the QR image.
func (v Voucher) EncodeWire() []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("type")
	e.Str(string(v.Kind))
	e.FieldStart("orderNumber")
	e.Str(v.ID.WireString())
	e.FieldStart("eventName")
	e.Str(v.EventName)
	e.FieldStart("drinks")
	e.ArrStart()
	for _, d := range v.Drinks {
		e.Str(d)
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Num(jx.Num(v.Total.String()))
	e.ObjEnd()
	return e.Bytes()
}

// DecodeWire parses a voucher payload as the scanning collaborator does.
// Unknown fields are skipped so older payload producers stay readable.
func DecodeWire(data []byte) (Voucher, error) {
	var (
		v       Voucher
		rawID   string
		hasKind bool
	)
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "type":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "type")
			}
			v.Kind = Kind(s)
			hasKind = true
			return nil
		case "orderNumber":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "orderNumber")
			}
			rawID = s
			return nil
		case "eventName":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "eventName")
			}
			v.EventName = s
			return nil
		case "drinks":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "drink entry")
				}
				v.Drinks = append(v.Drinks, s)
				return nil
			})
		case "total":
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "total")
			}
			total, err := decimal.NewFromString(string(n))
			if err != nil {
				return errors.Wrap(err, "parse total")
			}
			v.Total = total
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return Voucher{}, errors.Wrap(err, "decode voucher payload")
	}

	if !hasKind {
		return Voucher{}, errors.New("voucher payload missing type")
	}
	switch v.Kind {
	case KindGlobal, KindIndividual:
	default:
		return Voucher{}, errors.Errorf("unknown voucher type %q", v.Kind)
	}

	id, err := ParseWireID(rawID)
	if err != nil {
		return Voucher{}, errors.Wrap(err, "voucher id")
	}
	if v.Kind == KindIndividual && id.Global() {
		return Voucher{}, errors.Errorf("individual voucher with global id %q", rawID)
	}
	if v.Kind == KindGlobal && !id.Global() {
		return Voucher{}, errors.Errorf("global voucher with individual id %q", rawID)
	}
	v.ID = id
	return v, nil
}

// DecodeScanned recovers a voucher ID from whatever a scanner hands over:
// either the full JSON payload or a bare id string.
func DecodeScanned(input string) (ID, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "{") {
		v, err := DecodeWire([]byte(input))
		if err != nil {
			return ID{}, err
		}
		return v.ID, nil
	}
	return ParseWireID(input)
}
