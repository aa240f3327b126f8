package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindNone     Kind = ""
	KindOrder    Kind = "order"
	KindDonation Kind = "donation"
	KindBoth     Kind = "both"
)

// Submission は正規化済みのフォーム送信
type Submission struct {
	OrderNumber string `validate:"required,max=255"`
	// submission idが無くペイロードのハッシュから作った番号
	GeneratedOrderNumber bool

	ProductName      string `validate:"max=255"`
	Quantity         int64  `validate:"gte=1"`
	AmountTotalCents int64  `validate:"gte=0"`
	DonationCents    int64  `validate:"gte=0"`
	CauseID          int64  `validate:"gte=0"`
	CauseName        string `validate:"max=255"`
	Currency         string `validate:"required,len=3"`
	Email            string `validate:"omitempty,email"`
}

// Kind は寄付のみ / 注文のみ / 両方 を判定する
func (s Submission) Kind() Kind {
	donation := s.DonationCents > 0
	order := s.ProductName != ""
	switch {
	case donation && order:
		return KindBoth
	case donation:
		return KindDonation
	case order:
		return KindOrder
	default:
		return KindNone
	}
}

// FieldError は項目の形式不正
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Normalize は項目マップからSubmissionを作る。
// rawはsubmission idが無いときの注文番号の元になる
func Normalize(fields Fields, raw []byte) (Submission, error) {
	v := Extract(fields)

	s := Submission{
		OrderNumber: v[FieldOrderNumber],
		ProductName: v[FieldProductName],
		CauseName:   v[FieldCauseName],
		Currency:    strings.ToLower(v[FieldCurrency]),
		Email:       v[FieldEmail],
		Quantity:    1,
	}
	if s.OrderNumber == "" {
		s.OrderNumber = FallbackOrderNumber(raw)
		s.GeneratedOrderNumber = true
	}
	if s.Currency == "" {
		s.Currency = "usd"
	}

	var err error
	if q := v[FieldQuantity]; q != "" {
		if s.Quantity, err = parseInt(FieldQuantity, q); err != nil {
			return Submission{}, err
		}
	}
	if s.AmountTotalCents, err = centsOf(v, FieldAmountCents, FieldAmount); err != nil {
		return Submission{}, err
	}
	if s.DonationCents, err = centsOf(v, FieldDonationCents, FieldDonation); err != nil {
		return Submission{}, err
	}
	if c := v[FieldCauseID]; c != "" {
		id, perr := parseInt(FieldCauseID, c)
		switch {
		case perr == nil:
			s.CauseID = id
		case s.CauseName == "":
			//"cause" に名前が入っているフォームもある
			s.CauseName = c
		default:
			return Submission{}, perr
		}
	}
	return s, nil
}

// FallbackOrderNumber は同じペイロードなら同じ番号になる
func FallbackOrderNumber(raw []byte) string {
	sum := sha256.Sum256(raw)
	return "WH-" + hex.EncodeToString(sum[:])[:16]
}

// Secret はクエリ → ペイロード → ヘッダの順にシークレットを探す
func Secret(fields Fields, query url.Values, header http.Header) string {
	if s := strings.TrimSpace(query.Get("webhook_secret")); s != "" {
		return s
	}
	for _, k := range secretKeys {
		if s := fields.Get(k); s != "" {
			return s
		}
	}
	return strings.TrimSpace(header.Get("X-Webhook-Secret"))
}

// centsキーを優先し、無ければ金額（ドル表記）を100倍する
func centsOf(v map[string]string, centsKey, majorKey string) (int64, error) {
	if c := v[centsKey]; c != "" {
		return parseInt(centsKey, c)
	}
	m := v[majorKey]
	if m == "" {
		return 0, nil
	}
	return ParseMajorUnits(majorKey, m)
}

// ParseMajorUnits は "$1,234.50" のような金額をセントにする
func ParseMajorUnits(field, s string) (int64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, &FieldError{Field: field, Reason: "is not a valid amount"}
	}
	if d.IsNegative() {
		return 0, &FieldError{Field: field, Reason: "must not be negative"}
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

func parseInt(field, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &FieldError{Field: field, Reason: "is not a valid integer"}
	}
	if n < 0 {
		return 0, &FieldError{Field: field, Reason: "must not be negative"}
	}
	return n, nil
}
