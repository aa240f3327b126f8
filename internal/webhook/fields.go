package webhook

// FieldMapping は正規化後の項目名と、探しにいく元キー（先勝ち）
type FieldMapping struct {
	Canonical string
	Sources   []string
}

const (
	FieldOrderNumber   = "order_number"
	FieldProductName   = "product_name"
	FieldQuantity      = "quantity"
	FieldAmountCents   = "amount_total_cents"
	FieldAmount        = "amount_total"
	FieldDonationCents = "donation_cents"
	FieldDonation      = "donation_amount"
	FieldCauseID       = "cause_id"
	FieldCauseName     = "cause_name"
	FieldCurrency      = "currency"
	FieldEmail         = "customer_email"
)

// FieldTable はプロバイダごとの揺れを吸収する対応表
var FieldTable = []FieldMapping{
	{Canonical: FieldOrderNumber, Sources: []string{"submission_id", "submissionID", "submissionId", "order_number", "orderNumber", "id"}},
	{Canonical: FieldProductName, Sources: []string{"product_name", "productName", "product", "item_name"}},
	{Canonical: FieldQuantity, Sources: []string{"quantity", "qty"}},
	{Canonical: FieldAmountCents, Sources: []string{"amount_total_cents", "amountTotalCents"}},
	{Canonical: FieldAmount, Sources: []string{"amount_total", "amount", "total", "payment_total"}},
	{Canonical: FieldDonationCents, Sources: []string{"donation_cents", "donationCents"}},
	{Canonical: FieldDonation, Sources: []string{"donation_amount", "donationAmount", "donation"}},
	{Canonical: FieldCauseID, Sources: []string{"cause_id", "causeId", "cause"}},
	{Canonical: FieldCauseName, Sources: []string{"cause_name", "causeName"}},
	{Canonical: FieldCurrency, Sources: []string{"currency"}},
	{Canonical: FieldEmail, Sources: []string{"email", "customer_email", "customerEmail"}},
}

// Extract は対応表を1回だけ評価して canonical → 値 を返す
func Extract(fields Fields) map[string]string {
	out := make(map[string]string, len(FieldTable))
	for _, m := range FieldTable {
		for _, src := range m.Sources {
			if v := fields.Get(src); v != "" {
				out[m.Canonical] = v
				break
			}
		}
	}
	return out
}
