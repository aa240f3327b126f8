package validator

import (
	"strings"

	"storefront/internal/webhook"

	validatorv10 "github.com/go-playground/validator/v10"
)

type SubmissionValidator struct {
	v *validatorv10.Validate
}

// webhookの正規化結果を検証する
func NewSubmissionValidator() *SubmissionValidator {
	v := validatorv10.New()
	v.RegisterStructValidation(submissionStructValidation, webhook.Submission{})
	return &SubmissionValidator{v: v}
}

// 失敗したら最初の項目を *webhook.FieldError で返す
func (s *SubmissionValidator) ValidateSubmission(sub webhook.Submission) error {
	err := s.v.Struct(sub)
	if err == nil {
		return nil
	}

	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok || len(ve) == 0 {
		return &webhook.FieldError{Field: "payload", Reason: err.Error()}
	}
	fe := ve[0]
	return &webhook.FieldError{Field: fieldName(fe.Field()), Reason: reason(fe)}
}

// 寄付のみ / 注文のみ / 両方 のどれにも当たらない送信と、寄付先の無い寄付は受けない
func submissionStructValidation(sl validatorv10.StructLevel) {
	sub := sl.Current().Interface().(webhook.Submission)

	switch sub.Kind() {
	case webhook.KindNone:
		sl.ReportError(sub.ProductName, "ProductName", "ProductName", "order_or_donation", "")
	case webhook.KindDonation, webhook.KindBoth:
		if sub.CauseID <= 0 {
			sl.ReportError(sub.CauseID, "CauseID", "CauseID", "donation_cause", "")
		}
	}
}

func reason(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid email"
	case "order_or_donation":
		return "submission has neither a product nor a donation amount"
	case "donation_cause":
		return "is required for a donation"
	case "gte":
		return "must be at least " + fe.Param()
	case "max", "len":
		return "has invalid length"
	}
	return "is invalid"
}

var fieldNames = map[string]string{
	"OrderNumber":      webhook.FieldOrderNumber,
	"ProductName":      webhook.FieldProductName,
	"Quantity":         webhook.FieldQuantity,
	"AmountTotalCents": webhook.FieldAmountCents,
	"DonationCents":    webhook.FieldDonationCents,
	"CauseID":          webhook.FieldCauseID,
	"CauseName":        webhook.FieldCauseName,
	"Currency":         webhook.FieldCurrency,
	"Email":            webhook.FieldEmail,
}

func fieldName(f string) string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return strings.ToLower(f)
}
