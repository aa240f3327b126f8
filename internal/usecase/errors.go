package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	//404 決済プロバイダにセッションが無い（恒久的）
	ErrPaymentNotFound = errors.New("payment not found")
	//202 まだ支払い完了していない（一時的、再試行/ポーリング）
	ErrPaymentIncomplete = errors.New("payment incomplete")
	//401 webhookシークレット不一致
	ErrSecretMismatch = errors.New("webhook secret mismatch")
)

type HTTPError struct {
	Status  int
	Message string
	Detail  string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// ValidationError は入力（webhookの項目など）の不正。恒久的なので再送しても通らない
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreWriteError は注文・寄付・集計の書き込み失敗。
// 手で突き合わせできるように冪等キーを持たせる
type StoreWriteError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed: op=%s key=%s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

func storeWriteError(op, key string, err error) error {
	return &StoreWriteError{Op: op, Key: key, Err: err}
}

// AsHTTPError はusecaseのエラーをHTTPステータスに対応づける
func AsHTTPError(err error) (*HTTPError, bool) {
	if err == nil {
		return nil, false
	}

	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return &HTTPError{Status: http.StatusBadRequest, Message: "validation_failed", Detail: ve.Error()}, true
	}

	var se *StoreWriteError
	if errors.As(err, &se) {
		return &HTTPError{Status: http.StatusInternalServerError, Message: "store_write_failed", Detail: se.Error()}, true
	}

	switch {
	case errors.Is(err, ErrPaymentNotFound):
		return &HTTPError{Status: http.StatusNotFound, Message: "payment_not_found"}, true
	case errors.Is(err, ErrPaymentIncomplete):
		return &HTTPError{Status: http.StatusAccepted, Message: "payment_incomplete"}, true
	case errors.Is(err, ErrSecretMismatch):
		return &HTTPError{Status: http.StatusUnauthorized, Message: "unauthorized"}, true
	}
	return nil, false
}
