package pricing

import "fmt"

// VendorUnavailableError は価格APIの呼び出し失敗。
// ブレーカーの失敗数に数えるだけで、Runの呼び出し元には返さない
type VendorUnavailableError struct {
	Key        string
	StatusCode int
	Err        error
}

func (e *VendorUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("price vendor unavailable: key=%s status=%d", e.Key, e.StatusCode)
	}
	return fmt.Sprintf("price vendor unavailable: key=%s: %v", e.Key, e.Err)
}

func (e *VendorUnavailableError) Unwrap() error {
	return e.Err
}
