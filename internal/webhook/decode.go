// Package webhook はフォーム系プロバイダから届くwebhookを1つの項目マップに正規化する。
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
)

// multipartで受け付ける最大サイズ（添付ファイルは使わない）
const maxMultipartMemory = 1 << 20

// Fields は受信ペイロードのキー → 値。複数値は先頭だけ残す
type Fields map[string]string

func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// Decode はContent-Typeに応じてJSON / form-urlencoded / multipart / テキスト（クエリ文字列）を読む。
// rawRequest（JSON文字列）があれば、その中身も取り込む
func Decode(contentType string, body []byte) (Fields, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	var fields Fields
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		fields, err = decodeJSON(body)
	case mediaType == "application/x-www-form-urlencoded":
		fields, err = decodeQuery(body)
	case mediaType == "multipart/form-data":
		fields, err = decodeMultipart(body, params["boundary"])
	case mediaType == "" && looksLikeJSON(body):
		fields, err = decodeJSON(body)
	default:
		//text/plain など: 本文をクエリ文字列として読む
		fields, err = decodeQuery(body)
	}
	if err != nil {
		return nil, err
	}

	mergeRawRequest(fields)
	return fields, nil
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeJSON(body []byte) (Fields, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Fields{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode json payload: %w", err)
	}
	return flatten(m), nil
}

func decodeQuery(body []byte) (Fields, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("decode query payload: %w", err)
	}
	return fromValues(values), nil
}

func decodeMultipart(body []byte, boundary string) (Fields, error) {
	if boundary == "" {
		return nil, fmt.Errorf("decode multipart payload: missing boundary")
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxMultipartMemory)
	if err != nil {
		return nil, fmt.Errorf("decode multipart payload: %w", err)
	}
	defer form.RemoveAll()

	return fromValues(form.Value), nil
}

func fromValues(values map[string][]string) Fields {
	out := make(Fields, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// JSONの値は文字列にそろえる。入れ子のオブジェクトはJSON文字列のまま持つ
func flatten(m map[string]interface{}) Fields {
	out := make(Fields, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool:
			if t {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		default:
			b, err := json.Marshal(t)
			if err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}

// rawRequestの中身は上位に無いキーだけ取り込む
func mergeRawRequest(fields Fields) {
	raw := fields.Get("rawRequest")
	if raw == "" || !looksLikeJSON([]byte(raw)) {
		return
	}
	nested, err := decodeJSON([]byte(raw))
	if err != nil {
		return
	}
	for k, v := range nested {
		if fields.Get(k) == "" {
			fields[k] = v
		}
	}
}
