package rest

import (
	"encoding/json"

	"github.com/koustreak/StoRi/internal/errs"
)

// Decoder is the strategy that turns a successful response body into the
// operation's result value. Selected per descriptor at construction time.
//
// Decoders that take a schema check run it as an internal guard only: when
// the check passes the caller still receives the generic decoded data, not
// a typed record. Only a failing check aborts the decode — a body that
// parses structurally but does not match the expected entity does not
// belong to it.
type Decoder func(body []byte) (any, error)

// Raw returns the response bytes unmodified. Used for binary payloads
// such as file downloads.
func Raw() Decoder {
	return func(body []byte) (any, error) {
		return body, nil
	}
}

// JSON decodes the body as generic structured data with no schema check.
func JSON() Decoder {
	return func(body []byte) (any, error) {
		return decodeGeneric(body)
	}
}

// JSONObject decodes the body as a JSON object and, when check is non-nil,
// validates it against the expected entity. The generic map is returned
// either way; a failing check is a decode error.
func JSONObject(check func(map[string]any) error) Decoder {
	return func(body []byte) (any, error) {
		v, err := decodeGeneric(body)
		if err != nil {
			return nil, err
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, errs.New(errs.ErrKindDecode, "expected a JSON object")
		}
		if check != nil {
			if err := check(obj); err != nil {
				return nil, errs.Wrap(errs.ErrKindDecode, "body does not match the expected entity", err)
			}
		}
		return obj, nil
	}
}

// JSONList decodes the body as a JSON array and, when check is non-nil,
// validates it element-wise. An empty array decodes to an empty list,
// not an error.
func JSONList(check func([]any) error) Decoder {
	return func(body []byte) (any, error) {
		v, err := decodeGeneric(body)
		if err != nil {
			return nil, err
		}
		list, ok := v.([]any)
		if !ok {
			return nil, errs.New(errs.ErrKindDecode, "expected a JSON array")
		}
		if check != nil {
			if err := check(list); err != nil {
				return nil, errs.Wrap(errs.ErrKindDecode, "body does not match the expected entity", err)
			}
		}
		return list, nil
	}
}

// decodeGeneric structurally decodes JSON. A malformed body is a hard
// decode error, distinct from a schema validation failure.
func decodeGeneric(body []byte) (any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, errs.Wrap(errs.ErrKindDecode, "malformed response body", err)
	}
	return v, nil
}
