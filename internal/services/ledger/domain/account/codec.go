package account

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	var err error
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("account: build cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("account: build cbor decoder: %v", err))
	}
}

// Encode serializes rec deterministically: equal records produce equal bytes.
func Encode(rec Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("record is required")
	}
	data, err := encMode.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.Kind(), err)
	}
	return data, nil
}

// Decode fills rec, which must be a pointer, from data.
func Decode(data []byte, rec Record) error {
	if err := decMode.Unmarshal(data, rec); err != nil {
		return apperrors.Wrap(apperrors.CodeAccountDecodeFailed, fmt.Sprintf("decode %s", rec.Kind()), err)
	}
	return nil
}
