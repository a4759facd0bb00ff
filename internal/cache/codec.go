package cache

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer encoding,
// no indefinite-length items. The same compiled set always produces
// identical bytes, which keeps cache files diffable and makes rebuild
// idempotence testable.
var encMode cbor.EncMode

// decMode is the CBOR decoder. Unknown fields are ignored so a newer
// binary can open a cache written by an older one.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
}

// marshal encodes v to CBOR using Core Deterministic Encoding.
func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// unmarshal decodes CBOR data into v.
func unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
