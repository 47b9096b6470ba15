package dump

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Fingerprint returns the CIDv1 (raw codec, sha2-256) of encoded bytes.
func Fingerprint(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// only reachable with an unknown hash code
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}
