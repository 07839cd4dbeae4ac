package common

import (
	"strconv"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	multihash "github.com/multiformats/go-multihash/core"
)

func HashBytes(data []byte, mf multicodec.Code) (cid.Cid, error) {
	prefix := cid.Prefix{
		Version:  1,
		Codec:    uint64(mf),
		MhType:   multihash.SHA2_256,
		MhLength: -1,
	}

	return prefix.Sum(data)
}

// IsAuthority reports whether caller is the configured authority. An unset authority
// matches nobody.
func IsAuthority(authority *WriteOnce[Principal], caller Principal) bool {
	current, err := authority.Get().Take()
	if err != nil {
		return false
	}
	return current == caller
}

func PollIdString(id uint64) string {
	return strconv.FormatUint(id, 10)
}
