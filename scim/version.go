package scim

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/kit/errors"
)

// computeVersion derives the version token for a resource from its full
// content with the token field cleared. Identical content always yields
// the identical token; any change to attributes or metadata yields a new
// one. Marshaling sorts object keys, so the byte form is canonical
// regardless of map iteration order.
func computeVersion(r *scimdb.Resource) (scimdb.VersionToken, error) {
	shadow := r.Clone()
	shadow.Meta.Version = ""

	buf, err := json.Marshal(shadow)
	if err != nil {
		return "", &errors.Error{Code: errors.EInternal, Op: "scim.computeVersion", Err: err}
	}
	return scimdb.VersionToken(fmt.Sprintf("W/%q", fmt.Sprintf("%016x", xxhash.Sum64(buf)))), nil
}
