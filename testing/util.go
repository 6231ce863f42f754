package testing

import (
	"testing"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/kit/errors"
)

func diffErrors(name string, actual, expected error, t *testing.T) {
	t.Helper()

	if expected == nil && actual == nil {
		return
	}

	if expected == nil && actual != nil {
		t.Fatalf("%s failed, unexpected error %s", name, actual.Error())
	}

	if expected != nil && actual == nil {
		t.Fatalf("%s failed, expected error %s but received nil", name, expected.Error())
	}

	if errors.ErrorCode(expected) != errors.ErrorCode(actual) {
		t.Fatalf("%s failed, expected error code %q but received %q", name, errors.ErrorCode(expected), errors.ErrorCode(actual))
	}

	if errors.ErrorMessage(expected) != errors.ErrorMessage(actual) {
		t.Fatalf("%s failed, expected error message %q but received %q", name, errors.ErrorMessage(expected), errors.ErrorMessage(actual))
	}
}

// MustIDBase16 is an helper to ensure a correct ID is built during testing.
func MustIDBase16(s string) scimdb.ID {
	id, err := scimdb.IDFromString(s)
	if err != nil {
		panic(err)
	}
	return *id
}
