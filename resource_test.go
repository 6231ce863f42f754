package scimdb_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scimdb/scimdb"
)

func TestResourceClone(t *testing.T) {
	original := &scimdb.Resource{
		ID:       mustIDBase16("020f755c3c082000"),
		TenantID: "acme",
		Type:     "User",
		Attributes: map[string]interface{}{
			"userName": "alice",
			"emails": []interface{}{
				map[string]interface{}{"value": "alice@example.com", "primary": true},
			},
			"name": map[string]interface{}{
				"givenName":  "Alice",
				"familyName": "Smith",
			},
		},
	}

	clone := original.Clone()
	if diff := cmp.Diff(original, clone); diff != "" {
		t.Fatalf("clone differs from original (-want/+got):\n%s", diff)
	}

	clone.Attributes["userName"] = "mallory"
	clone.Attributes["name"].(map[string]interface{})["givenName"] = "Mallory"
	clone.Attributes["emails"].([]interface{})[0].(map[string]interface{})["primary"] = false

	if got := original.Attributes["userName"]; got != "alice" {
		t.Errorf("mutating the clone changed the original userName: %v", got)
	}
	if got := original.Attributes["name"].(map[string]interface{})["givenName"]; got != "Alice" {
		t.Errorf("mutating a nested map in the clone leaked into the original: %v", got)
	}
	if got := original.Attributes["emails"].([]interface{})[0].(map[string]interface{})["primary"]; got != true {
		t.Errorf("mutating a nested slice element in the clone leaked into the original: %v", got)
	}
}

func TestResourceCloneNilAttributes(t *testing.T) {
	original := &scimdb.Resource{TenantID: "acme", Type: "User"}
	clone := original.Clone()
	if clone.Attributes != nil {
		t.Errorf("expected nil attributes to stay nil, got %v", clone.Attributes)
	}
}
