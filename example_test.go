package scimdb_test

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/authn"
	"github.com/scimdb/scimdb/inmem"
	"github.com/scimdb/scimdb/logger"
	"github.com/scimdb/scimdb/scim"
	"github.com/scimdb/scimdb/storage"
)

// Assemble the whole stack: a store, the engine, a tenant directory and
// the resource service wrapped in its middlewares.
func Example() {
	ctx := context.Background()
	log := logger.New(os.Stdout)

	engine := storage.NewEngine(inmem.NewKVStore(), storage.WithLogger(log))
	if err := engine.Initialize(ctx); err != nil {
		panic(err.Error())
	}

	// Provision a credential for a tenant.
	directory := authn.NewStaticDirectory()
	secret, err := directory.Provision(scimdb.TenantContext{
		TenantID:    "acme",
		Permissions: scimdb.FullAccess(),
		Quotas:      map[string]int{"max_users": 1000},
	})
	if err != nil {
		panic(err.Error())
	}

	// Exchange the credential for a request context.
	authenticator := authn.NewAuthenticator(directory, authn.WithLogger(log))
	witness, err := authenticator.Authenticate(ctx, authn.NewCredential(secret))
	if err != nil {
		panic(err.Error())
	}
	authority, err := authn.AuthorityFromWitness(witness)
	if err != nil {
		panic(err.Error())
	}
	rc, err := authn.RequestContextFromAuthority(authority)
	if err != nil {
		panic(err.Error())
	}

	var svc scim.ResourceService = scim.NewService(engine, scim.WithLogger(log))
	svc = scim.NewMetricsService(prometheus.NewRegistry(), svc)
	svc = scim.NewLoggingService(log, svc)

	user, err := svc.CreateResource(ctx, rc, "User", map[string]interface{}{
		"userName": "alice",
		"active":   true,
	})
	if err != nil {
		panic(err.Error())
	}

	// Later writes carry the version token of the state they read.
	_, err = svc.UpdateResourceConditional(ctx, rc, "User", user.ID, user.Meta.Version, map[string]interface{}{
		"userName": "alice",
		"active":   false,
	})
	if err != nil {
		panic(err.Error())
	}

	fmt.Println(user.Type)
}
