package snowflake

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/scimdb/scimdb"
)

func init() {
	SetGlobalMachineID(rand.Intn(1023))
}

var globalmachineID struct {
	id  int
	set bool
	sync.RWMutex
}

// ErrGlobalIDBadVal means that the global machine id value wasn't properly set.
var ErrGlobalIDBadVal = errors.New("globalID must be a number between (inclusive) 0 and 1023")

// SetGlobalMachineID stores the static machine id used by all generators
// created through NewDefaultIDGenerator.
func SetGlobalMachineID(id int) error {
	if id > serverMax || id < 0 {
		return ErrGlobalIDBadVal
	}
	globalmachineID.Lock()
	globalmachineID.id = id
	globalmachineID.set = true
	globalmachineID.Unlock()
	return nil
}

// GlobalMachineID returns the global machine id. This number is limited to a number between 0 and 1023 inclusive.
func GlobalMachineID() int {
	globalmachineID.RLock()
	defer globalmachineID.RUnlock()
	return globalmachineID.id
}

// NewDefaultIDGenerator returns an *IDGenerator that uses the currently set
// global machine id.
func NewDefaultIDGenerator() scimdb.IDGenerator {
	globalmachineID.RLock()
	defer globalmachineID.RUnlock()
	if globalmachineID.set {
		return NewIDGenerator(WithMachineID(globalmachineID.id))
	}
	return NewIDGenerator()
}

// IDGenerator holds the ID generator.
type IDGenerator struct {
	Generator *Generator
}

// IDGeneratorOp is an option for an IDGenerator.
type IDGeneratorOp func(*IDGenerator)

// WithMachineID uses the low 10 bits of machineID to set the machine id of
// every generated id.
func WithMachineID(machineID int) IDGeneratorOp {
	return func(g *IDGenerator) {
		g.Generator = New(machineID & serverMax)
	}
}

// NewIDGenerator returns a new IDGenerator. Machine ids are random unless
// the WithMachineID option is used.
func NewIDGenerator(opts ...IDGeneratorOp) *IDGenerator {
	gen := &IDGenerator{}
	for _, f := range opts {
		f(gen)
	}
	if gen.Generator == nil {
		gen.Generator = New(rand.Intn(1023))
	}
	return gen
}

// ID returns a new scimdb.ID.
func (g *IDGenerator) ID() scimdb.ID {
	var id scimdb.ID
	for !id.Valid() {
		id = scimdb.ID(g.Generator.Next())
	}
	return id
}
