package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGeneratorProducesValidIDs(t *testing.T) {
	gen := NewIDGenerator(WithMachineID(42))
	require.Equal(t, 42, gen.Generator.MachineID())

	prev := gen.ID()
	for i := 0; i < 1000; i++ {
		id := gen.ID()
		assert.True(t, id.Valid())
		assert.True(t, uint64(prev) < uint64(id), "ids must increase")
		prev = id
	}
}

func TestSetGlobalMachineID(t *testing.T) {
	require.Error(t, SetGlobalMachineID(1024))
	require.Error(t, SetGlobalMachineID(-1))
	require.NoError(t, SetGlobalMachineID(817))
	assert.Equal(t, 817, GlobalMachineID())

	gen, ok := NewDefaultIDGenerator().(*IDGenerator)
	require.True(t, ok)
	assert.Equal(t, 817, gen.Generator.MachineID())
}
