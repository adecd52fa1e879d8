package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type initFailModule struct{ fakeModule }

func (m *initFailModule) Init(config map[string]any) error {
	return errors.New("bad config")
}

func TestRegistry_GetModuleInstance(t *testing.T) {
	RegisterModuleFactory("registry-test-ok", func() Module {
		return &fakeModule{meta: ModuleMetadata{Name: "registry-test-ok"}, ran: make(chan string, 1)}
	})

	module, err := GetModuleInstance("registry-test-ok", nil)
	require.NoError(t, err)
	assert.Equal(t, "registry-test-ok", module.Metadata().Name)
}

func TestRegistry_UnknownName(t *testing.T) {
	_, err := GetModuleInstance("registry-test-missing", nil)
	assert.ErrorContains(t, err, "no module registered")
}

func TestRegistry_InitFailurePropagates(t *testing.T) {
	RegisterModuleFactory("registry-test-init-fail", func() Module {
		return &initFailModule{}
	})

	_, err := GetModuleInstance("registry-test-init-fail", map[string]any{"x": 1})
	assert.ErrorContains(t, err, "bad config")
}

func TestRegistry_NamesSorted(t *testing.T) {
	RegisterModuleFactory("registry-test-zz", func() Module { return &fakeModule{} })
	RegisterModuleFactory("registry-test-aa", func() Module { return &fakeModule{} })

	names := RegisteredModuleNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "registry-test-aa")
	assert.Contains(t, names, "registry-test-zz")
}
