package command

import (
	"context"
	"testing"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Non-zero size so distinct allocations get distinct addresses; assert.NotSame
// in TestInstantiateReturnsFreshHandler cannot distinguish zero-size structs.
type MockCommand struct{ _ byte }

func (m *MockCommand) Execute(_ context.Context, _ []string, _ *domain.Message) error {
	return nil
}

func descriptor(name string, aliases ...string) *Descriptor {
	return &Descriptor{
		Name:     name,
		Aliases:  aliases,
		Category: domain.CategoryGame,
		Factory:  func() port.Command { return &MockCommand{} },
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := &Registry{}
	r.Register(descriptor("hangman", "hm"))

	d, err := r.Resolve("hangman")
	require.NoError(t, err)
	assert.Equal(t, "hangman", d.Name)

	viaAlias, err := r.Resolve("hm")
	require.NoError(t, err)
	assert.Same(t, d, viaAlias)

	upper, err := r.Resolve("HANGMAN")
	require.NoError(t, err)
	assert.Same(t, d, upper)
}

func TestResolveNotRegistered(t *testing.T) {
	r := &Registry{}

	_, err := r.Resolve("hangman")
	require.Errorf(t, err, "can't resolve command, registry not initialized")

	r.Register(descriptor("rps"))
	_, err = r.Resolve("hangman")
	require.Errorf(t, err, "command not found")
}

func TestRegisterSkipsInvalidDescriptors(t *testing.T) {
	r := &Registry{}
	r.Register(&Descriptor{Name: ""})
	r.Register(&Descriptor{Name: "broken"})
	r.Register(descriptor("rps"))

	assert.Len(t, r.List(), 1)

	_, err := r.Resolve("broken")
	require.Error(t, err)
}

func TestAliasCollisionFirstRegistrationWins(t *testing.T) {
	r := &Registry{}
	r.Register(descriptor("hangman", "hm"))

	// a later primary name may not shadow the existing alias
	r.Register(descriptor("hm"))

	d, err := r.Resolve("hm")
	require.NoError(t, err)
	assert.Equal(t, "hangman", d.Name)

	// a later alias may not shadow an existing primary name
	r.Register(descriptor("roll", "hangman"))

	d, err = r.Resolve("hangman")
	require.NoError(t, err)
	assert.Equal(t, "hangman", d.Name)

	_, err = r.Resolve("roll")
	require.NoError(t, err)
}

func TestInstantiateReturnsFreshHandler(t *testing.T) {
	r := &Registry{}
	r.Register(descriptor("rps"))

	d, err := r.Resolve("rps")
	require.NoError(t, err)

	first := r.Instantiate(d)
	second := r.Instantiate(d)
	assert.NotSame(t, first, second)
}

func TestParseCommand(t *testing.T) {
	cmd, args := ParseCommand("Hangman join aB3x")
	assert.Equal(t, "hangman", cmd)
	assert.Equal(t, []string{"join", "aB3x"}, args)

	cmd, args = ParseCommand("   ")
	assert.Empty(t, cmd)
	assert.Nil(t, args)
}
