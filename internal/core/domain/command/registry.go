package command

import (
	"errors"
	"strings"
	"time"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Descriptor is the static metadata for one command. Handlers themselves are
// stateless between invocations; Factory builds a fresh instance per call.
type Descriptor struct {
	Name           string
	Aliases        []string
	Description    string
	Category       domain.Category
	Cooldown       time.Duration
	MaxUses        int
	RequiredRoles  []domain.Role
	Disabled       bool
	DisabledReason string
	Factory        func() port.Command
}

// Registry indexes descriptors by lowercase name. Aliases share one namespace
// with primary names; on any collision the first registration wins and the
// loser is skipped with a warning.
type Registry struct {
	commands map[string]*Descriptor
	aliases  map[string]string
}

func (r *Registry) Register(d *Descriptor) {
	if r.commands == nil {
		r.commands = make(map[string]*Descriptor)
		r.aliases = make(map[string]string)
	}

	if d == nil || d.Name == "" {
		log.Error().Msg("skipping command descriptor with no name")
		return
	}
	if d.Factory == nil {
		log.Error().Str("command", d.Name).Msg("skipping command descriptor with no handler factory")
		return
	}

	name := strings.ToLower(d.Name)
	if r.taken(name) {
		log.Warn().Str("command", name).Msg("command name already registered, skipping")
		return
	}

	log.Info().Str("command", name).Str("category", string(d.Category)).Msg("adding command to registry")
	r.commands[name] = d

	for _, alias := range d.Aliases {
		alias = strings.ToLower(alias)
		if r.taken(alias) {
			log.Warn().Str("alias", alias).Str("command", name).Msg("alias collides with existing registration, skipping alias")
			continue
		}
		r.aliases[alias] = name
	}
}

func (r *Registry) taken(name string) bool {
	if _, ok := r.commands[name]; ok {
		return true
	}
	_, ok := r.aliases[name]
	return ok
}

// Resolve maps a raw token, through at most one alias hop, to its descriptor.
func (r *Registry) Resolve(token string) (*Descriptor, error) {
	if r.commands == nil {
		return nil, errors.New("can't resolve command, registry not initialized")
	}

	name := strings.ToLower(token)
	if target, ok := r.aliases[name]; ok {
		name = target
	}

	d, ok := r.commands[name]
	if !ok {
		return nil, errors.New("command not found")
	}

	return d, nil
}

// Instantiate builds a fresh handler for one invocation.
func (r *Registry) Instantiate(d *Descriptor) port.Command {
	return d.Factory()
}

// List returns all registered descriptors.
func (r *Registry) List() []*Descriptor {
	ds := make([]*Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		ds = append(ds, d)
	}

	return ds
}

// Get returns the descriptor for an exact primary name, without alias
// resolution. Used by admin commands toggling the disabled flag.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.commands[strings.ToLower(name)]
	return d, ok
}

// ParseCommand splits message text into its lowercased command token and the
// remaining argument tokens, with the prefix already stripped.
func ParseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	return strings.ToLower(fields[0]), fields[1:]
}
