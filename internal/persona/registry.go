package persona

import (
	"fmt"
	"sort"

	"github.com/RichardoC/elias/internal/models"
)

// Registry is a read-only persona table. It is safe for concurrent use
// because nothing mutates it after New returns.
type Registry struct {
	personas map[string]models.Persona
	fallback models.Persona
}

var builtin = []models.Persona{
	{
		Name: "fullstack",
		SystemPrompt: "You are a very experienced and helpful fullstack developer. " +
			"Answer questions about frontend (React, Vue, Angular, JavaScript, TypeScript, HTML, CSS), " +
			"backend (Node.js, Python, Java, Go, Ruby, frameworks such as Express, Django, Spring Boot), " +
			"databases (SQL and NoSQL), systems architecture, " +
			"DevOps and good software development practices. " +
			"Be concise, but give code examples when appropriate. " +
			"Be helpful, polite and friendly.",
		Config: models.GenerationConfig{MaxTokens: 800, Temperature: 0.7},
	},
	{
		Name: "travel",
		SystemPrompt: "You are an experienced and enthusiastic travel agent, specialised in " +
			"personalised itineraries and travel tips. Answer questions about destinations, " +
			"the best seasons to travel, transport, lodging, local activities " +
			"and how to plan an unforgettable trip. " +
			"Give detailed, useful information while keeping a friendly and inspiring tone. " +
			"Offer creative suggestions and always take the user's budget into account.",
		Config: models.GenerationConfig{MaxTokens: 600, Temperature: 0.7},
	},
}

// Default returns the registry with the built-in personas.
func Default() *Registry {
	r, err := New(builtin...)
	if err != nil {
		// builtin always contains the default persona
		panic(err)
	}
	return r
}

// New builds a registry from personas. The set must contain
// models.DefaultPersona so that Resolve can never fail.
func New(personas ...models.Persona) (*Registry, error) {
	r := &Registry{personas: make(map[string]models.Persona, len(personas))}
	for _, p := range personas {
		if p.Name == "" {
			return nil, fmt.Errorf("persona name is required")
		}
		if p.Config.MaxTokens <= 0 {
			return nil, fmt.Errorf("persona %q: max_tokens must be positive", p.Name)
		}
		if _, dup := r.personas[p.Name]; dup {
			return nil, fmt.Errorf("persona %q registered twice", p.Name)
		}
		r.personas[p.Name] = p
	}
	def, ok := r.personas[models.DefaultPersona]
	if !ok {
		return nil, fmt.Errorf("default persona %q is missing", models.DefaultPersona)
	}
	r.fallback = def
	return r, nil
}

// Get is an exact, case-sensitive lookup.
func (r *Registry) Get(name string) (models.Persona, bool) {
	p, ok := r.personas[name]
	return p, ok
}

// Resolve returns the named persona, or the default one when the name is
// unknown. Unknown names are not an error.
func (r *Registry) Resolve(name string) models.Persona {
	if p, ok := r.Get(name); ok {
		return p
	}
	return r.fallback
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.personas))
	for name := range r.personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
