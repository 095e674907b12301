package friendly

import (
	"strings"
	"sync"

	"gorm.io/gorm/schema"

	"github.com/mroshb/friendly/pkg/errors"
)

// FriendKey is the column holding the requestee on every edge table.
const FriendKey = "friend_id"

// Edge column names shared by every edge table.
const (
	AcceptedAtColumn = "accepted_at"
	CreatedAtColumn  = "created_at"
	UpdatedAtColumn  = "updated_at"
)

const DefaultEdgeTypeName = "Friendship"

var naming = schema.NamingStrategy{}

// ForeignKeyFor derives the column referencing a type: BlogAuthor -> blog_author_id.
func ForeignKeyFor(typeName string) string {
	return naming.ColumnName("", typeName) + "_id"
}

// TableFor derives the table of a type declared in namespace:
// ("social", "Friendship") -> social_friendships.
func TableFor(namespace, typeName string) string {
	ns := naming
	if namespace != "" {
		ns.TablePrefix = strings.ReplaceAll(namespace, ".", "_") + "_"
	}
	return ns.TableName(typeName)
}

// Config describes how one subject type is made friendly. It never changes
// after Declare returns it.
type Config struct {
	subject           TypeHandle
	edgeTypeName      string
	requireAcceptance bool
	subjectForeignKey string
	resolver          TypeResolver

	mu   sync.Mutex
	edge TypeHandle
}

func newConfig(subject TypeHandle, edgeTypeName string, requireAcceptance bool, resolver TypeResolver) *Config {
	return &Config{
		subject:           subject,
		edgeTypeName:      edgeTypeName,
		requireAcceptance: requireAcceptance,
		subjectForeignKey: ForeignKeyFor(subject.Name),
		resolver:          resolver,
	}
}

func (c *Config) Subject() TypeHandle { return c.subject }

func (c *Config) SubjectTypeName() string { return c.subject.Name }

// EdgeTypeName is the qualified name of the edge type.
func (c *Config) EdgeTypeName() string { return c.edgeTypeName }

func (c *Config) RequireAcceptance() bool { return c.requireAcceptance }

func (c *Config) SubjectForeignKey() string { return c.subjectForeignKey }

func (c *Config) FriendForeignKey() string { return FriendKey }

// ResolveEdgeType looks the edge type up on first use. A failed lookup is
// not cached so a type declared later is still found.
func (c *Config) ResolveEdgeType() (TypeHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.edge.IsZero() {
		return c.edge, nil
	}
	if c.resolver == nil {
		return TypeHandle{}, errors.Newf(errors.ErrCodeConfiguration, "no resolver for edge type %s", c.edgeTypeName)
	}

	h, err := c.resolver.ResolveType(c.edgeTypeName)
	if err != nil {
		return TypeHandle{}, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to resolve edge type "+c.edgeTypeName)
	}
	c.edge = h
	return h, nil
}

func (c *Config) sameOptions(edgeTypeName string, requireAcceptance bool) bool {
	return c.edgeTypeName == edgeTypeName && c.requireAcceptance == requireAcceptance
}

// Registry maps qualified subject type names to their Config.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

func (r *Registry) Lookup(subjectType string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[subjectType]
	return cfg, ok
}

// SubjectTypes lists every friendly subject type.
func (r *Registry) SubjectTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	return names
}

// register stores cfg unless the subject already has one. An existing config
// with the same options wins; different options are rejected.
func (r *Registry) register(cfg *Config) (*Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cfg.subject.QualifiedName()
	if existing, ok := r.configs[key]; ok {
		if existing.sameOptions(cfg.edgeTypeName, cfg.requireAcceptance) {
			return existing, nil
		}
		return nil, errors.Newf(errors.ErrCodeConfiguration, "%s is already friendly with different options", key)
	}
	r.configs[key] = cfg
	return cfg, nil
}
