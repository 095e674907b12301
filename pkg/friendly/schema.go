package friendly

import (
	"context"
	"regexp"
	"strings"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/logger"
)

// Names of the collections registered on every friendly subject type.
const (
	CollectionFriendships = "friendships"
	CollectionFriendsByMe = "friends-by-me"
	CollectionFriendedBy  = "friended-by"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type options struct {
	edgeTypeName      string
	requireAcceptance bool
}

type Option func(*options)

// WithEdgeType names the edge type, declared in the subject's namespace.
func WithEdgeType(name string) Option {
	return func(o *options) { o.edgeTypeName = name }
}

func WithAcceptance(required bool) Option {
	return func(o *options) { o.requireAcceptance = required }
}

// WithoutAcceptance makes every new edge count as accepted immediately.
func WithoutAcceptance() Option {
	return WithAcceptance(false)
}

// Declare makes subject friendly: it declares the edge type on s, registers
// the derived collections and records the resulting Config in reg. Declaring
// the same subject again with identical options returns the existing Config.
func Declare(ctx context.Context, reg *Registry, s Schema, subject TypeHandle, opts ...Option) (*Config, error) {
	o := options{edgeTypeName: DefaultEdgeTypeName, requireAcceptance: true}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	if !identifierRe.MatchString(o.edgeTypeName) {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "edge type name %q is not a declarable type name", o.edgeTypeName)
	}
	if subject.Table == "" {
		subject.Table = TableFor("", subject.Name)
	}

	edgeQualified := TypeHandle{Namespace: subject.Namespace, Name: o.edgeTypeName}.QualifiedName()

	if existing, ok := reg.Lookup(subject.QualifiedName()); ok {
		if existing.sameOptions(edgeQualified, o.requireAcceptance) {
			return existing, nil
		}
		return nil, errors.Newf(errors.ErrCodeConfiguration, "%s is already friendly with different options", subject.QualifiedName())
	}

	cfg := newConfig(subject, edgeQualified, o.requireAcceptance, s)
	def := EdgeEntityType(cfg)

	edge, err := s.DeclareEntityType(ctx, def)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeConfiguration {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to declare edge type "+edgeQualified)
	}

	collections := []Collection{
		{Name: CollectionFriendships, Target: edge, ForeignKey: cfg.SubjectForeignKey()},
		{Name: CollectionFriendsByMe, Target: subject, Through: CollectionFriendships, Via: FriendKey},
		{Name: CollectionFriendedBy, Target: subject, Through: CollectionFriendships, Via: cfg.SubjectForeignKey(), Inverse: true},
	}
	for _, c := range collections {
		if err := s.DeclareHasMany(ctx, subject, c); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to register collection "+c.Name)
		}
	}

	cfg, err = reg.register(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Friendship capability declared",
		"subject", subject.QualifiedName(),
		"edge", edgeQualified,
		"table", edge.Table,
		"require_acceptance", o.requireAcceptance,
	)
	return cfg, nil
}

// EdgeEntityType builds the join entity shape for cfg.
func EdgeEntityType(cfg *Config) EntityType {
	namespace, name := SplitQualifiedName(cfg.EdgeTypeName())
	subjectKey := cfg.SubjectForeignKey()

	var fields []Field
	if cfg.RequireAcceptance() {
		fields = append(fields, Field{Name: AcceptedAtColumn, Kind: FieldTimestamp, Nullable: true})
	}
	fields = append(fields,
		Field{Name: CreatedAtColumn, Kind: FieldTimestamp},
		Field{Name: UpdatedAtColumn, Kind: FieldTimestamp},
		Field{Name: subjectKey, Kind: FieldForeignKey, References: cfg.Subject()},
		Field{Name: FriendKey, Kind: FieldForeignKey, References: cfg.Subject()},
	)

	return EntityType{
		Namespace:       namespace,
		Name:            name,
		Table:           TableFor(namespace, name),
		Fields:          fields,
		Keys:            []string{subjectKey, FriendKey},
		UnorderedUnique: [][2]string{{subjectKey, FriendKey}},
	}
}

func validateSubject(subject TypeHandle) error {
	if !identifierRe.MatchString(subject.Name) {
		return errors.Newf(errors.ErrCodeConfiguration, "subject type name %q is not a type name", subject.Name)
	}
	if subject.Namespace == "" {
		return nil
	}
	for _, part := range strings.Split(subject.Namespace, ".") {
		if part == "" {
			return errors.Newf(errors.ErrCodeConfiguration, "empty namespace path in %q", subject.Namespace)
		}
		if !identifierRe.MatchString(part) {
			return errors.Newf(errors.ErrCodeConfiguration, "invalid namespace segment %q", part)
		}
	}
	return nil
}
