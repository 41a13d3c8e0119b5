package goviewset

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// GormCollector implements Collector on top of GORM schema relationships.
//
// A has-one or has-many relationship is followed when its constraint tag
// declares OnDelete:CASCADE:
//
//	type User struct {
//	    ID     uint
//	    Tokens []Token `gorm:"constraint:OnDelete:CASCADE"`
//	}
//
// Belongs-to and many-to-many relationships are never followed. Every row is
// reported once, even when several paths lead to it.
type GormCollector struct {
	db      *gorm.DB
	secrets []any
}

type CollectorOption func(*GormCollector)

// WithSecretModels marks the listed models as KindSecret.
func WithSecretModels(models ...any) CollectorOption {
	return func(c *GormCollector) {
		c.secrets = append(c.secrets, models...)
	}
}

func NewGormCollector(db *gorm.DB, opts ...CollectorOption) *GormCollector {
	c := &GormCollector{db: db}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect implements Collector. root must be a pointer to a loaded model.
func (c *GormCollector) Collect(ctx context.Context, root any) (DependencyTree, error) {
	rootValue := reflect.ValueOf(root)
	if rootValue.Kind() != reflect.Pointer || rootValue.IsNil() || rootValue.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("collect root must be a non-nil pointer to struct, got %T", root)
	}

	rootSchema, err := c.parse(root)
	if err != nil {
		return nil, err
	}

	secrets, err := c.secretTables()
	if err != nil {
		return nil, err
	}

	w := &walker{
		collector: c,
		secrets:   secrets,
		visited:   make(map[string]struct{}),
	}

	node, err := w.collect(ctx, rootSchema, rootValue)
	if err != nil {
		return nil, err
	}

	return DependencyTree{node}, nil
}

func (c *GormCollector) parse(model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: c.db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("cannot parse schema of %T: %w", model, err)
	}

	return stmt.Schema, nil
}

func (c *GormCollector) secretTables() (map[string]struct{}, error) {
	ret := make(map[string]struct{}, len(c.secrets))
	for _, model := range c.secrets {
		s, err := c.parse(model)
		if err != nil {
			return nil, err
		}
		ret[s.Table] = struct{}{}
	}

	return ret, nil
}

type walker struct {
	collector *GormCollector
	secrets   map[string]struct{}
	visited   map[string]struct{}
}

func (w *walker) collect(ctx context.Context, s *schema.Schema, value reflect.Value) (DependencyNode, error) {
	node := DependencyNode{Object: w.object(ctx, s, value)}
	if key, ok := visitKey(ctx, s, value); ok {
		w.visited[key] = struct{}{}
	}

	for _, rel := range cascadingRelations(s) {
		children, err := w.children(ctx, rel, value)
		if err != nil {
			return DependencyNode{}, err
		}

		for _, child := range children {
			if key, ok := visitKey(ctx, rel.FieldSchema, child); ok {
				if _, seen := w.visited[key]; seen {
					continue
				}
			}

			childNode, err := w.collect(ctx, rel.FieldSchema, child)
			if err != nil {
				return DependencyNode{}, err
			}
			node.Dependents = append(node.Dependents, childNode)
		}
	}

	return node, nil
}

func (w *walker) object(ctx context.Context, s *schema.Schema, value reflect.Value) Object {
	obj := Object{
		Model: s.Name,
		Kind:  KindRegular,
	}

	if field := s.LookUpField("id"); field != nil {
		obj.ID, _ = field.ValueOf(ctx, value)
	}

	if _, ok := w.secrets[s.Table]; ok {
		obj.Kind = KindSecret
	}

	if stringer, ok := value.Interface().(fmt.Stringer); ok {
		obj.Repr = stringer.String()
	} else {
		obj.Repr = fmt.Sprintf("%s object (%s)", s.Name, primaryRepr(ctx, s, value))
	}

	return obj
}

// children loads the rows on the other side of rel that point at parent.
func (w *walker) children(ctx context.Context, rel *schema.Relationship, parent reflect.Value) ([]reflect.Value, error) {
	conds := make([]clause.Expression, 0, len(rel.References))
	for _, ref := range rel.References {
		column := clause.Column{Table: clause.CurrentTable, Name: ref.ForeignKey.DBName}

		switch {
		case ref.OwnPrimaryKey && ref.PrimaryKey != nil:
			value, zero := ref.PrimaryKey.ValueOf(ctx, parent)
			if zero {
				return nil, nil
			}
			conds = append(conds, clause.Eq{Column: column, Value: value})
		case ref.PrimaryValue != "":
			conds = append(conds, clause.Eq{Column: column, Value: ref.PrimaryValue})
		}
	}

	if len(conds) == 0 {
		return nil, nil
	}

	dest := reflect.New(reflect.SliceOf(reflect.PointerTo(rel.FieldSchema.ModelType)))
	err := w.collector.db.WithContext(ctx).
		Model(reflect.New(rel.FieldSchema.ModelType).Interface()).
		Clauses(clause.Where{Exprs: conds}).
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).
		Find(dest.Interface()).
		Error
	if err != nil {
		return nil, fmt.Errorf("cannot load %s of %s: %w", rel.Name, rel.Schema.Name, err)
	}

	rows := dest.Elem()
	ret := make([]reflect.Value, 0, rows.Len())
	for i := range rows.Len() {
		ret = append(ret, rows.Index(i))
	}

	return ret, nil
}

// cascadingRelations returns relations removed together with the owner, in
// field declaration order.
func cascadingRelations(s *schema.Schema) []*schema.Relationship {
	ret := make([]*schema.Relationship, 0)
	for _, field := range s.Fields {
		rel, ok := s.Relationships.Relations[field.Name]
		if !ok || (rel.Type != schema.HasOne && rel.Type != schema.HasMany) {
			continue
		}

		constraint := rel.ParseConstraint()
		if constraint == nil || !strings.EqualFold(constraint.OnDelete, "CASCADE") {
			continue
		}

		ret = append(ret, rel)
	}

	return ret
}

func visitKey(ctx context.Context, s *schema.Schema, value reflect.Value) (string, bool) {
	if len(s.PrimaryFields) == 0 {
		return "", false
	}

	values := lo.Map(s.PrimaryFields, func(field *schema.Field, _ int) string {
		v, _ := field.ValueOf(ctx, value)
		return fmt.Sprint(v)
	})

	return s.Table + ":" + strings.Join(values, ","), true
}

func primaryRepr(ctx context.Context, s *schema.Schema, value reflect.Value) string {
	if s.PrioritizedPrimaryField == nil {
		return "None"
	}

	v, zero := s.PrioritizedPrimaryField.ValueOf(ctx, value)
	if zero {
		return "None"
	}

	return fmt.Sprint(v)
}
