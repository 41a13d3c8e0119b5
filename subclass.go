package goviewset

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SubclassRelations returns the names of the has-one relations of model
// that extend it with a subclass table: the related table's primary key is
// at the same time the foreign key to model.
//
//	type Question struct {
//	    ID            uint
//	    TextQuestion  *TextQuestion  `gorm:"foreignKey:QuestionPtrID"`
//	}
//
//	type TextQuestion struct {
//	    QuestionPtrID uint `gorm:"primaryKey;autoIncrement:false"`
//	}
//
// Relations are returned in field declaration order.
func SubclassRelations(db *gorm.DB, model any) ([]string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("cannot parse schema of %T: %w", model, err)
	}

	ret := make([]string, 0, len(stmt.Schema.Relationships.HasOne))
	for _, rel := range stmt.Schema.Relationships.HasOne {
		if isSubclassRelation(rel) {
			ret = append(ret, rel.Name)
		}
	}

	return ret, nil
}

func isSubclassRelation(rel *schema.Relationship) bool {
	if len(rel.References) == 0 {
		return false
	}

	for _, ref := range rel.References {
		if !ref.OwnPrimaryKey || ref.PrimaryKey == nil || ref.ForeignKey == nil || !ref.ForeignKey.PrimaryKey {
			return false
		}
	}

	return true
}

// SelectSubclasses returns a scope that eagerly loads every subclass table
// of T. It changes which columns are loaded, never the number or identity of
// the rows. A schema error is added to the query and surfaces on execution.
func SelectSubclasses[T any]() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		relations, err := SubclassRelations(db, new(T))
		if err != nil {
			_ = db.AddError(err)
			return db
		}

		for _, relation := range relations {
			db = db.Preload(relation)
		}

		return db
	}
}

// SubclassQueryset replaces the default queryset of a resource with one that
// resolves subclass-specific fields of T.
type SubclassQueryset[T any] struct{}

// Queryset returns the full queryset of T with subclasses selected.
func (SubclassQueryset[T]) Queryset(db *gorm.DB) *gorm.DB {
	return db.Model(new(T)).Scopes(SelectSubclasses[T]())
}
