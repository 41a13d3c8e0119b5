package goviewset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint
	Name        string
	Engagements []Engagement `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (p Product) String() string { return p.Name }

type Engagement struct {
	ID        uint
	ProductID uint
	Name      string
	Checks    []Check `gorm:"foreignKey:EngagementID;constraint:OnDelete:CASCADE"`
}

func (e Engagement) String() string { return e.Name }

type Check struct {
	ID           uint
	EngagementID uint
	Title        string
	Findings     []Finding `gorm:"foreignKey:CheckID;constraint:OnDelete:CASCADE"`
}

type Finding struct {
	ID      uint
	CheckID uint
	Title   string
	// Notes survive the finding, they are only detached.
	Notes []Note `gorm:"foreignKey:FindingID;constraint:OnDelete:SET NULL"`
}

func (f Finding) String() string { return f.Title }

type Note struct {
	ID        uint
	FindingID *uint
	Entry     string
}

type User struct {
	ID       uint
	Username string
	Tokens   []Token `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (u User) String() string { return u.Username }

// Token has no id column, its key is the primary key.
type Token struct {
	Key    string `gorm:"primaryKey;size:40"`
	UserID uint
}

func (t Token) String() string { return t.Key }

type Question struct {
	ID             uint
	Position       int
	Text           string
	TextQuestion   *TextQuestion   `gorm:"foreignKey:QuestionPtrID;constraint:OnDelete:CASCADE"`
	ChoiceQuestion *ChoiceQuestion `gorm:"foreignKey:QuestionPtrID;constraint:OnDelete:CASCADE"`
}

type TextQuestion struct {
	QuestionPtrID uint `gorm:"primaryKey;autoIncrement:false"`
	Multiline     bool
}

type ChoiceQuestion struct {
	QuestionPtrID uint `gorm:"primaryKey;autoIncrement:false"`
	Multichoice   bool
}

type Answer struct {
	ID           uint
	QuestionID   uint
	TextAnswer   *TextAnswer   `gorm:"foreignKey:AnswerPtrID;constraint:OnDelete:CASCADE"`
	ChoiceAnswer *ChoiceAnswer `gorm:"foreignKey:AnswerPtrID;constraint:OnDelete:CASCADE"`
}

type TextAnswer struct {
	AnswerPtrID uint `gorm:"primaryKey;autoIncrement:false"`
	Answer      string
}

type ChoiceAnswer struct {
	AnswerPtrID uint `gorm:"primaryKey;autoIncrement:false"`
	Answer      string
}

var _allModels = []any{
	&Product{}, &Engagement{}, &Check{}, &Finding{}, &Note{},
	&User{}, &Token{},
	&Question{}, &TextQuestion{}, &ChoiceQuestion{},
	&Answer{}, &TextAnswer{}, &ChoiceAnswer{},
}

// seedProductGraph creates:
//
//	Product "p"
//	├── Engagement "e1"
//	│   └── Check "t1"
//	│       ├── Finding "f1" (+ Note, not cascaded)
//	│       └── Finding "f2"
//	└── Engagement "e2"
//
// and an unrelated Product "other" with one engagement.
func seedProductGraph(t *testing.T, db *gorm.DB) *Product {
	t.Helper()

	product := &Product{
		Name: "p",
		Engagements: []Engagement{
			{
				Name: "e1",
				Checks: []Check{{
					Title: "t1",
					Findings: []Finding{
						{Title: "f1", Notes: []Note{{Entry: "n1"}}},
						{Title: "f2"},
					},
				}},
			},
			{Name: "e2"},
		},
	}
	require.NoError(t, db.Create(product).Error)

	other := &Product{Name: "other", Engagements: []Engagement{{Name: "other-e"}}}
	require.NoError(t, db.Create(other).Error)

	return product
}

func seedUserWithTokens(t *testing.T, db *gorm.DB) *User {
	t.Helper()

	user := &User{
		Username: "admin",
		Tokens: []Token{
			{Key: "0123456789abcdef0123456789abcdef01234567"},
			{Key: "fedcba9876543210fedcba9876543210fedcba98"},
		},
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func seedProducts(t *testing.T, db *gorm.DB, n int) {
	t.Helper()

	products := make([]Product, 0, n)
	for i := range n {
		products = append(products, Product{Name: fmt.Sprintf("product-%03d", i)})
	}
	require.NoError(t, db.CreateInBatches(products, 100).Error)
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)

	return n
}
