package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mroshb/friendly/pkg/friendly"
)

const (
	PersonNameMaxLength = 64
	PublicIDLength      = 8
)

// PersonType is the friendly handle of Person. Its namespace is set once at
// startup, before any friendship is declared.
var PersonType = friendly.TypeHandle{Namespace: "social", Name: "Person", Table: "people"}

// UsePersonNamespace moves Person into namespace. The edge table follows it.
func UsePersonNamespace(namespace string) {
	PersonType.Namespace = namespace
}

type Person struct {
	ID         uint      `gorm:"primaryKey"`
	TelegramID int64     `gorm:"uniqueIndex;not null"`
	FullName   string    `gorm:"type:varchar(64);not null"`
	PublicID   string    `gorm:"uniqueIndex;type:varchar(8)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (p *Person) FriendlyType() string { return PersonType.QualifiedName() }

func (p *Person) FriendlyID() uint { return p.ID }

// BeforeSave hook for validation
func (p *Person) BeforeSave(tx *gorm.DB) error {
	name := strings.TrimSpace(p.FullName)
	if name == "" || utf8.RuneCountInString(name) > PersonNameMaxLength {
		return gorm.ErrInvalidData
	}
	if p.PublicID != "" && len(p.PublicID) != PublicIDLength {
		return gorm.ErrInvalidData
	}
	p.FullName = name
	return nil
}

// TableName specifies the table name
func (Person) TableName() string {
	return PersonType.Table
}
