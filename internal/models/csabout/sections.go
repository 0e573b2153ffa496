package csabout

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// MaxContentWords bounds the section description so the zig-zag blocks stay
// visually balanced on the public page.
const MaxContentWords = 52

// AboutSection is one ordered content block on the About page. The
// displayOrder values of all sections always form a dense 1..N range, and
// Reverse mirrors position parity: odd positions flow left-to-right, even
// positions are mirrored.
type AboutSection struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Title        string `gorm:"not null" json:"title"`
	Content      string `gorm:"type:text;not null" json:"content"`
	ImageData    string `gorm:"type:text;not null" json:"image_data"`
	DisplayOrder int    `gorm:"not null;index" json:"display_order"`
	Reverse      bool   `json:"reverse"`
}

func (AboutSection) TableName() string {
	return "about_sections"
}

// ErrSectionNotFound is returned by Delete for an unknown id.
var ErrSectionNotFound = errors.New("about section not found")

// ValidationError rejects a mutation before any write happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Manager keeps the section list dense and the parity flags consistent.
// Mutations run inside one transaction; admin edits are single operator by
// construction, so no further serialization is needed.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// InsertParams describes a new section. Position is 1-based; nil means
// append at the end, out-of-range values are clamped.
type InsertParams struct {
	Title     string
	Content   string
	ImageData string
	Position  *int
}

// Insert validates, shifts everything at or after the target position one
// step down, fixes the parity flags of the shifted rows and creates the new
// section.
func (m *Manager) Insert(p InsertParams) (*AboutSection, error) {
	title := strings.TrimSpace(p.Title)
	content := strings.TrimSpace(p.Content)

	if title == "" || content == "" || p.ImageData == "" {
		return nil, &ValidationError{Message: "missing required fields: title, content, imageData"}
	}
	if words := WordCount(content); words > MaxContentWords {
		return nil, &ValidationError{
			Message: fmt.Sprintf("description exceeds %d words (current: %d)", MaxContentWords, words),
		}
	}

	section := AboutSection{
		Title:     title,
		Content:   content,
		ImageData: p.ImageData,
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&AboutSection{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count sections: %w", err)
		}

		position := clampPosition(p.Position, int(count))

		err := tx.Model(&AboutSection{}).
			Where("display_order >= ?", position).
			UpdateColumn("display_order", gorm.Expr("display_order + 1")).Error
		if err != nil {
			return fmt.Errorf("shift sections: %w", err)
		}

		// Every shifted row changed parity side.
		var shifted []AboutSection
		if err := tx.Where("display_order > ?", position).Find(&shifted).Error; err != nil {
			return fmt.Errorf("load shifted sections: %w", err)
		}
		for _, s := range shifted {
			err := tx.Model(&AboutSection{}).
				Where("id = ?", s.ID).
				UpdateColumn("reverse", reverseFor(s.DisplayOrder)).Error
			if err != nil {
				return fmt.Errorf("update parity: %w", err)
			}
		}

		section.DisplayOrder = position
		section.Reverse = reverseFor(position)
		if err := tx.Create(&section).Error; err != nil {
			return fmt.Errorf("create section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &section, nil
}

// Delete removes a section and renumbers every survivor from 1, repairing
// parity along the way. Renumbering everything rather than just closing the
// gap also heals any inconsistency left behind by older data.
func (m *Manager) Delete(id uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var section AboutSection
		err := tx.First(&section, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		if err != nil {
			return fmt.Errorf("load section: %w", err)
		}

		if err := tx.Delete(&section).Error; err != nil {
			return fmt.Errorf("delete section: %w", err)
		}

		var remaining []AboutSection
		if err := tx.Order("display_order asc").Find(&remaining).Error; err != nil {
			return fmt.Errorf("load remaining sections: %w", err)
		}

		for i, s := range remaining {
			order := i + 1
			if s.DisplayOrder == order && s.Reverse == reverseFor(order) {
				continue
			}
			err := tx.Model(&AboutSection{}).
				Where("id = ?", s.ID).
				UpdateColumns(map[string]interface{}{
					"display_order": order,
					"reverse":       reverseFor(order),
				}).Error
			if err != nil {
				return fmt.Errorf("renumber section: %w", err)
			}
		}
		return nil
	})
}

// List returns all sections in display order.
func (m *Manager) List() ([]AboutSection, error) {
	var sections []AboutSection
	err := m.db.Order("display_order asc").Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// Preview resolves where a new section would land without writing anything,
// for the editor's order preview. Sections at or after the returned position
// would shift down by one.
func (m *Manager) Preview(position *int) (int, []AboutSection, error) {
	sections, err := m.List()
	if err != nil {
		return 0, nil, err
	}
	return clampPosition(position, len(sections)), sections, nil
}

// WordCount counts whitespace-delimited tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// clampPosition resolves an optional 1-based position into [1, count+1];
// nil appends.
func clampPosition(position *int, count int) int {
	if position == nil {
		return count + 1
	}
	p := *position
	if p < 1 {
		return 1
	}
	if p > count+1 {
		return count + 1
	}
	return p
}

func reverseFor(displayOrder int) bool {
	return (displayOrder-1)%2 == 1
}
