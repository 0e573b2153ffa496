package csposts

import (
	"html/template"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"clearsite/internal/models/csmarkdown"

	"gorm.io/gorm"
)

// Post is one blog article, authored in markdown.
type Post struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Slug        string        `json:"slug" gorm:"uniqueIndex;not null"`
	Title       string        `json:"title" gorm:"not null"`
	Content     string        `json:"content" gorm:"type:text;not null"`
	ContentHTML template.HTML `json:"content_html" gorm:"-"`
	Summary     string        `json:"summary"`
	FirstImage  string        `json:"image" gorm:"type:text"`
	Author      string        `json:"author" gorm:"not null"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	Tags        string        `json:"-" gorm:"type:text"`
	Category    string        `json:"category" gorm:"type:text"`
	TagsList    []string      `json:"tags" gorm:"-"`
	ViewCount   int           `json:"view_count" gorm:"default:0"`
	Hide        bool          `json:"hide" gorm:"type:bool;index"`
}

// Fill Summary computed from content
func (p *Post) FillSummary() error {
	if p.Content != "" {
		if p.Summary == "" {
			p.Summary = CleanMarkdownForExcerpt(p.Content)
			p.Summary = ExtractExcerpt(p.Summary, 500)
		} else {
			p.Summary = CleanMarkdownForExcerpt(p.Summary)
		}
		p.FirstImage = ""

		found, l := ExtractImages(p.Content, true, true)
		if found {
			p.FirstImage = l[0]
		}
	}
	return nil
}

func (p *Post) AfterFind(tx *gorm.DB) error {
	if p.Tags != "" {
		p.TagsList = strings.Split(p.Tags, ",")
	}
	p.ContentHTML = csmarkdown.ConvertMarkdownToHTML(p.Content)
	return nil
}

// Hooks GORM
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if len(p.TagsList) > 0 {
		p.Tags = strings.Join(p.TagsList, ",")
	}
	if p.Slug == "" {
		p.Slug = strings.ToLower(Slugify(p.Title))
	}
	return nil
}

func CleanMarkdownForExcerpt(content string) string {
	// strip embedded images
	reImage := regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	return reImage.ReplaceAllString(content, "")
}

// ExtractExcerpt derives a short plain summary from markdown content.
func ExtractExcerpt(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	runes := []rune(text)

	// Prefer cutting at the end of a sentence
	cutPoint := maxLength
	for i := maxLength - 1; i >= maxLength-100 && i >= 0; i-- {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			cutPoint = i + 1
			break
		}
	}

	// Otherwise cut at a space
	if cutPoint == maxLength {
		for i := maxLength - 1; i >= maxLength-50 && i >= 0; i-- {
			if runes[i] == ' ' {
				cutPoint = i
				break
			}
		}
	}

	result := strings.TrimSpace(string(runes[:cutPoint]))

	lastChar := runes[cutPoint-1]
	if lastChar != '.' && lastChar != '!' && lastChar != '?' {
		result += "..."
	}

	return result
}

// ExtractImages pulls image URLs out of markdown.
// Example: ![team.jpg](/static/uploads/1759683627_d4hhlyrc.jpg)
func ExtractImages(markdown string, firstOnly bool, fileOnly bool) (bool, []string) {
	if markdown == "" {
		return false, nil
	}

	reImage := regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

	var l []string
	found := false

	matches := reImage.FindAllStringSubmatch(markdown, -1)

	for _, match := range matches {
		if len(match) > 1 {
			if fileOnly {
				imageURL := strings.TrimSpace(match[1])
				imageURL = strings.Trim(imageURL, `"' `)
				l = append(l, imageURL)
			} else {
				imageURL := strings.TrimSpace(match[0])
				l = append(l, imageURL)
			}
			found = true

			if firstOnly {
				break
			}
		}
	}

	return found, l
}

// Slugify keeps letters and digits, turns spaces into dashes.
func Slugify(s string) string {
	var result strings.Builder

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else if unicode.IsSpace(r) {
			result.WriteRune('-')
		} else if r == '-' {
			result.WriteRune(r)
		}
	}

	return result.String()
}
