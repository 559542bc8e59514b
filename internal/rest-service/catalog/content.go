package catalog

import (
	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

type DocumentationEntry struct {
	records.Base
	Heading       string `json:"heading" form:"heading" binding:"required" gorm:"not null"`
	Item          string `json:"item" form:"item" gorm:"type:text"`
	PageHeading   string `json:"page_heading" form:"page_heading"`
	PageParagraph string `json:"page_paragraph" form:"page_paragraph" gorm:"type:text"`
}

func (DocumentationEntry) TableName() string { return "documentation_page" }

var documentation = records.Resource[DocumentationEntry]{
	Name:   "documentation",
	Noun:   "documentation entry",
	Order:  "id ASC",
	Search: []string{"heading", "item"},
}

type Page struct {
	records.Base
	Slug    string `json:"slug" form:"slug" binding:"required" gorm:"uniqueIndex;not null"`
	Content string `json:"content" form:"content" gorm:"type:text"`
}

func (Page) TableName() string { return "pages" }

var pages = records.Resource[Page]{
	Name:       "pages",
	Noun:       "page",
	Mode:       records.Preserve,
	SlugColumn: "slug",
	Prepare: func(p *Page) error {
		p.Slug = slugify(p.Slug)
		return nil
	},
}

type Location struct {
	records.Base
	Name      string  `json:"name" form:"name" binding:"required" gorm:"not null"`
	Type      string  `json:"type" form:"type"`
	Latitude  float64 `json:"latitude" form:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" form:"longitude" binding:"min=-180,max=180"`
	Address   string  `json:"address" form:"address"`
	Phone     string  `json:"phone" form:"phone"`
	Hours     string  `json:"hours" form:"hours"`
}

func (Location) TableName() string { return "locations" }

var locations = records.Resource[Location]{
	Name:    "locations",
	Noun:    "location",
	Order:   "id ASC",
	Filters: []string{"type"},
	Search:  []string{"name", "address"},
	Facets:  map[string]string{"types": "type"},
}

type Metadata struct {
	records.Base
	Slug        string `json:"slug" form:"slug" binding:"required" gorm:"uniqueIndex;not null"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description" gorm:"type:text"`
	Keywords    string `json:"keywords" form:"keywords"`
}

func (Metadata) TableName() string { return "meta_data" }

var metadata = records.Resource[Metadata]{
	Name:       "metadata",
	Noun:       "metadata",
	SlugColumn: "slug",
	Prepare: func(m *Metadata) error {
		m.Slug = slugify(m.Slug)
		return nil
	},
}

type FAQ struct {
	records.Base
	Category string `json:"category" form:"category"`
	Question string `json:"question" form:"question" binding:"required" gorm:"type:text;not null"`
	Answer   string `json:"answer" form:"answer" binding:"required" gorm:"type:text;not null"`
}

func (FAQ) TableName() string { return "faq" }

var faqs = records.Resource[FAQ]{
	Name:    "faqs",
	Noun:    "FAQ",
	Order:   "id ASC",
	Filters: []string{"category"},
	Search:  []string{"question", "answer"},
	Facets:  map[string]string{"categories": "category"},
	Prepare: withDefault(func(f *FAQ) *string { return &f.Category }, "General"),
}

type TopNavbar struct {
	records.Base
	Email string `json:"email" form:"email" binding:"omitempty,email"`
	Phone string `json:"phone" form:"phone"`
}

func (TopNavbar) TableName() string { return "top_navbar" }

var topNavbar = records.Resource[TopNavbar]{
	Name: "top-navbar",
	Noun: "navbar",
}

type SocialIcon struct {
	records.Base
	Platform  string `json:"platform" form:"platform" binding:"required" gorm:"not null"`
	IconClass string `json:"icon_class" form:"icon_class"`
	URL       string `json:"url" form:"url" binding:"required,url"`
}

func (SocialIcon) TableName() string { return "social_icons" }

var socialIcons = records.Resource[SocialIcon]{
	Name:  "social-icons",
	Noun:  "icon",
	Order: "id ASC",
}

type HomeAboutIntro struct {
	records.Base
	Heading string `json:"heading" form:"heading" binding:"required" gorm:"not null"`
	Content string `json:"content" form:"content" gorm:"type:text"`
}

func (HomeAboutIntro) TableName() string { return "home_about1_intro" }

var homeAboutIntro = records.Resource[HomeAboutIntro]{
	Name: "home-about-intro",
	Noun: "intro",
}

type HomeAboutHighlight struct {
	records.Base
	Title       string `json:"title" form:"title" binding:"required" gorm:"not null"`
	Value       string `json:"value" form:"value"`
	Description string `json:"description" form:"description"`
	SortOrder   int    `json:"sort_order" form:"sort_order"`
}

func (HomeAboutHighlight) TableName() string { return "home_about1_highlights" }

var homeAboutHighlights = records.Resource[HomeAboutHighlight]{
	Name:  "home-about-highlights",
	Noun:  "highlight",
	Order: "sort_order ASC, id ASC",
}
