package catalog

import (
	"strings"

	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

const galleryLimit = 10

type AboutUs struct {
	records.Base
	CompanyName string  `json:"company_name" form:"company_name" binding:"required" gorm:"not null"`
	PageHeading string  `json:"page_heading" form:"page_heading"`
	Img1        *string `json:"img1" form:"-"`
	Img2        *string `json:"img2" form:"-"`
	P1          string  `json:"p1" form:"p1" gorm:"type:text"`
	P2          string  `json:"p2" form:"p2" gorm:"type:text"`
	P3          string  `json:"p3" form:"p3" gorm:"type:text"`
	P4          string  `json:"p4" form:"p4" gorm:"type:text"`
}

func (AboutUs) TableName() string { return "about_us" }

var aboutUs = records.Resource[AboutUs]{
	Name: "about-us",
	Noun: "about section",
	Slots: []records.Slot[AboutUs]{
		records.Single("img1", "about-us", func(a *AboutUs) **string { return &a.Img1 }).Accepting(imageTypes...),
		records.Single("img2", "about-us", func(a *AboutUs) **string { return &a.Img2 }).Accepting(imageTypes...),
	},
}

type Gallery struct {
	records.Base
	Slug       string             `json:"slug" form:"slug" binding:"required" gorm:"uniqueIndex;not null"`
	Title      string             `json:"title" form:"title" binding:"required" gorm:"not null"`
	ImageArray records.StringList `json:"image_array" form:"-"`
}

func (Gallery) TableName() string { return "gallery" }

var galleries = records.Resource[Gallery]{
	Name: "galleries",
	Noun: "gallery",
	Slots: []records.Slot[Gallery]{
		records.Multi("image_array", "gallery", galleryLimit, func(g *Gallery) *records.StringList { return &g.ImageArray }).
			Require().
			Accepting(imageTypes...),
	},
	Search:     []string{"title", "slug"},
	SlugColumn: "slug",
	Prepare: func(g *Gallery) error {
		g.Slug = slugify(g.Slug)
		if g.Slug == "" {
			return records.Invalid("slug", "must contain letters or digits")
		}
		return nil
	},
}

type CarouselSlide struct {
	records.Base
	ImageName string  `json:"image_name" form:"image_name"`
	ImageURL  *string `json:"image_url" form:"-"`
}

func (CarouselSlide) TableName() string { return "home_carousel" }

var homeCarousel = records.Resource[CarouselSlide]{
	Name: "home-carousel",
	Noun: "slide",
	Slots: []records.Slot[CarouselSlide]{
		records.Single("image_url", "home-carousel", func(c *CarouselSlide) **string { return &c.ImageURL }).Require().Accepting(imageTypes...),
	},
	Order: "id ASC",
	Prepare: func(c *CarouselSlide) error {
		c.ImageName = strings.TrimSpace(c.ImageName)
		return nil
	},
}

type HomeService struct {
	records.Base
	ServiceName string  `json:"service_name" form:"service_name" binding:"required" gorm:"not null"`
	ImageURL    *string `json:"image_url" form:"-"`
}

func (HomeService) TableName() string { return "home_services" }

var homeServices = records.Resource[HomeService]{
	Name: "home-services",
	Noun: "service",
	Slots: []records.Slot[HomeService]{
		records.Single("image_url", "home-services", func(h *HomeService) **string { return &h.ImageURL }).Accepting(imageTypes...),
	},
	Order: "id ASC",
}

type InsideAboutUs struct {
	records.Base
	SectionTitle string  `json:"section_title" form:"section_title"`
	Heading      string  `json:"heading" form:"heading" binding:"required" gorm:"not null"`
	Description  string  `json:"description" form:"description" gorm:"type:text"`
	ImageURL     *string `json:"image_url" form:"-"`
	CarName      string  `json:"car_name" form:"car_name" gorm:"index"`
}

func (InsideAboutUs) TableName() string { return "highlight_about_us_section" }

var insideAboutUs = records.Resource[InsideAboutUs]{
	Name: "inside-about-us",
	Noun: "section",
	Slots: []records.Slot[InsideAboutUs]{
		records.Single("image_url", "highlightaboutus", func(i *InsideAboutUs) **string { return &i.ImageURL }).Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
}

type Testimonial struct {
	records.Base
	PersonName  string  `json:"person_name" form:"person_name" binding:"required" gorm:"not null"`
	Message     string  `json:"message" form:"message" binding:"required" gorm:"type:text;not null"`
	PersonImage *string `json:"person_image" form:"-"`
	Ratings     int     `json:"ratings" form:"ratings" binding:"required,min=1,max=5"`
}

func (Testimonial) TableName() string { return "testimonials" }

var testimonials = records.Resource[Testimonial]{
	Name: "testimonials",
	Noun: "testimonial",
	Slots: []records.Slot[Testimonial]{
		records.Single("person_image", "testimonials", func(t *Testimonial) **string { return &t.PersonImage }).Accepting(imageTypes...),
	},
	Filters: []string{"ratings"},
}

type Service struct {
	records.Base
	Slug           string  `json:"slug" form:"slug" binding:"required" gorm:"uniqueIndex;not null"`
	MainHeading    string  `json:"main_heading" form:"main_heading" binding:"required" gorm:"not null"`
	MainContent    string  `json:"main_content" form:"main_content" gorm:"type:text"`
	MainImage      *string `json:"main_image" form:"-"`
	ProductImage   *string `json:"product_image" form:"-"`
	ProductContent string  `json:"product_content" form:"product_content" gorm:"type:text"`
}

func (Service) TableName() string { return "all_services" }

var services = records.Resource[Service]{
	Name: "services",
	Noun: "service",
	Slots: []records.Slot[Service]{
		records.Single("main_image", "services", func(s *Service) **string { return &s.MainImage }).Accepting(imageTypes...),
		records.Single("product_image", "services", func(s *Service) **string { return &s.ProductImage }).Accepting(imageTypes...),
	},
	Search:     []string{"main_heading"},
	SlugColumn: "slug",
	Prepare: func(s *Service) error {
		s.Slug = slugify(s.Slug)
		return nil
	},
}

type HomeAboutSection struct {
	records.Base
	MainHeading string  `json:"main_heading" form:"main_heading" binding:"required" gorm:"not null"`
	Description string  `json:"description" form:"description" gorm:"type:text"`
	ImageURL1   *string `json:"image_url1" form:"-" gorm:"column:image_url1"`
	ImageURL2   *string `json:"image_url2" form:"-" gorm:"column:image_url2"`
}

func (HomeAboutSection) TableName() string { return "home_about2_section" }

var homeAboutSections = records.Resource[HomeAboutSection]{
	Name: "home-about-sections",
	Noun: "section",
	Slots: []records.Slot[HomeAboutSection]{
		records.Single("image_url1", "home-about2", func(h *HomeAboutSection) **string { return &h.ImageURL1 }).Accepting(imageTypes...),
		records.Single("image_url2", "home-about2", func(h *HomeAboutSection) **string { return &h.ImageURL2 }).Accepting(imageTypes...),
	},
}

type HomeTab struct {
	records.Base
	MainHeading string             `json:"main_heading" form:"main_heading"`
	MainContent string             `json:"main_content" form:"main_content" gorm:"type:text"`
	TabTitle    string             `json:"tab_title" form:"tab_title" binding:"required" gorm:"not null"`
	Points      records.StringList `json:"points" form:"-"`
	ImageURL    *string            `json:"image_url" form:"-"`
}

func (HomeTab) TableName() string { return "home_tabs_services_section" }

var homeTabs = records.Resource[HomeTab]{
	Name: "home-tabs",
	Noun: "tab",
	Slots: []records.Slot[HomeTab]{
		records.Single("image_url", "home-tabs", func(h *HomeTab) **string { return &h.ImageURL }).Accepting(imageTypes...),
	},
	Lists: []records.List[HomeTab]{{Field: "points", Ref: func(h *HomeTab) *records.StringList { return &h.Points }}},
	Order: "id ASC",
}

type DetailedLocation struct {
	records.Base
	PageHeading   string             `json:"page_heading" form:"page_heading" binding:"required" gorm:"not null"`
	PageContent   string             `json:"page_content" form:"page_content" gorm:"type:text"`
	MainImage     *string            `json:"main_image" form:"-"`
	Address       string             `json:"address" form:"address"`
	Hours         string             `json:"hours" form:"hours"`
	Contact       string             `json:"contact" form:"contact"`
	MapURL        string             `json:"map_url" form:"map_url" gorm:"type:text"`
	Facilities    records.StringList `json:"facilities" form:"-"`
	GalleryImages records.StringList `json:"gallery_images" form:"-"`
	Slug          string             `json:"slug" form:"slug" binding:"required" gorm:"not null;uniqueIndex:idx_detailed_locations_type_slug"`
	Type          string             `json:"type" form:"type" binding:"required" gorm:"not null;uniqueIndex:idx_detailed_locations_type_slug"`
}

func (DetailedLocation) TableName() string { return "detailed_locations" }

var detailedLocations = records.Resource[DetailedLocation]{
	Name: "detailed-locations",
	Noun: "detailed location",
	Mode: records.Preserve,
	Slots: []records.Slot[DetailedLocation]{
		records.Single("main_image", "main-images", func(d *DetailedLocation) **string { return &d.MainImage }).Accepting(imageTypes...),
		records.Multi("gallery_images", "gallery-images", galleryLimit, func(d *DetailedLocation) *records.StringList { return &d.GalleryImages }).
			Accepting(imageTypes...),
	},
	Lists:      []records.List[DetailedLocation]{{Field: "facilities", Ref: func(d *DetailedLocation) *records.StringList { return &d.Facilities }}},
	Filters:    []string{"type"},
	Search:     []string{"page_heading", "address"},
	Facets:     map[string]string{"types": "type"},
	SlugColumn: "slug",
	Prepare: func(d *DetailedLocation) error {
		d.Slug = slugify(d.Slug)
		d.Type = strings.ToLower(strings.TrimSpace(d.Type))
		return nil
	},
}
