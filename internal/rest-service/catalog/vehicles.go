package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

type Accessory struct {
	records.Base
	Name         string  `json:"name" form:"name" binding:"required" gorm:"not null"`
	Model        string  `json:"model" form:"model"`
	Category     string  `json:"category" form:"category"`
	Price        float64 `json:"price" form:"price"`
	Description  string  `json:"description" form:"description" gorm:"type:text"`
	Image        *string `json:"image" form:"-"`
	Availability string  `json:"availability" form:"availability"`
}

func (Accessory) TableName() string { return "car_accessories" }

var accessories = records.Resource[Accessory]{
	Name: "car-accessories",
	Noun: "accessory",
	Slots: []records.Slot[Accessory]{
		records.Single("image", "accessories", func(a *Accessory) **string { return &a.Image }).Accepting(imageTypes...),
	},
	Filters: []string{"model", "category", "availability"},
	Search:  []string{"name", "description"},
	Facets:  map[string]string{"models": "model", "categories": "category"},
	Prepare: withDefault(func(a *Accessory) *string { return &a.Availability }, "In Stock"),
}

type Brochure struct {
	records.Base
	CarName  string  `json:"car_name" form:"car_name" binding:"required" gorm:"not null"`
	Slug     string  `json:"slug" form:"-" gorm:"uniqueIndex;not null"`
	FileName string  `json:"file_name" form:"-"`
	FileURL  *string `json:"file_url" form:"-"`
	FileSize string  `json:"file_size" form:"-"`
	ImageURL *string `json:"image_url" form:"-"`
	Category string  `json:"category" form:"category"`
	Status   string  `json:"status" form:"status"`
}

func (Brochure) TableName() string { return "car_ebrochures_all" }

var brochures = records.Resource[Brochure]{
	Name: "car-ebrochures",
	Noun: "brochure",
	Mode: records.Preserve,
	Slots: []records.Slot[Brochure]{
		records.Single("file_url", "ebrochures", func(b *Brochure) **string { return &b.FileURL }).
			Require().
			Accepting(".pdf").
			LegacyLayout().
			Described(func(b *Brochure, u records.Upload) {
				b.FileName = u.Filename
				b.FileSize = formatFileSize(u.Size)
			}),
		records.Single("image_url", "ebrochures", func(b *Brochure) **string { return &b.ImageURL }).
			Accepting(imageTypes...).
			LegacyLayout(),
	},
	Order:      "car_name ASC",
	Filters:    []string{"category", "status"},
	Search:     []string{"car_name"},
	Facets:     map[string]string{"categories": "category"},
	SlugColumn: "slug",
	Prepare: func(b *Brochure) error {
		b.CarName = strings.TrimSpace(b.CarName)
		b.Slug = slugify(b.CarName)
		if b.Slug == "" {
			return records.Invalid("car_name", "must contain letters or digits")
		}
		if b.Category == "" {
			b.Category = "General"
		}
		if b.Status == "" {
			b.Status = "active"
		}
		return nil
	},
	Refresh: func(b *Brochure) []string {
		size := refreshFileSize(b.FileSize)
		if size == b.FileSize {
			return nil
		}
		b.FileSize = size
		return []string{"file_size"}
	},
}

func formatFileSize(size int64) string {
	if size <= 0 {
		return "0MB"
	}
	return fmt.Sprintf("%.1fMB", float64(size)/(1024*1024))
}

// refreshFileSize formats sizes that older rows stored as raw byte counts.
// Values already in MB and values that are not numbers are kept.
func refreshFileSize(stored string) string {
	v := strings.TrimSpace(stored)
	if v == "" {
		return formatFileSize(0)
	}
	if strings.Contains(v, "MB") {
		return stored
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return stored
	}
	return formatFileSize(int64(n))
}

type ServiceOffer struct {
	records.Base
	CardImage        *string            `json:"card_image" form:"-"`
	ThumbnailImage   *string            `json:"thumbnail_image" form:"-"`
	ThumbnailHeading string             `json:"thumbnail_heading" form:"thumbnail_heading" binding:"required" gorm:"not null"`
	ThumbnailContent string             `json:"thumbnail_content" form:"thumbnail_content" gorm:"type:text"`
	Price            string             `json:"price" form:"price"`
	CarName          string             `json:"car_name" form:"car_name"`
	Features         records.StringList `json:"features" form:"-"`
}

func (ServiceOffer) TableName() string { return "car_service" }

var serviceOffers = records.Resource[ServiceOffer]{
	Name: "car-service-offers",
	Noun: "service offer",
	Slots: []records.Slot[ServiceOffer]{
		records.Single("card_image", "car-service", func(s *ServiceOffer) **string { return &s.CardImage }).Accepting(imageTypes...),
		records.Single("thumbnail_image", "car-service", func(s *ServiceOffer) **string { return &s.ThumbnailImage }).Accepting(imageTypes...),
	},
	Lists:   []records.List[ServiceOffer]{{Field: "features", Ref: func(s *ServiceOffer) *records.StringList { return &s.Features }}},
	Filters: []string{"car_name"},
	Search:  []string{"thumbnail_heading", "car_name"},
}

type PageBanner struct {
	records.Base
	Slug     string  `json:"slug" form:"slug" binding:"required" gorm:"uniqueIndex;not null"`
	CarImage *string `json:"car_image" form:"-"`
}

func (PageBanner) TableName() string { return "car_banner_img" }

var pageBanners = records.Resource[PageBanner]{
	Name: "page-banners",
	Noun: "banner",
	Slots: []records.Slot[PageBanner]{
		records.Single("car_image", "bannerImage", func(p *PageBanner) **string { return &p.CarImage }).Require().Accepting(imageTypes...),
	},
	SlugColumn: "slug",
	Prepare: func(p *PageBanner) error {
		p.Slug = slugify(p.Slug)
		return nil
	},
}

type CarColor struct {
	records.Base
	CarName   string  `json:"car_name" form:"car_name" binding:"required" gorm:"not null;index"`
	ColorName string  `json:"color_name" form:"color_name" binding:"required"`
	ColorID   string  `json:"color_id" form:"color_id"`
	CarImage  *string `json:"car_image" form:"-"`
}

func (CarColor) TableName() string { return "car_colors" }

var carColors = records.Resource[CarColor]{
	Name: "car-colors",
	Noun: "color",
	Slots: []records.Slot[CarColor]{
		records.Single("car_image", "carcolorchange", func(c *CarColor) **string { return &c.CarImage }).Accepting(imageTypes...),
	},
	Order:   "id ASC",
	Filters: []string{"car_name"},
	Facets:  map[string]string{"cars": "car_name"},
}

type CarSwatch struct {
	records.Base
	CarName     string  `json:"car_name" form:"car_name" binding:"required" gorm:"not null;index"`
	SwatchName  string  `json:"swatch_name" form:"swatch_name" binding:"required"`
	SwatchID    string  `json:"swatch_id" form:"swatch_id"`
	ColorCode   string  `json:"color_code" form:"color_code"`
	SwatchImage *string `json:"swatch_image" form:"-"`
}

func (CarSwatch) TableName() string { return "car_swatches" }

var carSwatches = records.Resource[CarSwatch]{
	Name: "car-swatches",
	Noun: "swatch",
	Slots: []records.Slot[CarSwatch]{
		records.Single("swatch_image", "carcolorchange", func(c *CarSwatch) **string { return &c.SwatchImage }).Accepting(imageTypes...),
	},
	Order:   "id ASC",
	Filters: []string{"car_name"},
}

type ConvenienceFeature struct {
	records.Base
	Title   string  `json:"title" form:"title" binding:"required" gorm:"not null"`
	Content string  `json:"content" form:"content" gorm:"type:text"`
	Image   *string `json:"image" form:"-"`
	CarName string  `json:"car_name" form:"car_name" gorm:"index"`
}

func (ConvenienceFeature) TableName() string { return "car_convenience_features" }

var convenienceFeatures = records.Resource[ConvenienceFeature]{
	Name: "car-convenience-features",
	Noun: "feature",
	Slots: []records.Slot[ConvenienceFeature]{
		records.Single("image", "car-convenience", func(c *ConvenienceFeature) **string { return &c.Image }).Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
	Search:  []string{"title"},
}

type ExteriorImage struct {
	records.Base
	CarName     string  `json:"car_name" form:"car_name" binding:"required" gorm:"not null;index"`
	ImageURL    *string `json:"image_url" form:"-"`
	Description string  `json:"description" form:"description"`
}

func (ExteriorImage) TableName() string { return "car_ext_gallery" }

var exteriorGallery = records.Resource[ExteriorImage]{
	Name: "car-exterior-gallery",
	Noun: "image",
	Slots: []records.Slot[ExteriorImage]{
		records.Single("image_url", "car-ext-gallery", func(e *ExteriorImage) **string { return &e.ImageURL }).Require().Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
}

type ExteriorView struct {
	records.Base
	Label   string  `json:"label" form:"label" binding:"required" gorm:"not null"`
	ImgURL  *string `json:"img_url" form:"-"`
	Caption string  `json:"caption" form:"caption"`
	CarName string  `json:"car_name" form:"car_name" gorm:"index"`
}

func (ExteriorView) TableName() string { return "car_exterior_views" }

var exteriorViews = records.Resource[ExteriorView]{
	Name: "car-exterior-views",
	Noun: "view",
	Slots: []records.Slot[ExteriorView]{
		records.Single("img_url", "car-exterior", func(e *ExteriorView) **string { return &e.ImgURL }).Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
}

type CarLogo struct {
	records.Base
	Name     string  `json:"name" form:"name" binding:"required" gorm:"not null"`
	Category string  `json:"category" form:"category"`
	Image    *string `json:"image" form:"-"`
}

func (CarLogo) TableName() string { return "car_logos" }

var carLogos = records.Resource[CarLogo]{
	Name: "car-logos",
	Noun: "logo",
	Slots: []records.Slot[CarLogo]{
		records.Single("image", "car-logos", func(c *CarLogo) **string { return &c.Image }).Accepting(imageTypes...),
	},
	Filters: []string{"category"},
	Search:  []string{"name"},
	Facets:  map[string]string{"categories": "category"},
}

type Performance struct {
	records.Base
	CarVariant       string  `json:"car_variant" form:"car_variant"`
	TabTitle         string  `json:"tab_title" form:"tab_title" binding:"required" gorm:"not null"`
	ImageURL         *string `json:"image_url" form:"-"`
	ShortDescription string  `json:"short_description" form:"short_description"`
	LongDescription  string  `json:"long_description" form:"long_description" gorm:"type:text"`
	CarName          string  `json:"car_name" form:"car_name" gorm:"index"`
}

func (Performance) TableName() string { return "car_performance" }

var performance = records.Resource[Performance]{
	Name: "car-performance",
	Noun: "performance entry",
	Slots: []records.Slot[Performance]{
		records.Single("image_url", "car-performance", func(p *Performance) **string { return &p.ImageURL }).Accepting(imageTypes...),
	},
	Filters: []string{"car_name", "car_variant"},
}

type Vehicle struct {
	records.Base
	Model        string             `json:"model" form:"model" binding:"required" gorm:"not null;index"`
	FuelType     string             `json:"fuel_type" form:"fuel_type" binding:"required"`
	Transmission string             `json:"transmission" form:"transmission" binding:"required"`
	Variant      string             `json:"variant" form:"variant" binding:"required"`
	Price        string             `json:"price" form:"price" binding:"required"`
	Description  string             `json:"description" form:"description" gorm:"type:text"`
	Features     records.StringList `json:"features" form:"-"`
	Status       string             `json:"status" form:"status"`
	MainImg      *string            `json:"main_img" form:"-"`
	Img1         *string            `json:"img1" form:"-"`
	Img2         *string            `json:"img2" form:"-"`
	Img3         *string            `json:"img3" form:"-"`
}

func (Vehicle) TableName() string { return "vehicles_price" }

var vehicles = records.Resource[Vehicle]{
	Name: "vehicles",
	Noun: "vehicle",
	Slots: []records.Slot[Vehicle]{
		records.Single("main_img", "vehicles", func(v *Vehicle) **string { return &v.MainImg }).Accepting(imageTypes...),
		records.Single("img1", "vehicles", func(v *Vehicle) **string { return &v.Img1 }).Accepting(imageTypes...),
		records.Single("img2", "vehicles", func(v *Vehicle) **string { return &v.Img2 }).Accepting(imageTypes...),
		records.Single("img3", "vehicles", func(v *Vehicle) **string { return &v.Img3 }).Accepting(imageTypes...),
	},
	Lists:   []records.List[Vehicle]{{Field: "features", Ref: func(v *Vehicle) *records.StringList { return &v.Features }}},
	Filters: []string{"model", "fuel_type", "transmission", "variant", "status"},
	Search:  []string{"model", "variant"},
	Facets: map[string]string{
		"models":        "model",
		"fuel-types":    "fuel_type",
		"transmissions": "transmission",
		"variants":      "variant",
	},
	Prepare: withDefault(func(v *Vehicle) *string { return &v.Status }, "Enabled"),
}

type SafetyFeature struct {
	records.Base
	Title       string  `json:"title" form:"title" binding:"required" gorm:"not null"`
	Image       *string `json:"image" form:"-"`
	Description string  `json:"description" form:"description" gorm:"type:text"`
	CarName     string  `json:"car_name" form:"car_name" gorm:"index"`
}

func (SafetyFeature) TableName() string { return "car_safety_features" }

var safetyFeatures = records.Resource[SafetyFeature]{
	Name: "car-safety-features",
	Noun: "feature",
	Slots: []records.Slot[SafetyFeature]{
		records.Single("image", "car-safety", func(s *SafetyFeature) **string { return &s.Image }).Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
	Search:  []string{"title"},
}

type Specification struct {
	records.Base
	Title       string  `json:"title" form:"title" binding:"required" gorm:"not null"`
	Category    string  `json:"category" form:"category"`
	CarName     string  `json:"car_name" form:"car_name" gorm:"index"`
	Description string  `json:"description" form:"description" gorm:"type:text"`
	Image       *string `json:"image" form:"-"`
}

func (Specification) TableName() string { return "car_specifications" }

var specifications = records.Resource[Specification]{
	Name: "car-specifications",
	Noun: "specification",
	Slots: []records.Slot[Specification]{
		records.Single("image", "specifications", func(s *Specification) **string { return &s.Image }).Accepting(imageTypes...),
	},
	Filters: []string{"car_name", "category"},
	Facets:  map[string]string{"categories": "category"},
}

type HighlightImage struct {
	records.Base
	ImageURL *string `json:"image_url" form:"-"`
	CarName  string  `json:"car_name" form:"car_name" binding:"required" gorm:"not null;index"`
}

func (HighlightImage) TableName() string { return "car_highlight_gallery" }

var highlightGallery = records.Resource[HighlightImage]{
	Name: "car-highlight-gallery",
	Noun: "image",
	Slots: []records.Slot[HighlightImage]{
		records.Single("image_url", "highlight-car-gallery", func(h *HighlightImage) **string { return &h.ImageURL }).Require().Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
}

type HighlightTab struct {
	records.Base
	Label    string  `json:"label" form:"label" binding:"required" gorm:"not null"`
	Caption  string  `json:"caption" form:"caption"`
	ImageURL *string `json:"image_url" form:"-"`
	CarName  string  `json:"car_name" form:"car_name" gorm:"index"`
}

func (HighlightTab) TableName() string { return "car_highlight_tabs" }

var highlightTabs = records.Resource[HighlightTab]{
	Name: "car-highlight-tabs",
	Noun: "tab",
	Slots: []records.Slot[HighlightTab]{
		records.Single("image_url", "highlight-tabs", func(h *HighlightTab) **string { return &h.ImageURL }).Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
}

type InteriorImage struct {
	records.Base
	CarName     string  `json:"car_name" form:"car_name" binding:"required" gorm:"not null;index"`
	ImageURL    *string `json:"image_url" form:"-"`
	Description string  `json:"description" form:"description"`
}

func (InteriorImage) TableName() string { return "car_int_gallery" }

var interiorGallery = records.Resource[InteriorImage]{
	Name: "car-interior-gallery",
	Noun: "image",
	Slots: []records.Slot[InteriorImage]{
		records.Single("image_url", "car-interior", func(i *InteriorImage) **string { return &i.ImageURL }).Require().Accepting(imageTypes...),
	},
	Filters: []string{"car_name"},
}

type Car struct {
	records.Base
	Name              string  `json:"name" form:"name" binding:"required" gorm:"not null"`
	BodyStyle         string  `json:"body_style" form:"body_style"`
	Transmission      string  `json:"transmission" form:"transmission"`
	Fuel              string  `json:"fuel" form:"fuel"`
	ManufacturingYear int     `json:"manufacturing_year" form:"manufacturing_year"`
	Mileage           string  `json:"mileage" form:"mileage"`
	EngineCC          string  `json:"engine_cc" form:"engine_cc"`
	Seating           int     `json:"seating" form:"seating"`
	StartPrice        string  `json:"start_price" form:"start_price"`
	EndPrice          string  `json:"end_price" form:"end_price"`
	FeatureImage      *string `json:"feature_image" form:"-"`
	Status            string  `json:"status" form:"status"`
}

func (Car) TableName() string { return "hyundai_car_data" }

var cars = records.Resource[Car]{
	Name: "cars",
	Noun: "car",
	Slots: []records.Slot[Car]{
		records.Single("feature_image", "cars", func(c *Car) **string { return &c.FeatureImage }).Accepting(imageTypes...),
	},
	Filters: []string{"body_style", "transmission", "fuel", "status"},
	Search:  []string{"name"},
	Facets: map[string]string{
		"body-styles":   "body_style",
		"fuels":         "fuel",
		"transmissions": "transmission",
	},
	Prepare: withDefault(func(c *Car) *string { return &c.Status }, "Available"),
}

type CarCarouselSlide struct {
	records.Base
	CarName     string  `json:"car_name" form:"car_name" binding:"required" gorm:"not null;index"`
	Title       string  `json:"title" form:"title"`
	Description string  `json:"description" form:"description" gorm:"type:text"`
	ImageURL    *string `json:"image_url" form:"-"`
	Link        string  `json:"link" form:"link"`
}

func (CarCarouselSlide) TableName() string { return "car_carousel" }

var carCarousel = records.Resource[CarCarouselSlide]{
	Name: "car-carousel",
	Noun: "slide",
	Slots: []records.Slot[CarCarouselSlide]{
		records.Single("image_url", "car-carousel", func(c *CarCarouselSlide) **string { return &c.ImageURL }).Require().Accepting(imageTypes...),
	},
	Order:   "id ASC",
	Filters: []string{"car_name"},
	Search:  []string{"car_name", "title"},
}
