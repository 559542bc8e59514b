// Package catalog declares the tables of the dealership site and binds each of
// them to a record manager and its HTTP routes.
package catalog

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/konorlevich/dealership_api/internal/rest-service/handler"
	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

var imageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".avif"}

// Maintainer is a table whose stored paths can be inspected and repaired.
type Maintainer interface {
	Name() string
	ReferencedPaths(ctx context.Context) ([]string, error)
	NormalizePaths(ctx context.Context) (int, error)
}

type Registry struct {
	Mounters    []handler.Mounter
	Maintainers []Maintainer
	Models      []any
	Dirs        []string
}

// Build creates a manager for every table.
func Build(rd records.Deps, hd handler.Deps) *Registry {
	r := &Registry{}

	add(r, rd, hd, accessories)
	add(r, rd, hd, brochures)
	add(r, rd, hd, serviceOffers)
	add(r, rd, hd, pageBanners)
	add(r, rd, hd, carColors)
	add(r, rd, hd, carSwatches)
	add(r, rd, hd, convenienceFeatures)
	add(r, rd, hd, exteriorGallery)
	add(r, rd, hd, exteriorViews)
	add(r, rd, hd, carLogos)
	add(r, rd, hd, performance)
	add(r, rd, hd, vehicles)
	add(r, rd, hd, safetyFeatures)
	add(r, rd, hd, specifications)
	add(r, rd, hd, highlightGallery)
	add(r, rd, hd, highlightTabs)
	add(r, rd, hd, interiorGallery)
	add(r, rd, hd, cars)
	add(r, rd, hd, carCarousel)

	add(r, rd, hd, aboutUs)
	add(r, rd, hd, galleries)
	add(r, rd, hd, homeCarousel)
	add(r, rd, hd, homeServices)
	add(r, rd, hd, insideAboutUs)
	add(r, rd, hd, testimonials)
	add(r, rd, hd, services)
	add(r, rd, hd, homeAboutSections)
	add(r, rd, hd, homeTabs)
	add(r, rd, hd, detailedLocations)

	add(r, rd, hd, documentation)
	add(r, rd, hd, pages)
	add(r, rd, hd, locations)
	add(r, rd, hd, metadata)
	add(r, rd, hd, faqs)
	add(r, rd, hd, topNavbar)
	add(r, rd, hd, socialIcons)
	add(r, rd, hd, homeAboutIntro)
	add(r, rd, hd, homeAboutHighlights)

	add(r, rd, hd, serviceBookings)
	add(r, rd, hd, accessoryEnquiries)
	add(r, rd, hd, contactMessages)
	add(r, rd, hd, insuranceEnquiries)
	add(r, rd, hd, loanEnquiries)
	add(r, rd, hd, pickDropRequests)
	add(r, rd, hd, roadsideRequests)
	add(r, rd, hd, sideFormEnquiries)
	add(r, rd, hd, testDriveBookings)

	return r
}

func add[T any](r *Registry, rd records.Deps, hd handler.Deps, res records.Resource[T]) {
	m := records.NewManager(res, rd)
	r.Mounters = append(r.Mounters, handler.Bind(m, hd))
	r.Maintainers = append(r.Maintainers, m)
	r.Models = append(r.Models, new(T))
	for _, d := range res.Dirs() {
		if !slices.Contains(r.Dirs, d) {
			r.Dirs = append(r.Dirs, d)
		}
	}
}

// Maintainer returns the table exposed under name.
func (r *Registry) Maintainer(name string) (Maintainer, error) {
	for _, m := range r.Maintainers {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown resource %q", name)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// withDefault sets a string field left empty by the client.
func withDefault[T any](ref func(*T) *string, value string) func(*T) error {
	return func(rec *T) error {
		if p := ref(rec); strings.TrimSpace(*p) == "" {
			*p = value
		}
		return nil
	}
}
