package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/konorlevich/dealership_api/internal/rest-service/catalog"
	"github.com/konorlevich/dealership_api/internal/rest-service/cleanup"
	"github.com/konorlevich/dealership_api/internal/rest-service/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table and the upload directories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := store.Prepare(cmd.Context(), registry.Dirs...); err != nil {
			return err
		}
		if err := database.Migrate(db, registry.Models...); err != nil {
			return err
		}
		l.WithField("tables", len(registry.Models)).Info("schema is up to date")
		return nil
	},
}

var normalizeResource string

var normalizeCmd = &cobra.Command{
	Use:   "normalize-paths",
	Short: "Rewrite stored file paths to the canonical uploads/<dir>/<file> form",
	Long: `Rewrite stored file paths to the canonical uploads/<dir>/<file> form.

The API already returns canonical paths on read. This command rewrites the
stored values to match, so other tools see the same paths as API clients.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		targets := registry.Maintainers
		if normalizeResource != "" {
			m, err := registry.Maintainer(normalizeResource)
			if err != nil {
				return err
			}
			targets = []catalog.Maintainer{m}
		}
		total := 0
		for _, m := range targets {
			n, err := m.NormalizePaths(cmd.Context())
			if err != nil {
				return fmt.Errorf("can't normalize %s: %w", m.Name(), err)
			}
			if n > 0 {
				l.WithFields(log.Fields{"resource": m.Name(), "rows": n}).Info("paths rewritten")
			}
			total += n
		}
		l.WithField("rows", total).Info("normalization finished")
		return nil
	},
}

var sweepDelete bool

var sweepCmd = &cobra.Command{
	Use:   "sweep-orphans",
	Short: "List stored files no record references",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sources := make([]cleanup.PathSource, 0, len(registry.Maintainers))
		for _, m := range registry.Maintainers {
			sources = append(sources, m)
		}
		orphans, err := cleanup.Sweep(cmd.Context(), store, sources, sweepDelete, l)
		if err != nil {
			return err
		}
		for _, p := range orphans {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeResource, "resource", "", "only normalize this resource")
	sweepCmd.Flags().BoolVar(&sweepDelete, "delete", false, "remove the orphaned files")
}
