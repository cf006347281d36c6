package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/assistenteze/agro/internal/clock"
	"github.com/assistenteze/agro/internal/geo"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/repository"
	"github.com/assistenteze/agro/internal/validation"
)

// Dates are printed in Brasília time.
var brasilia = time.FixedZone("BRT", -3*60*60)

type areaReport struct {
	AreaDisplay      string  `json:"areaDisplay" yaml:"areaDisplay"`
	AreaSquareMeters float64 `json:"areaSquareMeters" yaml:"areaSquareMeters"`
	Vertices         int     `json:"vertices" yaml:"vertices"`
}

func newAreaCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "area <file|->",
		Short: "Estimate the area of a GeoJSON polygon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var polygon models.Polygon
			if err := json.NewDecoder(r).Decode(&polygon); err != nil {
				return fmt.Errorf("invalid GeoJSON polygon: %w", err)
			}
			ring := polygon.Ring()
			if err := geo.ValidateRing(ring); err != nil {
				return err
			}

			area := geo.EstimateArea(ring)
			report := areaReport{
				AreaSquareMeters: area,
				AreaDisplay:      geo.FormatArea(area),
				Vertices:         geo.VertexCount(ring),
			}
			return render(cmd.OutOrStdout(), opts.output, report, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (%.2f m², %d vertices)\n", report.AreaDisplay, report.AreaSquareMeters, report.Vertices)
				return err
			})
		},
	}
}

type validationReport struct {
	Kind      string `json:"kind" yaml:"kind"`
	Input     string `json:"input" yaml:"input"`
	Formatted string `json:"formatted,omitempty" yaml:"formatted,omitempty"`
	Valid     bool   `json:"valid" yaml:"valid"`
}

// errInvalidValue makes the process exit non-zero after the report is printed.
var errInvalidValue = errors.New("invalid value")

func newValidateCmd(opts *globalOptions) *cobra.Command {
	validate := &cobra.Command{Use: "validate", Short: "Check a form field the way the API does"}

	kinds := []struct {
		use    string
		short  string
		valid  func(string) bool
		format func(string) string
	}{
		{"phone <value>", "Check a mobile number with area code", validation.ValidPhone, validation.FormatPhone},
		{"otp <value>", "Check a 6-digit login code", validation.ValidOTP, nil},
		{"cep <value>", "Check a postal code", validation.ValidCEP, validation.FormatCEP},
	}

	for _, k := range kinds {
		validate.AddCommand(&cobra.Command{
			Use:   k.use,
			Short: k.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				report := validationReport{
					Kind:  cmd.Name(),
					Input: args[0],
					Valid: k.valid(args[0]),
				}
				if report.Valid && k.format != nil {
					report.Formatted = k.format(args[0])
				}

				err := render(cmd.OutOrStdout(), opts.output, report, func(w io.Writer) error {
					if !report.Valid {
						_, err := fmt.Fprintf(w, "invalid %s: %q\n", report.Kind, report.Input)
						return err
					}
					shown := report.Formatted
					if shown == "" {
						shown = report.Input
					}
					_, err := fmt.Fprintf(w, "valid %s: %s\n", report.Kind, shown)
					return err
				})
				if err != nil {
					return err
				}
				if !report.Valid {
					return errInvalidValue
				}
				return nil
			},
		})
	}
	return validate
}

type propertyRow struct {
	CreatedAt   string  `json:"createdAt" yaml:"createdAt"`
	ID          string  `json:"id" yaml:"id"`
	OwnerID     string  `json:"ownerId" yaml:"ownerId"`
	Name        string  `json:"name" yaml:"name"`
	City        string  `json:"city" yaml:"city"`
	CEP         string  `json:"cep,omitempty" yaml:"cep,omitempty"`
	AreaDisplay string  `json:"areaDisplay" yaml:"areaDisplay"`
	Area        float64 `json:"areaSquareMeters" yaml:"areaSquareMeters"`
}

func newPropertiesCmd(opts *globalOptions) *cobra.Command {
	properties := &cobra.Command{Use: "properties", Short: "Inspect the saved property collection"}

	properties.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved properties",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := repository.NewPropertyRepository(store, opts.logger(cmd)).ListAll(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]propertyRow, 0, len(all))
			for _, p := range all {
				rows = append(rows, propertyRow{
					ID:          p.ID,
					OwnerID:     p.OwnerID,
					Name:        p.Name,
					City:        p.City,
					CEP:         p.CEP,
					Area:        p.Area(),
					AreaDisplay: geo.FormatArea(p.Area()),
					CreatedAt:   p.CreatedAt.In(brasilia).Format("02/01/2006"),
				})
			}

			return render(cmd.OutOrStdout(), opts.output, rows, func(w io.Writer) error {
				if len(rows) == 0 {
					_, err := fmt.Fprintln(w, "no properties")
					return err
				}
				for _, r := range rows {
					if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.City, r.AreaDisplay, r.CreatedAt); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	properties.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a saved property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			repo := repository.NewPropertyRepository(store, opts.logger(cmd))
			existing, err := repo.FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("property %s not found", args[0])
			}
			if err := repo.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%s)\n", existing.ID, existing.Name)
			return nil
		},
	})
	return properties
}

type sessionReport struct {
	UserID    string `json:"userId" yaml:"userId"`
	Name      string `json:"name" yaml:"name"`
	Phone     string `json:"phone" yaml:"phone"`
	ExpiresAt string `json:"expiresAt" yaml:"expiresAt"`
	Active    bool   `json:"active" yaml:"active"`
}

func newSessionCmd(opts *globalOptions) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Inspect the device session"}

	session.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the logged-in user; an expired session is cleared",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions := repository.NewSessionRepository(store, clock.SystemClock{}, 0, opts.logger(cmd))
			s, err := sessions.Read(cmd.Context())
			if err != nil {
				return err
			}

			report := sessionReport{}
			if s != nil && s.User != nil {
				report = sessionReport{
					Active:    true,
					UserID:    s.User.ID,
					Name:      s.User.Name,
					Phone:     validation.FormatPhone(s.User.Phone),
					ExpiresAt: s.ExpiresAt.In(brasilia).Format("02/01/2006 15:04"),
				}
			}

			return render(cmd.OutOrStdout(), opts.output, report, func(w io.Writer) error {
				if !report.Active {
					_, err := fmt.Fprintln(w, "no active session")
					return err
				}
				_, err := fmt.Fprintf(w, "%s %s (%s) until %s\n", report.UserID, report.Name, report.Phone, report.ExpiresAt)
				return err
			})
		},
	})

	session.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Log out the device and drop its properties",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions := repository.NewSessionRepository(store, clock.SystemClock{}, 0, opts.logger(cmd))
			if err := sessions.Clear(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	})
	return session
}
