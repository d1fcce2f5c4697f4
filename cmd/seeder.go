package cmd

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/catalog"
	"github.com/frahmantamala/rti-filing/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the catalog and an admin user",
	Long:  `Seed filing services, states and an admin account for development. Existing rows are left alone unless --clear is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		app, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		db := app.DB.Gorm.WithContext(cmd.Context())

		if clearData {
			if err := db.Exec("TRUNCATE payment_recoveries, rti_applications, services, states RESTART IDENTITY CASCADE").Error; err != nil {
				return fmt.Errorf("failed to clear data: %w", err)
			}
			fmt.Println("Cleared applications, recoveries and catalog")
		}

		adminEmail := envOr("SEED_ADMIN_EMAIL", "admin@rtifiling.local")
		var exists int
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row().Scan(&exists); err == nil {
			fmt.Println("admin user already exists:", adminEmail)
		} else {
			if _, err := app.Users.CreateAdmin(cmd.Context(), user.RegisterDTO{
				Name:     "RTI Admin",
				Email:    adminEmail,
				Password: envOr("SEED_ADMIN_PASSWORD", "change-me-now"),
			}); err != nil {
				return fmt.Errorf("failed to create admin user: %w", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		for _, svc := range seedServices() {
			if err := seedOnce(db, "services", svc.Slug, &svc); err != nil {
				return err
			}
		}
		for _, st := range seedStates() {
			if err := seedOnce(db, "states", st.Slug, &st); err != nil {
				return err
			}
		}

		fmt.Println("Catalog seeded successfully")
		return nil
	},
}

func seedOnce(db *gorm.DB, table, slug string, row interface{}) error {
	var exists int
	if err := db.Raw("SELECT 1 FROM "+table+" WHERE slug = ?", slug).Row().Scan(&exists); err == nil {
		return nil
	}
	if err := db.Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert %s %s: %w", table, slug, err)
	}
	fmt.Printf("Seeded %s: %s\n", table, slug)
	return nil
}

func seedServices() []catalogDatamodel.Service {
	icon := func(s string) *string { return &s }
	return []catalogDatamodel.Service{
		{
			Name:          "Seamless Online Filing",
			Slug:          "seamless-online-filing",
			Description:   "We draft and file your RTI application with the right public authority.",
			Price:         decimal.RequireFromString("699.00"),
			OriginalPrice: decimal.NewNullDecimal(decimal.RequireFromString("999.00")),
			Features:      datatypes.NewJSONSlice([]string{"Expert drafting", "Online filing", "Status tracking"}),
			Icon:          icon("file-text"),
			IsActive:      true,
		},
		{
			Name:        "First Appeal",
			Slug:        "first-appeal",
			Description: "Appeal to the First Appellate Authority when a reply is late or unsatisfactory.",
			Price:       decimal.RequireFromString("999.00"),
			Features:    datatypes.NewJSONSlice([]string{"Appeal drafting", "Filing", "Follow-up"}),
			Icon:        icon("scale"),
			IsActive:    true,
		},
		{
			Name:        "Free RTI Consultation",
			Slug:        "free-consultation",
			Description: "Tell us what you need; an expert calls you back.",
			Price:       decimal.Zero,
			Features:    datatypes.NewJSONSlice([]string{"Callback within one working day"}),
			Icon:        icon("phone"),
			IsActive:    true,
		},
	}
}

func seedStates() []catalogDatamodel.State {
	portal := func(s string) *string { return &s }
	return []catalogDatamodel.State{
		{Name: "Central Government", Slug: "central", PortalURL: portal("https://rtionline.gov.in"), IsActive: true},
		{Name: "Maharashtra", Slug: "maharashtra", PortalURL: portal("https://rtionline.maharashtra.gov.in"), IsActive: true},
		{Name: "Delhi", Slug: "delhi", PortalURL: portal("https://rtionline.delhi.gov.in"), IsActive: true},
		{Name: "Karnataka", Slug: "karnataka", IsActive: true},
		{Name: "Tamil Nadu", Slug: "tamil-nadu", IsActive: true},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
