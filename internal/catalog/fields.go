// Package catalog declares the reporting data sources the exporter serves:
// their input fields, validation rules, and SQL templates. Everything is
// registered with the core registry at init time; adding a source means
// adding entries here, not touching the engine.
package catalog

import "github.com/adsight/exporter/internal/core"

func init() {
	registerFields()
	registerSources()
}

func registerFields() {
	core.RegisterField(core.FieldDef{
		Name:     "workspace_id",
		Label:    "Workspace ID",
		Kind:     core.FieldText,
		Required: true,
		Numeric:  true,
		Param:    "workspace_id",
		Help:     "Enter a single workspace ID (numeric only)",
	})

	core.RegisterField(core.FieldDef{
		Name:       "storefront_ids",
		Label:      "Storefront EID",
		Kind:       core.FieldText,
		Required:   true,
		Numeric:    true,
		MultiValue: true,
		MaxValues:  5,
		Param:      "storefront_ids",
		Help:       "Enter one or more storefront EIDs separated by commas",
	})

	core.RegisterField(core.FieldDef{
		Name:     "date_range",
		Label:    "Select time range",
		Kind:     core.FieldDateRange,
		Required: true,
		Params:   [2]string{"start_date", "end_date"},
		SpanTiers: []core.SpanTier{
			{MaxStorefronts: 2, MaxDays: 60},
			{MaxStorefronts: 0, MaxDays: 30},
		},
		Help: "Reporting period; longer ranges are allowed with fewer storefronts",
	})

	core.RegisterField(core.FieldDef{
		Name:    "device_type",
		Label:   "Device Type",
		Kind:    core.FieldSelect,
		Options: []string{"Mobile", "Desktop", core.SentinelNone},
		Default: core.SentinelNone,
		Param:   "device_type",
		Help:    "Filter by device type or select 'None' for all devices",
	})

	core.RegisterField(core.FieldDef{
		Name:    "display_type",
		Label:   "Display Type",
		Kind:    core.FieldSelect,
		Options: []string{"Paid", "Organic", "Top", core.SentinelNone},
		Default: core.SentinelNone,
		Param:   "display_type",
		Help:    "Filter by display type or select 'None' for all types",
	})

	core.RegisterField(core.FieldDef{
		Name:    "product_position",
		Label:   "Product Position",
		Kind:    core.FieldSelect,
		Options: []string{"-1", "4", "10", core.SentinelNone},
		Default: core.SentinelNone,
		Param:   "product_position",
		Help:    "Filter by product position or select 'None' for all positions",
	})
}

func registerSources() {
	core.RegisterSource(core.DataSource{
		Key:         "storefront_in_workspace",
		Name:        "Storefront in Workspace",
		Description: "Export a list of all storefronts within a specified workspace.",
		Fields:      []string{"workspace_id"},
	})

	core.RegisterSource(core.DataSource{
		Key:         "campaign_optimization",
		Name:        "Campaign Optimization",
		Description: "Export campaign optimization data",
		Fields:      []string{"workspace_id", "storefront_ids", "date_range"},
	})

	core.RegisterSource(core.DataSource{
		Key:         "keyword_lab",
		Name:        "Keyword Lab",
		Description: "Export keyword lab data with date filtering",
		Fields:      []string{"workspace_id", "storefront_ids", "date_range"},
	})

	core.RegisterSource(core.DataSource{
		Key:         "keyword_performance",
		Name:        "Keyword Performance",
		Description: "Export keyword performance data with advanced filtering options",
		Fields: []string{
			"workspace_id", "storefront_ids", "date_range",
			"device_type", "display_type", "product_position",
		},
	})

	core.RegisterSource(core.DataSource{
		Key:         "product_tracking",
		Name:        "Product Tracking",
		Description: "Export product tracking data",
		Fields:      []string{"workspace_id", "storefront_ids", "date_range"},
	})

	core.RegisterSource(core.DataSource{
		Key:         "storefront_optimization",
		Name:        "Storefront Optimization",
		Description: "Export storefront optimization data",
		Fields:      []string{"workspace_id", "storefront_ids", "date_range"},
	})
}
