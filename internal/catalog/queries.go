package catalog

// queries.go holds the SQL templates for every (source, kind) pair.
//
// Placeholder conventions:
//   - @name placeholders bind scalar parameters positionally at execution.
//   - @storefront_ids is a list parameter; the executor renders it as a
//     literal integer tuple before binding, so it must appear inside IN (...).
//   - Optional filters use "@x IS NULL OR col = @x" so an omitted filter
//     matches every row.
//
// The data query of each pair must select the exact column set and order the
// export file should carry; the engine never reorders columns.

import (
	"fmt"

	"github.com/adsight/exporter/internal/core"
)

// Catalog resolves SQL templates for registered data sources. It implements
// core.QueryResolver.
type Catalog struct {
	queries map[string]map[core.QueryKind]string
}

// New returns the built-in report catalog.
func New() *Catalog {
	return &Catalog{queries: sourceQueries}
}

// Query returns the SQL template for the given source and kind.
func (c *Catalog) Query(sourceKey string, kind core.QueryKind) (string, error) {
	byKind, ok := c.queries[sourceKey]
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrUnknownSource, sourceKey)
	}
	sql, ok := byKind[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s for source %s", core.ErrUnknownQueryKind, kind, sourceKey)
	}
	return sql, nil
}

var sourceQueries = map[string]map[core.QueryKind]string{
	"storefront_in_workspace": {
		core.KindCount: `
			SELECT count(1)
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
			WHERE storefront_workspace.workspace_id = @workspace_id`,
		core.KindData: `
			SELECT
				storefront.ads_ops_storefront_id AS storefront_eid,
				storefront.storefront_name AS storefront_name,
				storefront.storefront_sid AS storefront_sid,
				storefront.country_code AS country_code,
				storefront.marketplace_code AS marketplace_code,
				storefront_workspace.storefront_division AS storefront_division,
				storefront_workspace.workspace_id AS workspace_id
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
			WHERE storefront_workspace.workspace_id = @workspace_id
			ORDER BY storefront.ads_ops_storefront_id`,
	},

	"campaign_optimization": {
		core.KindCount: `
			SELECT count(1)
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN campaign_optimization_daily AS campaign
					ON campaign.storefront_id = storefront.id
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND campaign.created_datetime BETWEEN @start_date AND @end_date`,
		core.KindData: `
			SELECT
				storefront.ads_ops_storefront_id AS storefront_eid,
				storefront.storefront_name AS storefront_name,
				campaign.campaign_sid AS campaign_sid,
				campaign.campaign_name AS campaign_name,
				campaign.created_datetime AS report_date,
				campaign.optimization_type AS optimization_type,
				campaign.current_bid AS current_bid,
				campaign.suggested_bid AS suggested_bid,
				campaign.estimated_impact AS estimated_impact,
				campaign.status AS status
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN campaign_optimization_daily AS campaign
					ON campaign.storefront_id = storefront.id
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND campaign.created_datetime BETWEEN @start_date AND @end_date
			ORDER BY campaign.created_datetime, campaign.campaign_sid`,
	},

	"keyword_lab": {
		core.KindCount: `
			SELECT count(1)
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN kw_discovery_storefront_keyword AS storefront_keyword
					ON storefront_keyword.storefront_id = storefront.id
				INNER JOIN kw_discovery_storefront_keyword_perf AS keyword_perf
					ON keyword_perf.keyword_id = storefront_keyword.keyword_id
					AND keyword_perf.storefront_id = storefront.id
					AND keyword_perf.timing = 'daily'
			WHERE storefront_keyword.keyword_type != 'irrelevant'
				AND storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND keyword_perf.created_datetime BETWEEN @start_date AND @end_date`,
		core.KindData: `
			SELECT
				storefront.ads_ops_storefront_id AS storefront_eid,
				storefront.storefront_name AS storefront_name,
				storefront.country_code AS country_code,
				keyword.keyword AS keyword,
				storefront_keyword.keyword_type AS keyword_type,
				storefront_keyword.category_name AS category_name,
				storefront_keyword.brand_name AS brand_name,
				storefront_keyword.active_skus AS active_skus,
				storefront_keyword.operational_status AS operational_status,
				keyword_perf.created_datetime AS report_date,
				keyword_perf.est_daily_search_volume AS daily_search_volume,
				keyword_perf.suggested_bidding_price AS suggested_bidding_price,
				storefront_keyword.current_avg_bidding_price AS current_avg_bidding_price
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN kw_discovery_storefront_keyword AS storefront_keyword
					ON storefront_keyword.storefront_id = storefront.id
				INNER JOIN onsite_keyword_sharded AS keyword
					ON keyword.id = storefront_keyword.keyword_id
				INNER JOIN kw_discovery_storefront_keyword_perf AS keyword_perf
					ON keyword_perf.keyword_id = keyword.id
					AND keyword_perf.storefront_id = storefront.id
					AND keyword_perf.timing = 'daily'
			WHERE storefront_keyword.keyword_type != 'irrelevant'
				AND storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND keyword_perf.created_datetime BETWEEN @start_date AND @end_date
			ORDER BY keyword_perf.created_datetime, keyword.keyword`,
	},

	"keyword_performance": {
		core.KindCount: `
			SELECT count(1)
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN kw_discovery_storefront_keyword AS storefront_keyword
					ON storefront_keyword.storefront_id = storefront.id
				INNER JOIN kw_discovery_storefront_keyword_perf AS keyword_perf
					ON keyword_perf.keyword_id = storefront_keyword.keyword_id
					AND keyword_perf.storefront_id = storefront.id
					AND keyword_perf.timing = 'daily'
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND keyword_perf.created_datetime BETWEEN @start_date AND @end_date
				AND (@device_type IS NULL OR keyword_perf.device_type = @device_type)
				AND (@display_type IS NULL OR keyword_perf.display_type = @display_type)
				AND (@product_position IS NULL OR keyword_perf.product_position = @product_position)`,
		core.KindData: `
			SELECT
				storefront.ads_ops_storefront_id AS storefront_eid,
				storefront.storefront_name AS storefront_name,
				storefront.country_code AS country_code,
				keyword.keyword AS keyword,
				keyword_perf.created_datetime AS report_date,
				keyword_perf.device_type AS device_type,
				keyword_perf.display_type AS display_type,
				keyword_perf.product_position AS product_position,
				keyword_perf.impression AS impression,
				keyword_perf.click AS click,
				keyword_perf.cost AS cost,
				keyword_perf.ads_gmv AS ads_gmv,
				keyword_perf.ads_item_sold AS ads_item_sold,
				(keyword_perf.ads_gmv / NULLIF(keyword_perf.cost, 0)) AS roas,
				(keyword_perf.cost / NULLIF(keyword_perf.click, 0)) AS cpc,
				(keyword_perf.click / NULLIF(keyword_perf.impression, 0)) AS ctr,
				(keyword_perf.ads_item_sold / NULLIF(keyword_perf.click, 0)) AS cr
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN kw_discovery_storefront_keyword AS storefront_keyword
					ON storefront_keyword.storefront_id = storefront.id
				INNER JOIN onsite_keyword_sharded AS keyword
					ON keyword.id = storefront_keyword.keyword_id
				INNER JOIN kw_discovery_storefront_keyword_perf AS keyword_perf
					ON keyword_perf.keyword_id = keyword.id
					AND keyword_perf.storefront_id = storefront.id
					AND keyword_perf.timing = 'daily'
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND keyword_perf.created_datetime BETWEEN @start_date AND @end_date
				AND (@device_type IS NULL OR keyword_perf.device_type = @device_type)
				AND (@display_type IS NULL OR keyword_perf.display_type = @display_type)
				AND (@product_position IS NULL OR keyword_perf.product_position = @product_position)
			ORDER BY keyword_perf.created_datetime, keyword.keyword`,
	},

	"product_tracking": {
		core.KindCount: `
			SELECT count(1)
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN product_tracking_daily AS tracking
					ON tracking.storefront_id = storefront.id
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND tracking.created_datetime BETWEEN @start_date AND @end_date`,
		core.KindData: `
			SELECT
				storefront.ads_ops_storefront_id AS storefront_eid,
				storefront.storefront_name AS storefront_name,
				tracking.product_sid AS product_sid,
				tracking.product_name AS product_name,
				tracking.created_datetime AS report_date,
				tracking.price AS price,
				tracking.rating AS rating,
				tracking.review_count AS review_count,
				tracking.units_sold AS units_sold,
				tracking.gmv AS gmv
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN product_tracking_daily AS tracking
					ON tracking.storefront_id = storefront.id
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND tracking.created_datetime BETWEEN @start_date AND @end_date
			ORDER BY tracking.created_datetime, tracking.product_sid`,
	},

	"storefront_optimization": {
		core.KindCount: `
			SELECT count(1)
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN storefront_optimization_daily AS optimization
					ON optimization.storefront_id = storefront.id
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND optimization.created_datetime BETWEEN @start_date AND @end_date`,
		core.KindData: `
			SELECT
				storefront.ads_ops_storefront_id AS storefront_eid,
				storefront.storefront_name AS storefront_name,
				optimization.created_datetime AS report_date,
				optimization.optimization_type AS optimization_type,
				optimization.target_metric AS target_metric,
				optimization.current_value AS current_value,
				optimization.suggested_value AS suggested_value,
				optimization.estimated_impact AS estimated_impact,
				optimization.status AS status
			FROM onsite_storefront AS storefront
				INNER JOIN kw_discovery_storefront_workspace AS storefront_workspace
					ON storefront_workspace.storefront_id = storefront.id
				INNER JOIN storefront_optimization_daily AS optimization
					ON optimization.storefront_id = storefront.id
			WHERE storefront.ads_ops_storefront_id IN @storefront_ids
				AND storefront_workspace.workspace_id = @workspace_id
				AND optimization.created_datetime BETWEEN @start_date AND @end_date
			ORDER BY optimization.created_datetime`,
	},
}
