package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Audience struct {
	ID            int       `gorm:"primary_key" json:"id"`
	Name          string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description   string    `gorm:"size:500" json:"description"`
	Filters       string    `gorm:"type:json;not null" json:"filters"`
	CustomerCount int64     `gorm:"default:0" json:"customer_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AudienceFilter is the stored filter document. Every field is optional and
// the compiled predicates are independent conjuncts; an empty filter matches
// all customers.
type AudienceFilter struct {
	Tiers               []CustomerTier   `json:"tiers,omitempty"`
	OrderCountMin       *int             `json:"order_count_min,omitempty"`
	OrderCountMax       *int             `json:"order_count_max,omitempty"`
	LtvMin              *decimal.Decimal `json:"ltv_min,omitempty"`
	LtvMax              *decimal.Decimal `json:"ltv_max,omitempty"`
	LastOrderWithinDays *int             `json:"last_order_within_days,omitempty"`
	NoOrderWithinDays   *int             `json:"no_order_within_days,omitempty"`
	FirstOrderAfter     *MyDateString    `json:"first_order_after,omitempty"`
	FirstOrderBefore    *MyDateString    `json:"first_order_before,omitempty"`
	TagsInclude         []string         `json:"tags_include,omitempty"`
	TagsExclude         []string         `json:"tags_exclude,omitempty"`
	States              []string         `json:"states,omitempty"`
	AcceptsMarketing    *bool            `json:"accepts_marketing,omitempty"`
	ExcludeRtoRisk      *bool            `json:"exclude_rto_risk,omitempty"`
}

type NewAudience struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Filters     AudienceFilter `json:"filters"`
}

type AudiencesEdge Edge[Audience]
type AudiencesConnection struct {
	Edges    []*AudiencesEdge `json:"edges"`
	PageInfo *PageInfo        `json:"pageInfo"`
}

func (a Audience) GetCursor() string {
	return a.CreatedAt.String()
}

func (a Audience) GetId() int {
	return a.ID
}

// FilterFragment is one compiled WHERE conjunct.
type FilterFragment struct {
	Clause string
	Args   []interface{}
}

// CompileAudienceFilter translates a filter document into ordered WHERE
// fragments. Ranges become two comparisons, day windows become cutoff
// comparisons against last_order_at, tag includes become an OR of substring
// matches and tag excludes per-tag negated matches.
func CompileAudienceFilter(filter *AudienceFilter, now time.Time) []FilterFragment {
	var fragments []FilterFragment
	add := func(clause string, args ...interface{}) {
		fragments = append(fragments, FilterFragment{Clause: clause, Args: args})
	}

	if len(filter.Tiers) > 0 {
		add("tier IN ?", filter.Tiers)
	}
	if filter.OrderCountMin != nil {
		add("order_count >= ?", *filter.OrderCountMin)
	}
	if filter.OrderCountMax != nil {
		add("order_count <= ?", *filter.OrderCountMax)
	}
	if filter.LtvMin != nil {
		add("ltv >= ?", *filter.LtvMin)
	}
	if filter.LtvMax != nil {
		add("ltv <= ?", *filter.LtvMax)
	}
	if filter.LastOrderWithinDays != nil {
		cutoff := now.AddDate(0, 0, -*filter.LastOrderWithinDays)
		add("last_order_at >= ?", cutoff)
	}
	if filter.NoOrderWithinDays != nil {
		cutoff := now.AddDate(0, 0, -*filter.NoOrderWithinDays)
		add("(last_order_at IS NULL OR last_order_at < ?)", cutoff)
	}
	if filter.FirstOrderAfter != nil {
		add("first_order_at >= ?", time.Time(*filter.FirstOrderAfter))
	}
	if filter.FirstOrderBefore != nil {
		add("first_order_at < ?", time.Time(*filter.FirstOrderBefore))
	}
	if len(filter.TagsInclude) > 0 {
		ors := make([]string, 0, len(filter.TagsInclude))
		args := make([]interface{}, 0, len(filter.TagsInclude))
		for _, tag := range filter.TagsInclude {
			ors = append(ors, "tags LIKE ?")
			args = append(args, "%"+tag+"%")
		}
		add(fmt.Sprintf("(%s)", strings.Join(ors, " OR ")), args...)
	}
	for _, tag := range filter.TagsExclude {
		add("(tags IS NULL OR tags NOT LIKE ?)", "%"+tag+"%")
	}
	if len(filter.States) > 0 {
		add("state IN ?", filter.States)
	}
	if filter.AcceptsMarketing != nil {
		add("accepts_marketing = ?", *filter.AcceptsMarketing)
	}
	if filter.ExcludeRtoRisk != nil && *filter.ExcludeRtoRisk {
		add("rto_risk = ?", false)
	}

	return fragments
}

func applyAudienceFilter(db *gorm.DB, filter *AudienceFilter) *gorm.DB {
	for _, f := range CompileAudienceFilter(filter, time.Now()) {
		db = db.Where(f.Clause, f.Args...)
	}
	return db
}

// CountAudienceCustomers evaluates the compiled predicate against the
// customers table.
func CountAudienceCustomers(ctx context.Context, filter *AudienceFilter) (int64, error) {
	var count int64
	db := config.GetDB().WithContext(ctx).Model(&Customer{})
	err := applyAudienceFilter(db, filter).Count(&count).Error
	return count, err
}

func (input *NewAudience) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Audience](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Audience](ctx, "name", input.Name, id); err != nil {
		return err
	}
	for _, tier := range input.Filters.Tiers {
		if !tier.IsValid() {
			return utils.NewAppError("INVALID_FILTER", fmt.Sprintf("unknown tier %q", tier))
		}
	}
	if min, max := input.Filters.OrderCountMin, input.Filters.OrderCountMax; min != nil && max != nil && *min > *max {
		return utils.NewAppError("INVALID_FILTER", "order count range is inverted")
	}
	if min, max := input.Filters.LtvMin, input.Filters.LtvMax; min != nil && max != nil && min.GreaterThan(*max) {
		return utils.NewAppError("INVALID_FILTER", "ltv range is inverted")
	}
	return nil
}

func CreateAudience(ctx context.Context, input *NewAudience) (*Audience, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	count, err := CountAudienceCustomers(ctx, &input.Filters)
	if err != nil {
		return nil, err
	}
	filtersJson, err := utils.MarshalToJSON(input.Filters)
	if err != nil {
		return nil, err
	}

	audience := Audience{
		Name:          input.Name,
		Description:   input.Description,
		Filters:       filtersJson,
		CustomerCount: count,
	}
	if err := config.GetDB().WithContext(ctx).Create(&audience).Error; err != nil {
		return nil, err
	}
	return &audience, nil
}

func UpdateAudience(ctx context.Context, id int, input *NewAudience) (*Audience, error) {
	audience, err := utils.FetchModel[Audience](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	count, err := CountAudienceCustomers(ctx, &input.Filters)
	if err != nil {
		return nil, err
	}
	filtersJson, err := utils.MarshalToJSON(input.Filters)
	if err != nil {
		return nil, err
	}

	err = config.GetDB().WithContext(ctx).Model(audience).Updates(map[string]interface{}{
		"Name":          input.Name,
		"Description":   input.Description,
		"Filters":       filtersJson,
		"CustomerCount": count,
	}).Error
	if err != nil {
		return nil, err
	}
	return audience, nil
}

func DeleteAudience(ctx context.Context, id int) error {
	audience, err := utils.FetchModel[Audience](ctx, id)
	if err != nil {
		return err
	}

	inUse, err := utils.ResourceCountWhere[EmailCampaign](ctx, "audience_id = ?", id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return utils.NewAppError("IN_USE", "audience is referenced by campaigns")
	}

	return config.GetDB().WithContext(ctx).Delete(audience).Error
}

func GetAudience(ctx context.Context, id int) (*Audience, error) {
	return utils.FetchModel[Audience](ctx, id)
}

// ParsedFilters unmarshals the stored filter document.
func (a *Audience) ParsedFilters() (*AudienceFilter, error) {
	var filter AudienceFilter
	if err := utils.UnmarshalFromJSON([]byte(a.Filters), &filter); err != nil {
		return nil, err
	}
	return &filter, nil
}

// RefreshAudienceCount re-evaluates the stored filter and persists the new
// customer count.
func RefreshAudienceCount(ctx context.Context, id int) (*Audience, error) {
	audience, err := utils.FetchModel[Audience](ctx, id)
	if err != nil {
		return nil, err
	}
	filter, err := audience.ParsedFilters()
	if err != nil {
		return nil, err
	}
	count, err := CountAudienceCustomers(ctx, filter)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Model(audience).
		Update("CustomerCount", count).Error
	if err != nil {
		return nil, err
	}
	return audience, nil
}

func PaginateAudience(ctx context.Context, limit *int, after *string, name *string) (*AudiencesConnection, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Audience{})
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Audience](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var connection AudiencesConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		audienceEdge := AudiencesEdge(edge)
		connection.Edges = append(connection.Edges, &audienceEdge)
	}

	return &connection, err
}
