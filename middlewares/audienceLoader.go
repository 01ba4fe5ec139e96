package middlewares

import (
	"context"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type audienceReader struct {
	db *gorm.DB
}

func (r *audienceReader) getAudiences(ctx context.Context, ids []int) []*dataloader.Result[*models.Audience] {
	var results []models.Audience
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Audience](len(ids), err)
	}

	return generateLoaderResults(results, ids)
}

func GetAudience(ctx context.Context, id int) (*models.Audience, error) {
	loaders := For(ctx)
	return loaders.audienceLoader.Load(ctx, id)()
}

func GetAudiences(ctx context.Context, ids []int) ([]*models.Audience, []error) {
	loaders := For(ctx)
	return loaders.audienceLoader.LoadMany(ctx, ids)()
}
