package middlewares

import (
	"context"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type fabricReader struct {
	db *gorm.DB
}

func (r *fabricReader) getFabrics(ctx context.Context, ids []int) []*dataloader.Result[*models.Fabric] {
	var results []models.Fabric
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Fabric](len(ids), err)
	}

	return generateLoaderResults(results, ids)
}

func GetFabric(ctx context.Context, id int) (*models.Fabric, error) {
	loaders := For(ctx)
	return loaders.fabricLoader.Load(ctx, id)()
}
