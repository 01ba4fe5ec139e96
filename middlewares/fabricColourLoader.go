package middlewares

import (
	"context"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type fabricColourReader struct {
	db *gorm.DB
}

func (r *fabricColourReader) getFabricColours(ctx context.Context, ids []int) []*dataloader.Result[*models.FabricColour] {
	var results []models.FabricColour
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.FabricColour](len(ids), err)
	}

	return generateLoaderResults(results, ids)
}

func GetFabricColour(ctx context.Context, id int) (*models.FabricColour, error) {
	loaders := For(ctx)
	return loaders.fabricColourLoader.Load(ctx, id)()
}

func GetFabricColours(ctx context.Context, ids []int) ([]*models.FabricColour, []error) {
	loaders := For(ctx)
	return loaders.fabricColourLoader.LoadMany(ctx, ids)()
}
