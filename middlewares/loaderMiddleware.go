package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	customerLoader     *dataloader.Loader[int, *models.Customer]
	productLoader      *dataloader.Loader[int, *models.Product]
	fabricLoader       *dataloader.Loader[int, *models.Fabric]
	fabricColourLoader *dataloader.Loader[int, *models.FabricColour]
	audienceLoader     *dataloader.Loader[int, *models.Audience]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	customerReader := &customerReader{db: conn}
	productReader := &productReader{db: conn}
	fabricReader := &fabricReader{db: conn}
	fabricColourReader := &fabricColourReader{db: conn}
	audienceReader := &audienceReader{db: conn}

	return &Loaders{
		customerLoader:     dataloader.NewBatchedLoader(customerReader.getCustomers, dataloader.WithWait[int, *models.Customer](time.Millisecond)),
		productLoader:      dataloader.NewBatchedLoader(productReader.getProducts, dataloader.WithWait[int, *models.Product](time.Millisecond)),
		fabricLoader:       dataloader.NewBatchedLoader(fabricReader.getFabrics, dataloader.WithWait[int, *models.Fabric](time.Millisecond)),
		fabricColourLoader: dataloader.NewBatchedLoader(fabricColourReader.getFabricColours, dataloader.WithWait[int, *models.FabricColour](time.Millisecond)),
		audienceLoader:     dataloader.NewBatchedLoader(audienceReader.getAudiences, dataloader.WithWait[int, *models.Audience](time.Millisecond)),
	}
}

func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}

func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}
