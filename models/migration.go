package models

import (
	"log"

	"github.com/cohapparel/coherp_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Customer{},
		&Order{}, &OrderLine{},
		&Product{}, &Variation{}, &Sku{},
		&BomRole{}, &VariationBomLine{}, &SkuBomLine{},
		&Fabric{}, &FabricColour{}, &FabricColourTransaction{}, &FabricColourReconciliation{},
		&Audience{},
		&EmailCampaign{}, &CampaignSend{}, &EmailOutboxRecord{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
