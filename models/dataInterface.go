package models

import (
	"time"

	"github.com/cohapparel/coherp_backend/utils"
)

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

func (c Customer) GetDefault(id int) Data {
	return Customer{
		ID:               id,
		Name:             "Deleted Customer",
		Tier:             CustomerTierBronze,
		AcceptsMarketing: utils.NewFalse(),
		RtoRisk:          utils.NewFalse(),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

func (p Product) GetDefault(id int) Data {
	return Product{
		ID:        id,
		Name:      "Deleted Product",
		IsActive:  utils.NewFalse(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (f Fabric) GetDefault(id int) Data {
	return Fabric{
		ID:        id,
		Name:      "Deleted Fabric",
		Unit:      "m",
		IsActive:  utils.NewFalse(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (c FabricColour) GetDefault(id int) Data {
	return FabricColour{
		ID:         id,
		ColourName: "Deleted Colour",
		IsActive:   utils.NewFalse(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func (a Audience) GetDefault(id int) Data {
	return Audience{
		ID:        id,
		Name:      "Deleted Audience",
		Filters:   "{}",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
