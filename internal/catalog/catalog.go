/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package catalog

import (
	"errors"
	"fmt"
	"os"

	"lease-mining-go/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

var ErrUnknownOffering = errors.New("unknown offering")

const defaultImageUrl = "https://www.it-world.ru/upload/iblock/664/xln29hgj7yuogkeo5jpjkxwo5mxyvnnn.jpg"

// Catalog is the fixed, read-only list of offerings
type Catalog struct {
	offerings []models.Offering
	byId      map[string]int
}

func New(offerings []models.Offering) (*Catalog, error) {
	c := &Catalog{
		offerings: append([]models.Offering(nil), offerings...),
		byId:      make(map[string]int, len(offerings)),
	}
	for i, o := range c.offerings {
		if _, dup := c.byId[o.Id]; dup {
			return nil, fmt.Errorf("duplicate offering id %q", o.Id)
		}
		if !o.Price.IsPositive() {
			return nil, fmt.Errorf("offering %q: price must be positive, got %s", o.Id, o.Price)
		}
		if !o.HourlyIncome.IsPositive() {
			return nil, fmt.Errorf("offering %q: hourly income must be positive, got %s", o.Id, o.HourlyIncome)
		}
		c.byId[o.Id] = i
	}
	return c, nil
}

// Default returns the built-in ten tier catalog.
func Default() *Catalog {
	c, err := New(defaultOfferings())
	if err != nil {
		panic(err)
	}
	return c
}

// All returns a copy of every offering in catalog order.
func (c *Catalog) All() []models.Offering {
	return append([]models.Offering(nil), c.offerings...)
}

func (c *Catalog) Lookup(id string) (models.Offering, error) {
	i, ok := c.byId[id]
	if !ok {
		return models.Offering{}, fmt.Errorf("%w: %s", ErrUnknownOffering, id)
	}
	return c.offerings[i], nil
}

func (c *Catalog) Len() int {
	return len(c.offerings)
}

type offeringConfig struct {
	Id           string `yaml:"id" validate:"required"`
	Name         string `yaml:"name" validate:"required"`
	Description  string `yaml:"description"`
	Price        string `yaml:"price" validate:"required,numeric"`
	StarsPrice   int    `yaml:"stars_price" validate:"gte=0"`
	HourlyIncome string `yaml:"hourly_income" validate:"required,numeric"`
	ImageUrl     string `yaml:"image_url" validate:"omitempty,url"`
}

type catalogConfig struct {
	Offerings []offeringConfig `yaml:"offerings" validate:"required,min=1,dive"`
}

// LoadFile reads a YAML catalog override. An empty path yields the default catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var cfg catalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse catalog: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	offerings := make([]models.Offering, 0, len(cfg.Offerings))
	for _, oc := range cfg.Offerings {
		price, err := decimal.NewFromString(oc.Price)
		if err != nil {
			return nil, fmt.Errorf("offering %q: invalid price %q: %w", oc.Id, oc.Price, err)
		}
		income, err := decimal.NewFromString(oc.HourlyIncome)
		if err != nil {
			return nil, fmt.Errorf("offering %q: invalid hourly income %q: %w", oc.Id, oc.HourlyIncome, err)
		}
		offerings = append(offerings, models.Offering{
			Id:           oc.Id,
			Name:         oc.Name,
			Description:  oc.Description,
			Price:        price,
			StarsPrice:   oc.StarsPrice,
			HourlyIncome: income,
			ImageUrl:     oc.ImageUrl,
		})
	}
	return New(offerings)
}

func defaultOfferings() []models.Offering {
	tiers := []struct {
		id, description string
		price, stars    int64
		hourly          string
	}{
		{"t2.micro", "Entry level server for small projects and testing", 3, 125, "0.004166667"},
		{"t3.small", "Standard server for moderate workloads", 5, 208, "0.006944444"},
		{"t3.medium", "Improved server with higher throughput", 7, 292, "0.009722222"},
		{"m5.large", "Powerful server for intensive computation", 9, 375, "0.0125"},
		{"m5.xlarge", "Extended server for heavy workloads", 11, 458, "0.015277778"},
		{"c5.large", "Compute optimized server for demanding tasks", 13, 542, "0.018055556"},
		{"c5.xlarge", "High performance compute server", 15, 625, "0.020833333"},
		{"r5.large", "Memory optimized server for databases", 17, 708, "0.023611111"},
		{"r5.xlarge", "Memory optimized server with high bandwidth", 19, 792, "0.026388889"},
		{"g4dn.xlarge", "Premium GPU server for maximum performance", 21, 875, "0.029166667"},
	}

	offerings := make([]models.Offering, len(tiers))
	for i, t := range tiers {
		offerings[i] = models.Offering{
			Id:           t.id,
			Name:         t.id,
			Description:  t.description,
			Price:        decimal.NewFromInt(t.price),
			StarsPrice:   int(t.stars),
			HourlyIncome: decimal.RequireFromString(t.hourly),
			ImageUrl:     defaultImageUrl,
		}
	}
	return offerings
}
