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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"lease-mining-go/internal/common"
	"lease-mining-go/internal/config"
	"lease-mining-go/internal/models"

	"go.uber.org/zap"
)

type rentRequest struct {
	offeringId string
	count      int
}

func parseAndValidateFlags() (*rentRequest, bool, error) {
	offeringFlag := flag.String("offering", "", "Offering id to rent, e.g. t3.medium (required unless -list)")
	countFlag := flag.Int("count", 1, "Number of servers to rent")
	listFlag := flag.Bool("list", false, "List the catalog and exit")
	flag.Parse()

	if *listFlag {
		return nil, true, nil
	}
	if *offeringFlag == "" {
		return nil, false, fmt.Errorf("--offering is required")
	}
	if *countFlag < 1 {
		return nil, false, fmt.Errorf("--count must be at least 1")
	}

	return &rentRequest{
		offeringId: *offeringFlag,
		count:      *countFlag,
	}, false, nil
}

func printCatalog(offerings []models.Offering, balance string) {
	common.PrintHeader("SERVER CATALOG", common.DefaultWidth)
	for i, o := range offerings {
		isLast := i == len(offerings)-1
		fmt.Printf("%s %-12s %4s units  %5d stars  %s/h\n",
			common.BoxPrefix(isLast), o.Id, o.Price.String(), o.StarsPrice, o.HourlyIncome.String())
		fmt.Printf("%s   %s\n", common.BoxDetailPrefix(isLast), o.Description)
	}
	common.PrintFooter("Balance: "+balance, common.DefaultWidth)
}

func printLease(result *models.RentResult, remaining string) {
	lease := result.Lease
	fmt.Printf("✓ Rented %s\n", lease.Name)
	fmt.Printf("   Lease ID:    %s\n", lease.Id)
	fmt.Printf("   Price:       %s\n", common.FormatAmount(lease.Price))
	fmt.Printf("   Income:      %s/h\n", lease.HourlyIncome.String())
	fmt.Printf("   Started:     %s\n", common.FormatTimestamp(lease.LeaseStart))
	fmt.Printf("   Remaining:   %s\n", remaining)
	fmt.Printf("   New balance: %s\n\n", common.FormatAmount(result.NewBalance))
}

func main() {
	req, listOnly, err := parseAndValidateFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if listOnly {
		printCatalog(services.Api.Catalog(), common.FormatAmount(services.Api.Balance()))
		return
	}

	rented := 0
	for i := 0; i < req.count; i++ {
		result := services.Api.RentOffering(ctx, req.offeringId)
		if !result.Success {
			fmt.Printf("✗ Rental %d of %d failed: %s (balance %s)\n",
				i+1, req.count, result.Error, common.FormatAmount(result.NewBalance))
			break
		}
		rented++
		printLease(result, services.Leases.Remaining(*result.Lease, time.Now()))
	}

	zap.L().Info("Rental run complete",
		zap.String("offering_id", req.offeringId),
		zap.Int("requested", req.count),
		zap.Int("rented", rented))

	if rented == 0 {
		os.Exit(1)
	}
}
