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
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"lease-mining-go/internal/common"
	"lease-mining-go/internal/config"
	"lease-mining-go/internal/ledger"

	"go.uber.org/zap"
)

func confirm(prompt string) bool {
	fmt.Print(prompt + " [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func main() {
	yesFlag := flag.Bool("yes", false, "Skip the confirmation prompt")
	flag.Parse()

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

	before := services.Api.Snapshot()
	fmt.Printf("Current balance: %s, %d leased servers, %d transactions\n",
		common.FormatAmount(before.Balance), len(before.LeasedServers), len(before.Transactions))

	if !*yesFlag && !confirm("Reset the account to its starting state? All history will be lost") {
		fmt.Println("Aborted")
		return
	}

	if err := services.Api.ResetState(ctx); err != nil {
		zap.L().Fatal("Failed to reset account", zap.Error(err))
	}

	fmt.Printf("✓ Account reset. Balance: %s (%s)\n",
		common.FormatAmount(services.Api.Balance()), ledger.SeedDescription)
	zap.L().Info("Account reset",
		zap.String("previous_balance", before.Balance.String()),
		zap.Int("previous_transactions", len(before.Transactions)))
}
