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
	"strings"
	"time"

	"lease-mining-go/internal/common"
	"lease-mining-go/internal/config"
	"lease-mining-go/internal/history"
	"lease-mining-go/internal/leases"
	"lease-mining-go/internal/models"

	"go.uber.org/zap"
)

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printLeases(servers []models.LeasedServer, now time.Time, duration time.Duration) int {
	fmt.Printf("\n┌─ Leased servers: %d\n", len(servers))
	common.PrintBoxSeparator(78)

	active := 0
	for i, server := range servers {
		isLast := i == len(servers)-1
		status := "active"
		if !leases.IsActive(server, now, duration) {
			status = "expired"
		} else {
			active++
		}
		fmt.Printf("%s %-28s %-8s %s/h  %s\n",
			common.BoxPrefix(isLast),
			server.Id,
			status,
			server.HourlyIncome.String(),
			leases.FormatRemaining(server, now, duration))
		fmt.Printf("%s   rented %s, last income %s\n",
			common.BoxDetailPrefix(isLast),
			common.FormatTimestamp(server.LeaseStart),
			common.FormatTimestamp(server.LastIncome))
	}
	return active
}

func printTransactions(txs []models.Transaction) {
	fmt.Printf("\n┌─ Recent transactions: %d\n", len(txs))
	common.PrintBoxSeparator(78)

	for i, tx := range txs {
		isLast := i == len(txs)-1
		fmt.Printf("%s %-7s %20s  %s  (%s)\n",
			common.BoxPrefix(isLast),
			tx.Type,
			common.FormatSignedAmount(tx.SignedAmount()),
			common.FormatTimestamp(tx.Timestamp),
			formatTransactionId(tx.Id))
		fmt.Printf("%s   %s\n", common.BoxDetailPrefix(isLast), tx.Description)
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	limitFlag := flag.Int("limit", 20, "Number of transactions to show (1-100)")
	offsetFlag := flag.Int("offset", 0, "Skip this many of the newest transactions")
	typeFlag := flag.String("type", "", "Only show RENT or INCOME transactions")
	leaseFlag := flag.String("lease", "", "Only show transactions for this lease id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Opening account state", zap.String("backend", cfg.Store.Backend))
	kv, l, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to load account", zap.Error(err))
	}
	defer kv.Close()

	state := l.Snapshot()
	now := time.Now()

	log := state.Transactions
	switch {
	case *leaseFlag != "":
		log = history.ForLease(log, *leaseFlag)
	case *typeFlag != "":
		log = history.FilterByType(log, models.TransactionType(strings.ToUpper(*typeFlag)))
	}

	common.PrintHeader("ACCOUNT LEDGER", common.DefaultWidth)
	fmt.Printf("Balance: %s   Mining: %v\n", common.FormatAmount(state.Balance), state.Mining)

	active := printLeases(state.LeasedServers, now, cfg.Mining.LeaseDuration)
	printTransactions(history.Page(log, *limitFlag, *offsetFlag))

	totals := history.Summarize(state.Transactions)
	reconciled := "OK"
	if err := l.Reconcile(); err != nil {
		reconciled = "MISMATCH"
	}

	summary := fmt.Sprintf("SUMMARY: income %s, rent %s, net %s, %d transactions, %d/%d leases active, reconcile %s",
		common.FormatAmount(totals.Income),
		common.FormatAmount(totals.Rent),
		common.FormatAmount(totals.Net),
		totals.Count,
		active,
		len(state.LeasedServers),
		reconciled)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Ledger report completed",
		zap.String("balance", state.Balance.String()),
		zap.Int("transactions", totals.Count),
		zap.String("reconcile", reconciled))
}
