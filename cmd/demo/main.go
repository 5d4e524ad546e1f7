// Command demo drives a trading session against the in-memory backend:
// fund an account, buy, watch the order fill, sell, and print the ledger
// after each reconciliation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/ledger"
	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote/mock"
	"github.com/user/papertrade/internal/session"
)

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	userID := uuid.New()
	backend := mock.New(userID, decimal.RequireFromString("10000.00"))
	sess := session.New(userID, backend, log)

	if err := sess.Refresh(ctx); err != nil {
		log.Fatal("initial refresh", zap.Error(err))
	}
	printAccount(sess)

	buy, err := sess.SubmitOrder(ctx, ledger.Proposal{
		Ticker:        "AAPL",
		Side:          models.Buy,
		ExecutionType: models.Market,
		Size:          10,
	})
	if err != nil {
		log.Fatal("buy rejected", zap.Error(err))
	}
	fmt.Printf("submitted buy %s: %d AAPL @ %s (%s)\n",
		buy.ID, buy.Size, buy.Price, buy.Status)

	// The backend fills the order; the next refresh observes the
	// transition and settles it locally.
	if err := backend.Fill(buy.ID); err != nil {
		log.Fatal("fill buy", zap.Error(err))
	}
	if err := sess.Refresh(ctx); err != nil {
		log.Fatal("refresh after buy", zap.Error(err))
	}
	printAccount(sess)
	printOrders(sess)

	sell, err := sess.SubmitOrder(ctx, ledger.Proposal{
		Ticker:        "AAPL",
		Side:          models.Sell,
		ExecutionType: models.Market,
		Size:          10,
	})
	if err != nil {
		log.Fatal("sell rejected", zap.Error(err))
	}
	fmt.Printf("submitted sell %s: %d AAPL @ %s (%s)\n",
		sell.ID, sell.Size, sell.Price, sell.Status)

	if err := backend.Fill(sell.ID); err != nil {
		log.Fatal("fill sell", zap.Error(err))
	}
	if err := sess.Refresh(ctx); err != nil {
		log.Fatal("refresh after sell", zap.Error(err))
	}
	printAccount(sess)
	printOrders(sess)

	// A sell without holdings is rejected before anything is recorded.
	if _, err := sess.SubmitOrder(ctx, ledger.Proposal{
		Ticker:        "TSLA",
		Side:          models.Sell,
		ExecutionType: models.Market,
		Size:          5,
	}); err != nil {
		fmt.Printf("sell 5 TSLA rejected: %v\n", err)
	} else {
		fmt.Fprintln(os.Stderr, "expected rejection, got acceptance")
		os.Exit(1)
	}
}

func printAccount(sess *session.Session) {
	acct := sess.Account()
	fmt.Printf("cash %s, holdings %v\n", acct.CashBalance, acct.Holdings)
}

func printOrders(sess *session.Session) {
	for _, o := range sess.Orders() {
		fmt.Printf("  %s %s %d %s @ %s  [%s]\n",
			o.ID, o.Side, o.Size, o.Ticker, o.Price, o.Status)
	}
}
