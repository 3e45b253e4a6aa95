package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"stockfolio/internal/repository"
)

const testPortfolio = "primary"

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	svc := &LedgerService{Repo: newStubLedger()}
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := svc.Deposit(context.Background(), testPortfolio, amount)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("amount=%s err=%v want ErrInvalidRequest", amount.String(), err)
		}
	}
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(250)
	svc := &LedgerService{Repo: stub}

	amount := decimal.RequireFromString("99.95")
	if _, err := svc.Deposit(context.Background(), testPortfolio, amount); err != nil {
		t.Fatalf("deposit err=%v", err)
	}
	balance, err := svc.Withdraw(context.Background(), testPortfolio, amount)
	if err != nil {
		t.Fatalf("withdraw err=%v", err)
	}
	if balance.Cmp(decimal.NewFromInt(250)) != 0 {
		t.Fatalf("balance=%s want=250", balance.String())
	}
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(100)
	svc := &LedgerService{Repo: stub}

	_, err := svc.Withdraw(context.Background(), testPortfolio, decimal.NewFromInt(150))
	if !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Fatalf("err=%v want ErrInsufficientFunds", err)
	}
	if stub.cash[testPortfolio].Cmp(decimal.NewFromInt(100)) != 0 {
		t.Fatalf("balance=%s want unchanged 100", stub.cash[testPortfolio].String())
	}
}

func TestBuySell_Scenario(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(1000)
	svc := &LedgerService{Repo: stub}
	ctx := context.Background()

	if err := svc.Buy(ctx, testPortfolio, "aapl", decimal.NewFromInt(100), decimal.NewFromInt(5)); err != nil {
		t.Fatalf("buy err=%v", err)
	}
	if stub.cash[testPortfolio].Cmp(decimal.NewFromInt(500)) != 0 {
		t.Fatalf("cash=%s want=500", stub.cash[testPortfolio].String())
	}
	h := stub.holding(testPortfolio, "AAPL")
	if h == nil {
		t.Fatal("holding AAPL missing (symbol should be normalized)")
	}
	if h.Shares.Cmp(decimal.NewFromInt(5)) != 0 || h.TotalCost.Cmp(decimal.NewFromInt(500)) != 0 {
		t.Fatalf("holding=%s/%s want 5/500", h.Shares.String(), h.TotalCost.String())
	}

	if err := svc.Sell(ctx, testPortfolio, "AAPL", decimal.NewFromInt(120), decimal.NewFromInt(5)); err != nil {
		t.Fatalf("sell err=%v", err)
	}
	if stub.cash[testPortfolio].Cmp(decimal.NewFromInt(1100)) != 0 {
		t.Fatalf("cash=%s want=1100", stub.cash[testPortfolio].String())
	}
	if !h.Shares.IsZero() {
		t.Fatalf("shares=%s want=0", h.Shares.String())
	}
	if h.RealizedProfit.Cmp(decimal.NewFromInt(100)) != 0 {
		t.Fatalf("realizedProfit=%s want=100", h.RealizedProfit.String())
	}

	entries, _ := stub.ListTransactions(ctx, testPortfolio, 10)
	if len(entries) != 2 {
		t.Fatalf("log entries=%d want=2", len(entries))
	}
}

// Buy and Sell must touch the cash account before the holding so every trade
// acquires row locks in the same order. Opposite orders deadlock under
// concurrent trades on one portfolio.
func TestBuyAndSell_AcquireCashRowFirst(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(1000)
	svc := &LedgerService{Repo: stub}
	ctx := context.Background()

	if err := svc.Buy(ctx, testPortfolio, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(5)); err != nil {
		t.Fatalf("buy err=%v", err)
	}
	if len(stub.calls) < 2 || stub.calls[0] != "GetCashAccountTx" || stub.calls[1] != "RecordBuyTx" {
		t.Fatalf("buy calls=%v want cash account first", stub.calls)
	}

	stub.calls = nil
	if err := svc.Sell(ctx, testPortfolio, "AAPL", decimal.NewFromInt(110), decimal.NewFromInt(2)); err != nil {
		t.Fatalf("sell err=%v", err)
	}
	if len(stub.calls) < 2 || stub.calls[0] != "GetCashAccountTx" || stub.calls[1] != "RecordSellTx" {
		t.Fatalf("sell calls=%v want cash account first", stub.calls)
	}
}

func TestWithdraw_ConcurrentOnlyAffordableSubsetCommits(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(100)
	svc := &LedgerService{Repo: stub}

	const workers = 5
	amount := decimal.NewFromInt(30)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(context.Background(), testPortfolio, amount)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	committed, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, repository.ErrInsufficientFunds):
			rejected++
		default:
			t.Fatalf("unexpected err=%v", err)
		}
	}
	// 100 covers exactly three withdrawals of 30, whatever the order.
	if committed != 3 || rejected != 2 {
		t.Fatalf("committed=%d rejected=%d want 3/2", committed, rejected)
	}
	balance := stub.cash[testPortfolio]
	if balance.IsNegative() {
		t.Fatalf("balance=%s went negative", balance.String())
	}
	if balance.Cmp(decimal.NewFromInt(10)) != 0 {
		t.Fatalf("balance=%s want=10", balance.String())
	}
}

func TestBuy_InsufficientCashRollsBack(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(100)
	svc := &LedgerService{Repo: stub}

	err := svc.Buy(context.Background(), testPortfolio, "AAPL", decimal.NewFromInt(50), decimal.NewFromInt(10))
	if !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Fatalf("err=%v want ErrInsufficientFunds", err)
	}
	if stub.holding(testPortfolio, "AAPL") != nil {
		t.Fatal("holding created despite rollback")
	}
	if len(stub.log) != 0 {
		t.Fatalf("log entries=%d want=0 after rollback", len(stub.log))
	}
	if stub.cash[testPortfolio].Cmp(decimal.NewFromInt(100)) != 0 {
		t.Fatalf("cash=%s want unchanged 100", stub.cash[testPortfolio].String())
	}
}

func TestSell_NoHolding(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(1000)
	svc := &LedgerService{Repo: stub}

	err := svc.Sell(context.Background(), testPortfolio, "MSFT", decimal.NewFromInt(50), decimal.NewFromInt(10))
	if !errors.Is(err, repository.ErrInsufficientShares) {
		t.Fatalf("err=%v want ErrInsufficientShares", err)
	}
	if len(stub.log) != 0 {
		t.Fatalf("log entries=%d want=0", len(stub.log))
	}
}

func TestBuy_RejectsBadInput(t *testing.T) {
	svc := &LedgerService{Repo: newStubLedger()}
	ctx := context.Background()

	cases := []struct {
		symbol   string
		price    decimal.Decimal
		quantity decimal.Decimal
	}{
		{"", decimal.NewFromInt(10), decimal.NewFromInt(1)},
		{"AAPL", decimal.Zero, decimal.NewFromInt(1)},
		{"AAPL", decimal.NewFromInt(10), decimal.Zero},
		{"AAPL", decimal.NewFromInt(-10), decimal.NewFromInt(1)},
	}
	for _, tc := range cases {
		if err := svc.Buy(ctx, testPortfolio, tc.symbol, tc.price, tc.quantity); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("symbol=%q price=%s qty=%s err=%v want ErrInvalidRequest",
				tc.symbol, tc.price.String(), tc.quantity.String(), err)
		}
	}
}

func TestHolding_Lookup(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(1000)
	svc := &LedgerService{Repo: stub}
	ctx := context.Background()

	if err := svc.Buy(ctx, testPortfolio, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(5)); err != nil {
		t.Fatalf("buy err=%v", err)
	}

	h, err := svc.Holding(ctx, testPortfolio, "aapl")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if h == nil || h.Shares.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("holding=%v want 5 shares (symbol should be normalized)", h)
	}

	h, err = svc.Holding(ctx, testPortfolio, "MSFT")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if h != nil {
		t.Fatalf("holding=%v want nil for untraded symbol", h)
	}

	if _, err := svc.Holding(ctx, testPortfolio, "  "); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err=%v want ErrInvalidRequest", err)
	}
}

func TestRemoveHolding_AbsentIsNoOp(t *testing.T) {
	stub := newStubLedger()
	svc := &LedgerService{Repo: stub}

	if err := svc.RemoveHolding(context.Background(), testPortfolio, "GOOG"); err != nil {
		t.Fatalf("err=%v want nil", err)
	}
}

func TestRemoveHolding_KeepsRealizedProfit(t *testing.T) {
	stub := newStubLedger()
	stub.cash[testPortfolio] = decimal.NewFromInt(1000)
	svc := &LedgerService{Repo: stub}
	ctx := context.Background()

	if err := svc.Buy(ctx, testPortfolio, "AAPL", decimal.NewFromInt(100), decimal.NewFromInt(5)); err != nil {
		t.Fatalf("buy err=%v", err)
	}
	if err := svc.Sell(ctx, testPortfolio, "AAPL", decimal.NewFromInt(110), decimal.NewFromInt(2)); err != nil {
		t.Fatalf("sell err=%v", err)
	}
	if err := svc.RemoveHolding(ctx, testPortfolio, "AAPL"); err != nil {
		t.Fatalf("remove err=%v", err)
	}

	h := stub.holding(testPortfolio, "AAPL")
	if !h.Shares.IsZero() || !h.TotalCost.IsZero() {
		t.Fatalf("holding not cleared: shares=%s totalCost=%s", h.Shares.String(), h.TotalCost.String())
	}
	if h.RealizedProfit.Cmp(decimal.NewFromInt(20)) != 0 {
		t.Fatalf("realizedProfit=%s want=20", h.RealizedProfit.String())
	}
	if len(stub.log) != 2 {
		t.Fatalf("log entries=%d want=2 (remove must not touch the log)", len(stub.log))
	}
}
