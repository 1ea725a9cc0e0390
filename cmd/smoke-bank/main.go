// Command smoke-bank runs the demo dataset through the full account
// lifecycle in-process and exits non-zero on any mismatch.
package main

import (
	"log"
	"math"

	"brightbank.org/internal/bank"
)

func main() {
	ledger := bank.NewLedger()
	if err := ledger.Register(bank.SeedAccounts()...); err != nil {
		log.Fatalf("register: %v", err)
	}

	sessions := bank.NewSessionManager(ledger)
	service := bank.NewTransactionService(ledger, sessions)

	acc, err := sessions.Login("js", 1111)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	if got := bank.Balance(&acc); got != 3840 {
		log.Fatalf("opening balance: got %v, want 3840", got)
	}

	jd, err := ledger.FindByUsername("jd")
	if err != nil {
		log.Fatalf("find receiver: %v", err)
	}
	totalBefore := bank.Balance(&acc) + bank.Balance(&jd)

	if out := service.Transfer("jd", 500); !out.Applied {
		log.Fatalf("transfer rejected: %s", out.Reason)
	}
	if out := service.RequestLoan(10000); !out.Applied {
		log.Fatalf("loan rejected: %s", out.Reason)
	}
	if out := service.RequestLoan(1e9); out.Applied {
		log.Fatal("oversized loan was granted")
	}

	js, _ := ledger.FindByUsername("js")
	jd, _ = ledger.FindByUsername("jd")
	totalAfter := bank.Balance(&js) + bank.Balance(&jd)
	if math.Abs(totalAfter-totalBefore-10000) > 1e-9 {
		log.Fatalf("conservation failed: %v -> %v", totalBefore, totalAfter)
	}

	if out := service.CloseAccount("js", 1111); !out.Applied {
		log.Fatalf("close rejected: %s", out.Reason)
	}
	if _, err := ledger.FindByUsername("js"); err == nil {
		log.Fatal("closed account still present")
	}
	if username := sessions.CurrentUsername(); username != "" {
		log.Fatalf("session survived closure: %q", username)
	}

	log.Println("smoke-bank: OK")
}
