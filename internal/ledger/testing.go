package ledger

// SeedBalance is a test helper that seeds the balance for an address when using the in-memory ledger.
func SeedBalance(l Ledger, address string, amount int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		acct := mem.account(address)
		acct.mu.Lock()
		defer acct.mu.Unlock()
		acct.balance = amount
	}
}
