package resource

import (
	"context"

	"github.com/roach88/ecosoul/internal/ledger"
)

// stubClient is a ledger.Client whose behaviour is set per test.
type stubClient struct {
	session   *ledger.Session
	queryFn   func(method string, args []any) (ledger.Values, error)
	submitFn  func(method string, args []any) (ledger.SubmissionHash, error)
	waitFn    func(ctx context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error)
	submitted []string
	waits     int
}

func (c *stubClient) Connect(context.Context) (ledger.Session, error) {
	return *c.session, nil
}

func (c *stubClient) CurrentSession() (ledger.Session, bool) {
	if c.session == nil {
		return ledger.Session{}, false
	}
	return *c.session, true
}

func (c *stubClient) Query(_ context.Context, _, method string, args ...any) (ledger.Values, error) {
	return c.queryFn(method, args)
}

func (c *stubClient) Submit(_ context.Context, _, method string, args ...any) (ledger.SubmissionHash, error) {
	c.submitted = append(c.submitted, method)
	return c.submitFn(method, args)
}

func (c *stubClient) WaitForSubmission(ctx context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error) {
	c.waits++
	return c.waitFn(ctx, hash)
}

func sepoliaSession() *ledger.Session {
	return &ledger.Session{Account: "0xabc", Network: ledger.Sepolia}
}
