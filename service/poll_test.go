package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illenko/pix-checkout/model"
)

type scriptedFetcher struct {
	responses []func() (model.TransactionResult, error)
	calls     int
}

func (f *scriptedFetcher) Transaction(ctx context.Context, identifier string) (model.TransactionResult, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return f.responses[i]()
}

func status(s string) func() (model.TransactionResult, error) {
	return func() (model.TransactionResult, error) {
		return model.TransactionResult{Payload: model.NewPayload([]byte(`{"status":"` + s + `"}`))}, nil
	}
}

func failWith(err error) func() (model.TransactionResult, error) {
	return func() (model.TransactionResult, error) { return model.TransactionResult{}, err }
}

func TestWaitForPayment_StopsWhenPaid(t *testing.T) {
	f := &scriptedFetcher{responses: []func() (model.TransactionResult, error){
		status("pending"),
		failWith(&UpstreamError{Op: OpTransaction, StatusCode: 503}),
		status("pending"),
		status("paid"),
	}}

	var seen []string
	result, err := WaitForPayment(context.Background(), f, "tx-1", time.Millisecond, func(r model.TransactionResult) {
		seen = append(seen, r.Status())
	})

	require.NoError(t, err)
	assert.True(t, result.Paid())
	assert.Equal(t, 4, f.calls)
	assert.Equal(t, []string{"pending", "pending", "paid"}, seen)
}

func TestWaitForPayment_AuthErrorIsFatal(t *testing.T) {
	f := &scriptedFetcher{responses: []func() (model.TransactionResult, error){
		failWith(&AuthError{StatusCode: 401}),
	}}

	_, err := WaitForPayment(context.Background(), f, "tx-1", time.Millisecond, nil)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 1, f.calls)
}

func TestWaitForPayment_GivesUpWithContext(t *testing.T) {
	upErr := &UpstreamError{Op: OpTransaction, StatusCode: 500}
	f := &scriptedFetcher{responses: []func() (model.TransactionResult, error){
		status("pending"),
		failWith(upErr),
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := WaitForPayment(ctx, f, "tx-1", 5*time.Millisecond, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, errors.Is(err, upErr))
}
