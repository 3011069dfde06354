// Package payment adapts the Midtrans Snap API to booking.Gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
)

var ErrNoRedirectURL = errors.New("gateway returned no redirect url")

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type Midtrans struct {
	snap snapAPI
}

func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var c snap.Client
	c.New(serverKey, env)
	return &Midtrans{snap: &c}
}

// IssueLink creates a Snap transaction and returns its redirect url. The SDK
// has no context support, so ctx only bounds how long we wait for it.
func (m *Midtrans) IssueLink(ctx context.Context, order booking.PaymentOrder) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.OrderID,
			GrossAmt: order.Amount,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    order.ItemID,
			Name:  order.ItemName,
			Price: order.Amount,
			Qty:   1,
		}},
	}

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)

	go func() {
		resp, mErr := m.snap.CreateTransaction(req)
		if mErr != nil {
			done <- result{err: fmt.Errorf("midtrans: %s", mErr.Message)}
			return
		}
		if resp == nil || resp.RedirectURL == "" {
			done <- result{err: ErrNoRedirectURL}
			return
		}
		done <- result{url: resp.RedirectURL}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			log.Printf("[payment] order=%s failed: %v", order.OrderID, r.err)
			return "", r.err
		}
		log.Printf("[payment] order=%s link issued", order.OrderID)
		return r.url, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
