package model

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestSampleOrders(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := SampleOrders(now)

	assert.Len(t, orders, 5)
	for n, o := range orders {
		assert.Equal(t, fmt.Sprint(n+1), o.ID)
		assert.Equal(t, OrderPending, o.OrderStatus)
		assert.Empty(t, o.DeliveryStatus)
		assert.Equal(t, now.Add(-time.Duration(n)*time.Hour), o.VisitTime)
	}

	var b strings.Builder
	for _, o := range orders {
		paid := "not paid"
		if o.Paid {
			paid = "paid"
		}
		fmt.Fprintf(&b, "%s %s %s | %s | %s | %s\n", o.ID, o.UserID, o.PhoneNo, FormatItems(o.Items), o.Cost, paid)
	}

	g := goldie.New(t)
	g.Assert(t, "sample_orders", []byte(b.String()))
}

func TestAccepted(t *testing.T) {
	o := SampleOrders(time.Now())[1]
	a := o.Accepted()

	assert.Equal(t, OrderAccepted, a.OrderStatus)
	assert.Equal(t, DeliveryPending, a.DeliveryStatus)
	assert.Equal(t, OrderPending, o.OrderStatus)
}

func TestPatches(t *testing.T) {
	p := AcceptPatch()
	assert.Equal(t, OrderAccepted, *p.OrderStatus)
	assert.Equal(t, DeliveryPending, *p.DeliveryStatus)

	p = RejectPatch()
	assert.Equal(t, OrderRejected, *p.OrderStatus)
	assert.Nil(t, p.DeliveryStatus)

	p = DeliveryPatch(DeliveryDelivered)
	assert.Nil(t, p.OrderStatus)
	assert.Equal(t, DeliveryDelivered, *p.DeliveryStatus)

	assert.True(t, Patch{}.Empty())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, DeliveryStatus("lost").Valid())
}
