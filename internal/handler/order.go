package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"rationdesk/internal/model"
	"rationdesk/internal/tracker"
)

type Orders interface {
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	AcceptOrder(ctx context.Context, id string) error
	RejectOrder(ctx context.Context, id string) error
	UpdateDeliveryStatus(ctx context.Context, id string, status model.DeliveryStatus) error
}

type orderView struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	PhoneNo        string               `json:"phone_no"`
	Items          model.Items          `json:"items"`
	ItemsDisplay   string               `json:"items_display"`
	Cost           decimal.Decimal      `json:"cost"`
	Paid           bool                 `json:"pay_history"`
	VisitTime      string               `json:"visit_time"`
	OrderStatus    model.OrderStatus    `json:"order_status"`
	DeliveryStatus model.DeliveryStatus `json:"delivery_status,omitempty"`
}

func newOrderView(o model.Order) orderView {
	return orderView{
		ID:             o.ID,
		UserID:         o.UserID,
		PhoneNo:        o.PhoneNo,
		Items:          o.Items,
		ItemsDisplay:   model.FormatItems(o.Items),
		Cost:           o.Cost,
		Paid:           o.Paid,
		VisitTime:      o.VisitTime.Format(time.RFC3339),
		OrderStatus:    o.OrderStatus,
		DeliveryStatus: o.DeliveryStatus,
	}
}

func ListOrdersHandler(orders Orders) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := model.OrderStatus(r.URL.Query().Get("status"))
		if status == "" {
			status = model.OrderPending
		}
		writeOrders(w, r, orders, status)
	}
}

func AcceptOrderHandler(orders Orders) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := orders.AcceptOrder(r.Context(), id); err != nil {
			slog.Error("accept order failed", "order", id, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.OrderAccepted)})
	}
}

func RejectOrderHandler(orders Orders) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := orders.RejectOrder(r.Context(), id); err != nil {
			slog.Error("reject order failed", "order", id, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.OrderRejected)})
	}
}

type deliveryRequest struct {
	Status model.DeliveryStatus `json:"status"`
}

// UpdateDeliveryHandler changes the delivery status and answers with the
// refreshed delivery view.
func UpdateDeliveryHandler(orders Orders) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req deliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := orders.UpdateDeliveryStatus(r.Context(), id, req.Status); err != nil {
			switch {
			case errors.Is(err, tracker.ErrInvalidDeliveryStatus):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				slog.Error("delivery update failed", "order", id, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		slog.Info("delivery status updated", "order", id, "status", req.Status)

		writeOrders(w, r, orders, model.OrderAccepted)
	}
}

func writeOrders(w http.ResponseWriter, r *http.Request, orders Orders, status model.OrderStatus) {
	list, err := orders.ListOrders(r.Context(), status)
	if err != nil {
		switch {
		case errors.Is(err, tracker.ErrUnknownStatus):
			http.Error(w, "status must be pending or accepted", http.StatusBadRequest)
		default:
			slog.Error("list orders failed", "status", status, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	views := make([]orderView, 0, len(list))
	for _, o := range list {
		views = append(views, newOrderView(o))
	}
	writeJSON(w, http.StatusOK, views)
}
