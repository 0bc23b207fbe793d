package service

// Request and response messages of billkeeper.v1.BillService, as declared in
// proto/billkeeper/v1/bill.proto. JSON names follow the proto JSON mapping
// (bill_id becomes billId). Money and
// quantities travel as decimal strings ("1250.50"); dates as YYYY-MM-DD.

// ItemInput describes a line item to add or replace.
type ItemInput struct {
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
}

// PaymentInput describes a payment to add or replace. An empty PaidOn means today.
type PaymentInput struct {
	PaidOn string `json:"paidOn,omitempty"`
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
}

// Item is a line item as returned to clients.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
	Amount    string `json:"amount"`
}

// Payment is a payment as returned to clients.
type Payment struct {
	ID     string `json:"id"`
	PaidOn string `json:"paidOn"`
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
}

// Status is a settlement status. Kind is one of pending, settled, waived,
// overpaid; Amount is empty for settled.
type Status struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount,omitempty"`
	Label  string `json:"label"`
}

// Bill is the full view of a bill.
type Bill struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Client       string    `json:"client,omitempty"`
	Address      string    `json:"address,omitempty"`
	StartDate    string    `json:"startDate,omitempty"`
	EndDate      string    `json:"endDate,omitempty"`
	Note         string    `json:"note,omitempty"`
	Items        []Item    `json:"items"`
	Payments     []Payment `json:"payments"`
	TotalAmount  string    `json:"totalAmount"`
	PaidAmount   string    `json:"paidAmount"`
	WaivedAmount string    `json:"waivedAmount"`
	Remaining    string    `json:"remaining"`
	Status       Status    `json:"status"`
	CreatedAt    int64     `json:"createdAt"`
	UpdatedAt    int64     `json:"updatedAt"`
}

// BillSummary is one row of ListBills.
type BillSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Client       string `json:"client,omitempty"`
	TotalAmount  string `json:"totalAmount"`
	PaidAmount   string `json:"paidAmount"`
	WaivedAmount string `json:"waivedAmount"`
	Status       Status `json:"status"`
	CreatedAt    int64  `json:"createdAt"`
}

// Event is one entry of a bill's change history.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type CreateBillRequest struct {
	Title     string         `json:"title,omitempty"`
	Client    string         `json:"client,omitempty"`
	Address   string         `json:"address,omitempty"`
	StartDate string         `json:"startDate,omitempty"`
	EndDate   string         `json:"endDate,omitempty"`
	Note      string         `json:"note,omitempty"`
	Items     []ItemInput    `json:"items,omitempty"`
	Payments  []PaymentInput `json:"payments,omitempty"`
}

// BillResponse carries the bill after a read or a change.
type BillResponse struct {
	Bill *Bill `json:"bill"`
}

type GetBillRequest struct {
	BillID string `json:"billId"`
}

type ListBillsRequest struct {
	Client string `json:"client,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type ListBillsResponse struct {
	Bills []BillSummary `json:"bills"`
}

type DeleteBillRequest struct {
	BillID string `json:"billId"`
}

type AddItemRequest struct {
	BillID string    `json:"billId"`
	Item   ItemInput `json:"item"`
}

type AddItemResponse struct {
	ItemID string `json:"itemId"`
	Bill   *Bill  `json:"bill"`
}

type RemoveItemRequest struct {
	BillID string `json:"billId"`
	ItemID string `json:"itemId"`
}

type UpdateItemRequest struct {
	BillID string    `json:"billId"`
	ItemID string    `json:"itemId"`
	Item   ItemInput `json:"item"`
}

type AddPaymentRequest struct {
	BillID  string       `json:"billId"`
	Payment PaymentInput `json:"payment"`
}

type AddPaymentResponse struct {
	PaymentID string `json:"paymentId"`
	Bill      *Bill  `json:"bill"`
}

type RemovePaymentRequest struct {
	BillID    string `json:"billId"`
	PaymentID string `json:"paymentId"`
}

type UpdatePaymentRequest struct {
	BillID    string       `json:"billId"`
	PaymentID string       `json:"paymentId"`
	Payment   PaymentInput `json:"payment"`
}

type ToggleSettleRequest struct {
	BillID string `json:"billId"`
}

type ListBillEventsRequest struct {
	BillID string `json:"billId"`
}

type ListBillEventsResponse struct {
	Events []Event `json:"events"`
}

// GetBillID lets interceptors tag logs with the bill a request targets.
func (r *GetBillRequest) GetBillID() string        { return r.BillID }
func (r *DeleteBillRequest) GetBillID() string     { return r.BillID }
func (r *AddItemRequest) GetBillID() string        { return r.BillID }
func (r *RemoveItemRequest) GetBillID() string     { return r.BillID }
func (r *UpdateItemRequest) GetBillID() string     { return r.BillID }
func (r *AddPaymentRequest) GetBillID() string     { return r.BillID }
func (r *RemovePaymentRequest) GetBillID() string  { return r.BillID }
func (r *UpdatePaymentRequest) GetBillID() string  { return r.BillID }
func (r *ToggleSettleRequest) GetBillID() string   { return r.BillID }
func (r *ListBillEventsRequest) GetBillID() string { return r.BillID }
