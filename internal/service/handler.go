package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "billkeeper.v1.BillService"

// Procedure paths of BillService.
const (
	BillServiceCreateBillProcedure     = "/billkeeper.v1.BillService/CreateBill"
	BillServiceGetBillProcedure        = "/billkeeper.v1.BillService/GetBill"
	BillServiceListBillsProcedure      = "/billkeeper.v1.BillService/ListBills"
	BillServiceDeleteBillProcedure     = "/billkeeper.v1.BillService/DeleteBill"
	BillServiceAddItemProcedure        = "/billkeeper.v1.BillService/AddItem"
	BillServiceRemoveItemProcedure     = "/billkeeper.v1.BillService/RemoveItem"
	BillServiceUpdateItemProcedure     = "/billkeeper.v1.BillService/UpdateItem"
	BillServiceAddPaymentProcedure     = "/billkeeper.v1.BillService/AddPayment"
	BillServiceRemovePaymentProcedure  = "/billkeeper.v1.BillService/RemovePayment"
	BillServiceUpdatePaymentProcedure  = "/billkeeper.v1.BillService/UpdatePayment"
	BillServiceToggleSettleProcedure   = "/billkeeper.v1.BillService/ToggleSettle"
	BillServiceListBillEventsProcedure = "/billkeeper.v1.BillService/ListBillEvents"
)

// Codec returns the codec handlers and clients of BillService are built with.
func Codec() connect.Codec {
	return jsonCodec{}
}

// BillServiceHandler is implemented by *BillService.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[CreateBillRequest]) (*connect.Response[BillResponse], error)
	GetBill(context.Context, *connect.Request[GetBillRequest]) (*connect.Response[BillResponse], error)
	ListBills(context.Context, *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error)
	DeleteBill(context.Context, *connect.Request[DeleteBillRequest]) (*connect.Response[emptypb.Empty], error)
	AddItem(context.Context, *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error)
	RemoveItem(context.Context, *connect.Request[RemoveItemRequest]) (*connect.Response[BillResponse], error)
	UpdateItem(context.Context, *connect.Request[UpdateItemRequest]) (*connect.Response[BillResponse], error)
	AddPayment(context.Context, *connect.Request[AddPaymentRequest]) (*connect.Response[AddPaymentResponse], error)
	RemovePayment(context.Context, *connect.Request[RemovePaymentRequest]) (*connect.Response[BillResponse], error)
	UpdatePayment(context.Context, *connect.Request[UpdatePaymentRequest]) (*connect.Response[BillResponse], error)
	ToggleSettle(context.Context, *connect.Request[ToggleSettleRequest]) (*connect.Response[BillResponse], error)
	ListBillEvents(context.Context, *connect.Request[ListBillEventsRequest]) (*connect.Response[ListBillEventsResponse], error)
}

// NewBillServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)

	mux := http.NewServeMux()
	mux.Handle(BillServiceCreateBillProcedure, connect.NewUnaryHandler(BillServiceCreateBillProcedure, svc.CreateBill, opts...))
	mux.Handle(BillServiceGetBillProcedure, connect.NewUnaryHandler(BillServiceGetBillProcedure, svc.GetBill, opts...))
	mux.Handle(BillServiceListBillsProcedure, connect.NewUnaryHandler(BillServiceListBillsProcedure, svc.ListBills, opts...))
	mux.Handle(BillServiceDeleteBillProcedure, connect.NewUnaryHandler(BillServiceDeleteBillProcedure, svc.DeleteBill, opts...))
	mux.Handle(BillServiceAddItemProcedure, connect.NewUnaryHandler(BillServiceAddItemProcedure, svc.AddItem, opts...))
	mux.Handle(BillServiceRemoveItemProcedure, connect.NewUnaryHandler(BillServiceRemoveItemProcedure, svc.RemoveItem, opts...))
	mux.Handle(BillServiceUpdateItemProcedure, connect.NewUnaryHandler(BillServiceUpdateItemProcedure, svc.UpdateItem, opts...))
	mux.Handle(BillServiceAddPaymentProcedure, connect.NewUnaryHandler(BillServiceAddPaymentProcedure, svc.AddPayment, opts...))
	mux.Handle(BillServiceRemovePaymentProcedure, connect.NewUnaryHandler(BillServiceRemovePaymentProcedure, svc.RemovePayment, opts...))
	mux.Handle(BillServiceUpdatePaymentProcedure, connect.NewUnaryHandler(BillServiceUpdatePaymentProcedure, svc.UpdatePayment, opts...))
	mux.Handle(BillServiceToggleSettleProcedure, connect.NewUnaryHandler(BillServiceToggleSettleProcedure, svc.ToggleSettle, opts...))
	mux.Handle(BillServiceListBillEventsProcedure, connect.NewUnaryHandler(BillServiceListBillEventsProcedure, svc.ListBillEvents, opts...))
	return "/" + BillServiceName + "/", mux
}

// BillServiceClient is a client for billkeeper.v1.BillService.
type BillServiceClient struct {
	createBill     *connect.Client[CreateBillRequest, BillResponse]
	getBill        *connect.Client[GetBillRequest, BillResponse]
	listBills      *connect.Client[ListBillsRequest, ListBillsResponse]
	deleteBill     *connect.Client[DeleteBillRequest, emptypb.Empty]
	addItem        *connect.Client[AddItemRequest, AddItemResponse]
	removeItem     *connect.Client[RemoveItemRequest, BillResponse]
	updateItem     *connect.Client[UpdateItemRequest, BillResponse]
	addPayment     *connect.Client[AddPaymentRequest, AddPaymentResponse]
	removePayment  *connect.Client[RemovePaymentRequest, BillResponse]
	updatePayment  *connect.Client[UpdatePaymentRequest, BillResponse]
	toggleSettle   *connect.Client[ToggleSettleRequest, BillResponse]
	listBillEvents *connect.Client[ListBillEventsRequest, ListBillEventsResponse]
}

// NewBillServiceClient constructs a client for BillService. baseURL is the
// server root, e.g. http://localhost:8080.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec())}, opts...)
	return &BillServiceClient{
		createBill:     connect.NewClient[CreateBillRequest, BillResponse](httpClient, baseURL+BillServiceCreateBillProcedure, opts...),
		getBill:        connect.NewClient[GetBillRequest, BillResponse](httpClient, baseURL+BillServiceGetBillProcedure, opts...),
		listBills:      connect.NewClient[ListBillsRequest, ListBillsResponse](httpClient, baseURL+BillServiceListBillsProcedure, opts...),
		deleteBill:     connect.NewClient[DeleteBillRequest, emptypb.Empty](httpClient, baseURL+BillServiceDeleteBillProcedure, opts...),
		addItem:        connect.NewClient[AddItemRequest, AddItemResponse](httpClient, baseURL+BillServiceAddItemProcedure, opts...),
		removeItem:     connect.NewClient[RemoveItemRequest, BillResponse](httpClient, baseURL+BillServiceRemoveItemProcedure, opts...),
		updateItem:     connect.NewClient[UpdateItemRequest, BillResponse](httpClient, baseURL+BillServiceUpdateItemProcedure, opts...),
		addPayment:     connect.NewClient[AddPaymentRequest, AddPaymentResponse](httpClient, baseURL+BillServiceAddPaymentProcedure, opts...),
		removePayment:  connect.NewClient[RemovePaymentRequest, BillResponse](httpClient, baseURL+BillServiceRemovePaymentProcedure, opts...),
		updatePayment:  connect.NewClient[UpdatePaymentRequest, BillResponse](httpClient, baseURL+BillServiceUpdatePaymentProcedure, opts...),
		toggleSettle:   connect.NewClient[ToggleSettleRequest, BillResponse](httpClient, baseURL+BillServiceToggleSettleProcedure, opts...),
		listBillEvents: connect.NewClient[ListBillEventsRequest, ListBillEventsResponse](httpClient, baseURL+BillServiceListBillEventsProcedure, opts...),
	}
}

func (c *BillServiceClient) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[BillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[BillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *BillServiceClient) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *BillServiceClient) RemoveItem(ctx context.Context, req *connect.Request[RemoveItemRequest]) (*connect.Response[BillResponse], error) {
	return c.removeItem.CallUnary(ctx, req)
}

func (c *BillServiceClient) UpdateItem(ctx context.Context, req *connect.Request[UpdateItemRequest]) (*connect.Response[BillResponse], error) {
	return c.updateItem.CallUnary(ctx, req)
}

func (c *BillServiceClient) AddPayment(ctx context.Context, req *connect.Request[AddPaymentRequest]) (*connect.Response[AddPaymentResponse], error) {
	return c.addPayment.CallUnary(ctx, req)
}

func (c *BillServiceClient) RemovePayment(ctx context.Context, req *connect.Request[RemovePaymentRequest]) (*connect.Response[BillResponse], error) {
	return c.removePayment.CallUnary(ctx, req)
}

func (c *BillServiceClient) UpdatePayment(ctx context.Context, req *connect.Request[UpdatePaymentRequest]) (*connect.Response[BillResponse], error) {
	return c.updatePayment.CallUnary(ctx, req)
}

func (c *BillServiceClient) ToggleSettle(ctx context.Context, req *connect.Request[ToggleSettleRequest]) (*connect.Response[BillResponse], error) {
	return c.toggleSettle.CallUnary(ctx, req)
}

func (c *BillServiceClient) ListBillEvents(ctx context.Context, req *connect.Request[ListBillEventsRequest]) (*connect.Response[ListBillEventsResponse], error) {
	return c.listBillEvents.CallUnary(ctx, req)
}
