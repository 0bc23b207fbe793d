// Package models defines the stored shapes of bills and their children.
//
// # Models
//
//   - Bill: a billed job with header fields and the flattened ledger totals
//   - BillItem: one billed line (unit price × quantity)
//   - PaymentRecord: one payment received
//   - BillEvent: a change notification, kept as an audit trail
//
// Bill does not store a settlement status. Status is derived from
// TotalAmount, PaidAmount and WaivedAmount by ledger.Classify whenever it is
// needed.
//
// Money fields are money.Amount (integer cents). Relationships use ID
// strings rather than pointers.
package models
