// Package titlestatus implements the read-side composite for a title: the
// title record, a summary of its current loans and its hold queue in order.
// The composite is assembled at query time and never written back; the stored
// title record carries no borrower fields.
package titlestatus
