// Package setmaintenance implements the administrative status override:
// withdrawing a title into MAINTENANCE and reinstating it back into
// circulation. While withdrawn, a title accepts no new loans or holds.
package setmaintenance
