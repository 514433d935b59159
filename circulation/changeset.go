package circulation

// ChangeSet is the full set of records an operation wants written. A storage
// engine applies it in one atomic transaction scoped to the title: the title
// row is updated with a version check first, and any zero-rows-affected result
// aborts the whole change with ErrConflict. Partial application must never be
// observable.
type ChangeSet struct {
	Title *Title // updated copy counts/status; always set on a mutation

	NewLoan      *Loan
	UpdatedLoans []Loan

	NewHold      *Hold
	UpdatedHolds []Hold

	// Promoted is the hold advanced to READY by this change, if any. It also
	// appears in UpdatedHolds; the separate field exists so the shell can fire
	// the NotifyHoldReady hook exactly once per successful promotion.
	Promoted *Hold
}

// IsEmpty reports whether the change set writes nothing.
func (cs ChangeSet) IsEmpty() bool {
	return cs.Title == nil &&
		cs.NewLoan == nil &&
		len(cs.UpdatedLoans) == 0 &&
		cs.NewHold == nil &&
		len(cs.UpdatedHolds) == 0
}
