package circulation

// RecomputeStatus derives a title's status tag from its copy counts and queue
// state. It is a pure function of (administrative state, existence of a READY
// hold, availableCopies) and is invoked after every mutating operation, in the
// same unit of work that changed copies or queue state.
//
// MAINTENANCE and LOST are sticky: they were set administratively and only an
// administrative operation reverts them.
func RecomputeStatus(title Title, holds []Hold) TitleStatus {
	if !title.InCirculation() {
		return title.Status
	}

	for _, hold := range holds {
		if hold.Status == HoldReady {
			return TitleReserved
		}
	}

	if title.AvailableCopies > 0 {
		return TitleAvailable
	}

	return TitleBorrowed
}

// ClampCopies bounds availableCopies to the valid range 0..totalCopies.
func ClampCopies(available int, total int) int {
	if available < 0 {
		return 0
	}
	if available > total {
		return total
	}

	return available
}
