package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/postgresengine/internal/adapters"
)

func loanOpenStatuses() []string {
	return []string{string(circulation.LoanActive), string(circulation.LoanOverdue)}
}

func holdOpenStatuses() []string {
	return []string{string(circulation.HoldPending), string(circulation.HoldReady)}
}

// FindTitle returns the title record.
func (s Store) FindTitle(ctx context.Context, titleID uuid.UUID) (circulation.Title, error) {
	var empty circulation.Title

	sqlQuery, _, buildErr := goqu.Dialect(dialectPostgres).
		From(s.tables.Titles).
		Select(colID, colTotalCopies, colAvailableCopies, colStatus, colVersion).
		Where(goqu.C(colID).Eq(titleID.String())).
		ToSQL()
	if buildErr != nil {
		return empty, s.logBuildError(ctx, buildErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return empty, fmt.Errorf("%w: title %s", circulation.ErrNotFound, titleID)
	}

	return s.scanTitle(rows)
}

// FindLoan returns the loan record.
func (s Store) FindLoan(ctx context.Context, loanID uuid.UUID) (circulation.Loan, error) {
	var empty circulation.Loan

	sqlQuery, _, buildErr := s.selectLoans(goqu.C(colID).Eq(loanID.String())).ToSQL()
	if buildErr != nil {
		return empty, s.logBuildError(ctx, buildErr)
	}

	loans, queryErr := s.queryLoans(ctx, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}

	if len(loans) == 0 {
		return empty, fmt.Errorf("%w: loan %s", circulation.ErrNotFound, loanID)
	}

	return loans[0], nil
}

// FindHold returns the hold record.
func (s Store) FindHold(ctx context.Context, holdID uuid.UUID) (circulation.Hold, error) {
	var empty circulation.Hold

	sqlQuery, _, buildErr := s.selectHolds(goqu.C(colID).Eq(holdID.String())).ToSQL()
	if buildErr != nil {
		return empty, s.logBuildError(ctx, buildErr)
	}

	holds, queryErr := s.queryHolds(ctx, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}

	if len(holds) == 0 {
		return empty, fmt.Errorf("%w: hold %s", circulation.ErrNotFound, holdID)
	}

	return holds[0], nil
}

// LoadTitleContext assembles the per-title snapshot a decision runs against:
// the title record, its open loans and holds, and the cross-title counters of
// the driving holder (zero-valued for uuid.Nil).
func (s Store) LoadTitleContext(
	ctx context.Context,
	titleID uuid.UUID,
	holderID uuid.UUID,
	asOf time.Time,
) (circulation.TitleContext, error) {

	var empty circulation.TitleContext

	title, titleErr := s.FindTitle(ctx, titleID)
	if titleErr != nil {
		return empty, titleErr
	}

	loans, loansErr := s.ListOpenLoans(ctx, titleID)
	if loansErr != nil {
		return empty, loansErr
	}

	holds, holdsErr := s.ListOpenHolds(ctx, titleID)
	if holdsErr != nil {
		return empty, holdsErr
	}

	snapshot := circulation.TitleContext{
		Title:  title,
		Loans:  loans,
		Holds:  holds,
		Holder: circulation.HolderStats{ID: holderID},
	}

	if holderID == uuid.Nil {
		return snapshot, nil
	}

	stats, statsErr := s.loadHolderStats(ctx, holderID, asOf)
	if statsErr != nil {
		return empty, statsErr
	}

	snapshot.Holder = stats

	return snapshot, nil
}

// loadHolderStats gathers the holder-wide counters the limit rules need.
func (s Store) loadHolderStats(
	ctx context.Context,
	holderID uuid.UUID,
	asOf time.Time,
) (circulation.HolderStats, error) {

	var empty circulation.HolderStats

	loansSQL, _, buildErr := s.selectLoans(
		goqu.C(colHolderID).Eq(holderID.String()),
		goqu.C(colStatus).In(loanOpenStatuses()),
	).ToSQL()
	if buildErr != nil {
		return empty, s.logBuildError(ctx, buildErr)
	}

	openLoans, loansErr := s.queryLoans(ctx, loansSQL)
	if loansErr != nil {
		return empty, loansErr
	}

	holdsSQL, _, buildErr := s.selectHolds(
		goqu.C(colHolderID).Eq(holderID.String()),
		goqu.C(colStatus).In(holdOpenStatuses()),
	).ToSQL()
	if buildErr != nil {
		return empty, s.logBuildError(ctx, buildErr)
	}

	openHolds, holdsErr := s.queryHolds(ctx, holdsSQL)
	if holdsErr != nil {
		return empty, holdsErr
	}

	stats := circulation.HolderStats{
		ID:            holderID,
		OpenHoldCount: len(openHolds),
	}

	for _, loan := range openLoans {
		if loan.Status == circulation.LoanActive {
			stats.ActiveLoanCount++
		}
		if loan.IsOverdueAsOf(asOf) {
			stats.OverdueCount++
		}
	}

	return stats, nil
}

// ListOpenLoans returns the open loans of a title, oldest first.
func (s Store) ListOpenLoans(ctx context.Context, titleID uuid.UUID) ([]circulation.Loan, error) {
	sqlQuery, _, buildErr := s.selectLoans(
		goqu.C(colTitleID).Eq(titleID.String()),
		goqu.C(colStatus).In(loanOpenStatuses()),
	).Order(goqu.I(colLoanDate).Asc()).ToSQL()
	if buildErr != nil {
		return nil, s.logBuildError(ctx, buildErr)
	}

	return s.queryLoans(ctx, sqlQuery)
}

// ListOpenHolds returns the open holds of a title in queue order.
func (s Store) ListOpenHolds(ctx context.Context, titleID uuid.UUID) ([]circulation.Hold, error) {
	sqlQuery, _, buildErr := s.selectHolds(
		goqu.C(colTitleID).Eq(titleID.String()),
		goqu.C(colStatus).In(holdOpenStatuses()),
	).Order(goqu.I(colQueuePosition).Asc(), goqu.I(colRequestedAt).Asc()).ToSQL()
	if buildErr != nil {
		return nil, s.logBuildError(ctx, buildErr)
	}

	return s.queryHolds(ctx, sqlQuery)
}

// ListOverdueLoans returns every ACTIVE loan past due as of the given time,
// across all titles.
func (s Store) ListOverdueLoans(ctx context.Context, asOf time.Time) ([]circulation.Loan, error) {
	sqlQuery, _, buildErr := s.selectLoans(
		goqu.C(colStatus).Eq(string(circulation.LoanActive)),
		goqu.C(colDueDate).Lt(timestampLiteral(asOf)),
	).Order(goqu.I(colDueDate).Asc()).ToSQL()
	if buildErr != nil {
		return nil, s.logBuildError(ctx, buildErr)
	}

	return s.queryLoans(ctx, sqlQuery)
}

// ListExpiredHolds returns every open hold past expiry as of the given time,
// across all titles.
func (s Store) ListExpiredHolds(ctx context.Context, asOf time.Time) ([]circulation.Hold, error) {
	sqlQuery, _, buildErr := s.selectHolds(
		goqu.C(colStatus).In(holdOpenStatuses()),
		goqu.C(colExpiryDate).Lt(timestampLiteral(asOf)),
	).Order(goqu.I(colExpiryDate).Asc()).ToSQL()
	if buildErr != nil {
		return nil, s.logBuildError(ctx, buildErr)
	}

	return s.queryHolds(ctx, sqlQuery)
}

// AddTitle registers a title record with the store. Titles are created by the
// catalog; this is the seam where the catalog hands them to circulation.
func (s Store) AddTitle(ctx context.Context, title circulation.Title) error {
	sqlQuery, _, buildErr := goqu.Dialect(dialectPostgres).
		Insert(s.tables.Titles).
		Rows(goqu.Record{
			colID:              title.ID.String(),
			colTotalCopies:     title.TotalCopies,
			colAvailableCopies: title.AvailableCopies,
			colStatus:          string(title.Status),
			colVersion:         title.Version,
		}).
		ToSQL()
	if buildErr != nil {
		return s.logBuildError(ctx, buildErr)
	}

	if _, execErr := s.db.Exec(ctx, sqlQuery); execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		return execErr
	}

	return nil
}

// --- statement builders ---

func (s Store) selectLoans(where ...exp.Expression) *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(s.tables.Loans).
		Select(colID, colTitleID, colHolderID, colLoanDate, colDueDate,
			colReturnDate, colStatus, colRenewalCount, colNotes).
		Where(where...)
}

func (s Store) selectHolds(where ...exp.Expression) *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(s.tables.Holds).
		Select(colID, colTitleID, colHolderID, colRequestedAt, colExpiryDate,
			colStatus, colQueuePosition).
		Where(where...)
}

func (s Store) buildInsertLoan(loan circulation.Loan) (sqlQueryString, error) {
	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		Insert(s.tables.Loans).
		Rows(loanRecord(loan, true)).
		ToSQL()

	return sqlQuery, err
}

func (s Store) buildUpdateLoan(loan circulation.Loan) (sqlQueryString, error) {
	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		Update(s.tables.Loans).
		Set(loanRecord(loan, false)).
		Where(goqu.C(colID).Eq(loan.ID.String())).
		ToSQL()

	return sqlQuery, err
}

func (s Store) buildInsertHold(hold circulation.Hold) (sqlQueryString, error) {
	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		Insert(s.tables.Holds).
		Rows(holdRecord(hold, true)).
		ToSQL()

	return sqlQuery, err
}

func (s Store) buildUpdateHold(hold circulation.Hold) (sqlQueryString, error) {
	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		Update(s.tables.Holds).
		Set(holdRecord(hold, false)).
		Where(goqu.C(colID).Eq(hold.ID.String())).
		ToSQL()

	return sqlQuery, err
}

func loanRecord(loan circulation.Loan, withID bool) goqu.Record {
	record := goqu.Record{
		colTitleID:      loan.TitleID.String(),
		colHolderID:     loan.HolderID.String(),
		colLoanDate:     timestampLiteral(loan.LoanDate),
		colDueDate:      timestampLiteral(loan.DueDate),
		colReturnDate:   nullableTimestampLiteral(loan.ReturnDate),
		colStatus:       string(loan.Status),
		colRenewalCount: loan.RenewalCount,
		colNotes:        loan.Notes,
	}

	if withID {
		record[colID] = loan.ID.String()
	}

	return record
}

func holdRecord(hold circulation.Hold, withID bool) goqu.Record {
	record := goqu.Record{
		colTitleID:       hold.TitleID.String(),
		colHolderID:      hold.HolderID.String(),
		colRequestedAt:   timestampLiteral(hold.RequestedAt),
		colExpiryDate:    timestampLiteral(hold.ExpiryDate),
		colStatus:        string(hold.Status),
		colQueuePosition: hold.QueuePosition,
	}

	if withID {
		record[colID] = hold.ID.String()
	}

	return record
}

func timestampLiteral(t time.Time) exp.LiteralExpression {
	return goqu.L(castTimestamp, t.UTC().Format(time.RFC3339Nano))
}

func nullableTimestampLiteral(t *time.Time) any {
	if t == nil {
		return nil
	}

	return timestampLiteral(*t)
}

// --- query execution and row scanning ---

func (s Store) executeQuery(ctx context.Context, sqlQuery sqlQueryString) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, "query", time.Since(start))

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, queryErr
	}

	return rows, nil
}

func (s Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (s Store) queryLoans(ctx context.Context, sqlQuery sqlQueryString) ([]circulation.Loan, error) {
	rows, queryErr := s.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	var loans []circulation.Loan

	for rows.Next() {
		loan, scanErr := s.scanLoan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func (s Store) queryHolds(ctx context.Context, sqlQuery sqlQueryString) ([]circulation.Hold, error) {
	rows, queryErr := s.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	var holds []circulation.Hold

	for rows.Next() {
		hold, scanErr := s.scanHold(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		holds = append(holds, hold)
	}

	return holds, nil
}

func (s Store) scanTitle(rows adapters.DBRows) (circulation.Title, error) {
	var empty circulation.Title
	var idRaw, status string
	var totalCopies, availableCopies int
	var version uint

	if scanErr := rows.Scan(&idRaw, &totalCopies, &availableCopies, &status, &version); scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return empty, scanErr
	}

	id, parseErr := uuid.Parse(idRaw)
	if parseErr != nil {
		return empty, parseErr
	}

	return circulation.Title{
		ID:              id,
		TotalCopies:     totalCopies,
		AvailableCopies: availableCopies,
		Status:          circulation.TitleStatus(status),
		Version:         version,
	}, nil
}

func (s Store) scanLoan(rows adapters.DBRows) (circulation.Loan, error) {
	var empty circulation.Loan
	var idRaw, titleRaw, holderRaw, status, notes string
	var loanDate, dueDate time.Time
	var returnDate sql.NullTime
	var renewalCount int

	scanErr := rows.Scan(&idRaw, &titleRaw, &holderRaw, &loanDate, &dueDate,
		&returnDate, &status, &renewalCount, &notes)
	if scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return empty, scanErr
	}

	id, parseErr := uuid.Parse(idRaw)
	if parseErr != nil {
		return empty, parseErr
	}

	titleID, parseErr := uuid.Parse(titleRaw)
	if parseErr != nil {
		return empty, parseErr
	}

	holderID, parseErr := uuid.Parse(holderRaw)
	if parseErr != nil {
		return empty, parseErr
	}

	loan := circulation.Loan{
		ID:           id,
		TitleID:      titleID,
		HolderID:     holderID,
		LoanDate:     loanDate,
		DueDate:      dueDate,
		Status:       circulation.LoanStatus(status),
		RenewalCount: renewalCount,
		Notes:        notes,
	}

	if returnDate.Valid {
		returned := returnDate.Time
		loan.ReturnDate = &returned
	}

	return loan, nil
}

func (s Store) scanHold(rows adapters.DBRows) (circulation.Hold, error) {
	var empty circulation.Hold
	var idRaw, titleRaw, holderRaw, status string
	var requestedAt, expiryDate time.Time
	var queuePosition int

	scanErr := rows.Scan(&idRaw, &titleRaw, &holderRaw, &requestedAt, &expiryDate,
		&status, &queuePosition)
	if scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return empty, scanErr
	}

	id, parseErr := uuid.Parse(idRaw)
	if parseErr != nil {
		return empty, parseErr
	}

	titleID, parseErr := uuid.Parse(titleRaw)
	if parseErr != nil {
		return empty, parseErr
	}

	holderID, parseErr := uuid.Parse(holderRaw)
	if parseErr != nil {
		return empty, parseErr
	}

	return circulation.Hold{
		ID:            id,
		TitleID:       titleID,
		HolderID:      holderID,
		RequestedAt:   requestedAt,
		ExpiryDate:    expiryDate,
		Status:        circulation.HoldStatus(status),
		QueuePosition: queuePosition,
	}, nil
}

func (s Store) logBuildError(ctx context.Context, buildErr error) error {
	s.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error())
	return buildErr
}
