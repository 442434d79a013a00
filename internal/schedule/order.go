package schedule

import (
	"sort"
	"strings"

	"weddingplan/internal/domain"
)

// Sequence ranks used by SortLogical.
const (
	RankFirst   = 10
	RankSecond  = 20
	RankThird   = 30
	RankDefault = 50
	RankFinal   = 90
)

// SequenceRank scores an installment description by the sequencing words it contains.
func SequenceRank(description string) int {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "final") || strings.Contains(d, "balance"):
		return RankFinal
	case strings.Contains(d, "3rd") || strings.Contains(d, "third"):
		return RankThird
	case strings.Contains(d, "2nd") || strings.Contains(d, "second"):
		return RankSecond
	case strings.Contains(d, "1st") || strings.Contains(d, "first") || strings.Contains(d, "deposit"):
		return RankFirst
	default:
		return RankDefault
	}
}

// SortLogical returns the payments in installment order: by SequenceRank, then due date
// ascending with dateless payments after dated ones. Vendor responses use this order.
func SortLogical(payments []domain.PaymentRecord) []domain.PaymentRecord {
	out := append([]domain.PaymentRecord(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := SequenceRank(out[i].Description), SequenceRank(out[j].Description)
		if ri != rj {
			return ri < rj
		}
		return dueBefore(out[i].DueDate, out[j].DueDate)
	})
	return out
}

// SortChronological returns the payments by due date ascending, dateless last.
// The upcoming-payments listing uses this order.
func SortChronological(payments []domain.PaymentRecord) []domain.PaymentRecord {
	out := append([]domain.PaymentRecord(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		return dueBefore(out[i].DueDate, out[j].DueDate)
	})
	return out
}

// dueBefore orders ISO dates lexically; an empty date sorts after any set date.
func dueBefore(a, b string) bool {
	switch {
	case a == "" && b == "":
		return false
	case a == "":
		return false
	case b == "":
		return true
	default:
		return a < b
	}
}

// SortUpcoming orders unpaid installments across vendors chronologically, dateless last.
func SortUpcoming(items []domain.UpcomingPayment) []domain.UpcomingPayment {
	out := append([]domain.UpcomingPayment(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return dueBefore(out[i].Payment.DueDate, out[j].Payment.DueDate)
	})
	return out
}
