// Package schedule merges, totals and orders vendor payment schedules.
package schedule

import (
	"github.com/google/uuid"

	"weddingplan/internal/domain"
)

// MergePayments folds incoming installments into an existing schedule.
//
// Installments are matched by ID. Existing installments the incoming set does not
// mention are kept as-is, matched ones are merged field by field (absent incoming
// fields keep the stored value), and unmatched incoming ones are appended with a
// fresh ID when they have none. The create path calls this with a nil existing slice.
func MergePayments(existing []domain.PaymentRecord, incoming []domain.PaymentPatch) []domain.PaymentRecord {
	out := make([]domain.PaymentRecord, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, p := range existing {
		out = append(out, copyRecord(p))
		if p.ID != "" {
			index[p.ID] = len(out) - 1
		}
	}

	for i := range incoming {
		in := incoming[i]
		if pos, ok := index[in.ID]; ok && in.ID != "" {
			mergeInto(&out[pos], &in)
			continue
		}
		rec := in.ToRecord()
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		out = append(out, rec)
		index[rec.ID] = len(out) - 1
	}
	return out
}

// ReplacePayments builds a schedule from incoming installments only, as a raw overwrite.
// Incoming IDs are kept so re-submitted installments retain their identity.
func ReplacePayments(incoming []domain.PaymentPatch) []domain.PaymentRecord {
	return MergePayments(nil, incoming)
}

// mergeInto applies an incoming patch to a stored installment. A paid installment keeps
// its paid date and amount unless the patch carries a real replacement or un-pays it.
func mergeInto(rec *domain.PaymentRecord, in *domain.PaymentPatch) {
	if rec.Paid && !(in.Paid != nil && !*in.Paid) {
		if in.PaidDate != nil && *in.PaidDate == "" {
			in.PaidDate = nil
		}
		if in.Amount != nil && *in.Amount == 0 {
			in.Amount = nil
		}
	}
	in.ApplyTo(rec)
}

func copyRecord(p domain.PaymentRecord) domain.PaymentRecord {
	if p.AmountConverted != nil {
		v := *p.AmountConverted
		p.AmountConverted = &v
	}
	return p
}
