package domain

import "time"

// ValidateTerms enforces the pre-flight completeness check: every
// group below is a hard requirement, and failure never mutates state —
// callers get back the structured missing-field list instead.
func ValidateTerms(t Terms, now time.Time) []MissingField {
	var missing []MissingField

	pq := t.PriceQuantity
	if !pq.PricePerUnit.IsPositive() {
		missing = append(missing, MissingField{"priceQuantity", "pricePerUnit", "must be > 0"})
	}
	if !pq.TotalQuantity.IsPositive() {
		missing = append(missing, MissingField{"priceQuantity", "totalQuantity", "must be > 0"})
	}
	if pq.Unit == "" {
		missing = append(missing, MissingField{"priceQuantity", "unit", "required"})
	}
	if pq.Currency == "" {
		missing = append(missing, MissingField{"priceQuantity", "currency", "required"})
	}
	if pq.PricePerUnit.IsPositive() && pq.TotalQuantity.IsPositive() {
		expected := pq.PricePerUnit.Mul(pq.TotalQuantity)
		if !expected.Equal(pq.TotalAmount) {
			missing = append(missing, MissingField{"priceQuantity", "totalAmount", "must equal pricePerUnit * totalQuantity"})
		}
	}

	d := t.Delivery
	if d.BranchLocationID == "" && (d.Address == "" || d.City == "" || d.State == "" || d.Pincode == "") {
		missing = append(missing, MissingField{"delivery", "location", "registered branch id or full ad-hoc address required"})
	}
	if d.DeliveryDate.IsZero() || !d.DeliveryDate.After(now) {
		missing = append(missing, MissingField{"delivery", "deliveryDate", "must be in the future"})
	}
	if d.Incoterm == "" {
		missing = append(missing, MissingField{"delivery", "incoterm", "required"})
	}
	if d.TransportMode == "" {
		missing = append(missing, MissingField{"delivery", "transportMode", "required"})
	}
	if d.FreightResponsible == "" {
		missing = append(missing, MissingField{"delivery", "freightResponsible", "required"})
	}

	p := t.Payment
	if p.Method == "" {
		missing = append(missing, MissingField{"payment", "method", "required"})
	}
	if p.AdvancePct < 0 || p.AdvancePct > 100 {
		missing = append(missing, MissingField{"payment", "advancePct", "must be within [0,100]"})
	}
	switch p.BalanceTrigger {
	case BalanceOnSigning, BalanceOnDelivery, BalanceOnQualityCheck:
	default:
		missing = append(missing, MissingField{"payment", "balanceTrigger", "must be one of ON_SIGNING, ON_DELIVERY, ON_QUALITY_CHECK"})
	}

	if len(t.Quality) == 0 {
		missing = append(missing, MissingField{"quality", "parameters", "at least one quality parameter required"})
	}
	for _, q := range t.Quality {
		if !q.Mandatory {
			continue
		}
		if q.Name == "" {
			missing = append(missing, MissingField{"quality", "name", "mandatory parameter must be named"})
		}
		if q.Min == nil && q.Max == nil {
			missing = append(missing, MissingField{"quality", q.Name, "mandatory parameter needs min and/or max bound"})
		}
		if q.TestingMethod == "" {
			missing = append(missing, MissingField{"quality", q.Name, "testing method required"})
		}
	}

	insp := t.Inspection
	if insp.Agency == "" {
		missing = append(missing, MissingField{"inspection", "agency", "required"})
	}
	if insp.Location == "" {
		missing = append(missing, MissingField{"inspection", "location", "required"})
	}
	if insp.Timeline == "" {
		missing = append(missing, MissingField{"inspection", "timeline", "required"})
	}
	if insp.RejectionTerms == "" {
		missing = append(missing, MissingField{"inspection", "rejectionTerms", "required"})
	}

	lg := t.Legal
	if lg.GoverningLaw == "" {
		missing = append(missing, MissingField{"legal", "governingLaw", "required"})
	}
	if lg.Jurisdiction == "" {
		missing = append(missing, MissingField{"legal", "jurisdiction", "required"})
	}
	if lg.DisputeResolutionMethod == "" {
		missing = append(missing, MissingField{"legal", "disputeResolutionMethod", "required"})
	}
	if lg.DisputeVenue == "" {
		missing = append(missing, MissingField{"legal", "disputeVenue", "required"})
	}
	if lg.ForceMajeureClause == "" {
		missing = append(missing, MissingField{"legal", "forceMajeureClause", "required"})
	}

	pen := t.Penalties
	if pen.LateDeliveryRatePct <= 0 {
		missing = append(missing, MissingField{"penalties", "lateDeliveryRatePct", "required, must be > 0"})
	}
	if pen.LateDeliveryCapPct <= 0 {
		missing = append(missing, MissingField{"penalties", "lateDeliveryCapPct", "required, must be > 0"})
	}
	if pen.QualityRejectionTerms == "" {
		missing = append(missing, MissingField{"penalties", "qualityRejectionTerms", "required"})
	}
	if pen.BuyerCancellationTerms == "" {
		missing = append(missing, MissingField{"penalties", "buyerCancellationTerms", "required"})
	}
	if pen.SellerCancellationTerms == "" {
		missing = append(missing, MissingField{"penalties", "sellerCancellationTerms", "required"})
	}

	return missing
}
