package model

import "github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"

// Plan maps a purchasable subscription duration to its price.
type Plan struct {
	Days     int
	Amount   int64 // minor units (paise)
	Currency string
}

// PlanTable is a small in-config price list keyed by duration in days.
type PlanTable map[int]Plan

func (t PlanTable) Find(days int) (Plan, error) {
	p, ok := t[days]
	if !ok {
		return Plan{}, domain.ErrPlanNotFound
	}
	return p, nil
}
